package mocks

import (
	"context"
	"time"

	"github.com/rpggio/accord/internal/domain/activity"
	"github.com/rpggio/accord/internal/domain/contract"
	"github.com/rpggio/accord/internal/domain/instance"
	"github.com/rpggio/accord/internal/domain/obligation"
	"github.com/rpggio/accord/internal/domain/user"
	"github.com/stretchr/testify/mock"
)

// TemplateRepository is a mock for obligation.Repository.
type TemplateRepository struct {
	mock.Mock
}

func (m *TemplateRepository) Create(ctx context.Context, tmpl *obligation.Template) error {
	args := m.Called(ctx, tmpl)
	return args.Error(0)
}

func (m *TemplateRepository) Get(ctx context.Context, id string) (*obligation.Template, error) {
	args := m.Called(ctx, id)
	if tmpl, ok := args.Get(0).(*obligation.Template); ok {
		return tmpl, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TemplateRepository) GetMany(ctx context.Context, ids []string) ([]obligation.Template, error) {
	args := m.Called(ctx, ids)
	if list, ok := args.Get(0).([]obligation.Template); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TemplateRepository) ListByOwner(ctx context.Context, ownerID string) ([]obligation.Template, error) {
	args := m.Called(ctx, ownerID)
	if list, ok := args.Get(0).([]obligation.Template); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TemplateRepository) Update(ctx context.Context, tmpl *obligation.Template) error {
	args := m.Called(ctx, tmpl)
	return args.Error(0)
}

func (m *TemplateRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// ContractRepository is a mock for contract.Repository.
type ContractRepository struct {
	mock.Mock
}

func (m *ContractRepository) Create(ctx context.Context, c *contract.Contract) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *ContractRepository) Get(ctx context.Context, id string) (*contract.Contract, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*contract.Contract); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ContractRepository) ListForUser(ctx context.Context, userID string) ([]contract.Contract, error) {
	args := m.Called(ctx, userID)
	if list, ok := args.Get(0).([]contract.Contract); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ContractRepository) ListActive(ctx context.Context) ([]contract.Contract, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]contract.Contract); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ContractRepository) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	args := m.Called(ctx, id, active, at)
	return args.Error(0)
}

func (m *ContractRepository) AddParticipant(ctx context.Context, id, userID string, at time.Time) error {
	args := m.Called(ctx, id, userID, at)
	return args.Error(0)
}

func (m *ContractRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// InstanceRepository is a mock for instance.Repository.
type InstanceRepository struct {
	mock.Mock
}

func (m *InstanceRepository) CreateIfAbsent(ctx context.Context, instances []instance.Instance) (int, error) {
	args := m.Called(ctx, instances)
	return args.Int(0), args.Error(1)
}

func (m *InstanceRepository) Get(ctx context.Context, id string) (*instance.Instance, error) {
	args := m.Called(ctx, id)
	if inst, ok := args.Get(0).(*instance.Instance); ok {
		return inst, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InstanceRepository) GetMany(ctx context.Context, ids []string) ([]instance.Instance, error) {
	args := m.Called(ctx, ids)
	if list, ok := args.Get(0).([]instance.Instance); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InstanceRepository) ListWeek(ctx context.Context, contractID string, weekStart time.Time) ([]instance.Instance, error) {
	args := m.Called(ctx, contractID, weekStart)
	if list, ok := args.Get(0).([]instance.Instance); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InstanceRepository) SetCompleted(ctx context.Context, id, userID string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, userID, at)
	return args.Bool(0), args.Error(1)
}

func (m *InstanceRepository) ClearCompleted(ctx context.Context, id, userID string) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

func (m *InstanceRepository) MarkViewed(ctx context.Context, ids []string, at time.Time) (int, error) {
	args := m.Called(ctx, ids, at)
	return args.Int(0), args.Error(1)
}

func (m *InstanceRepository) ListUnviewedCompleted(ctx context.Context, contractID, excludeUserID string) ([]instance.Instance, error) {
	args := m.Called(ctx, contractID, excludeUserID)
	if list, ok := args.Get(0).([]instance.Instance); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InstanceRepository) DeleteFromWeek(ctx context.Context, contractID string, weekStart time.Time) (int, error) {
	args := m.Called(ctx, contractID, weekStart)
	return args.Int(0), args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// UserRepository is a mock for user.Repository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *UserRepository) Get(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) GetMany(ctx context.Context, ids []string) ([]user.User, error) {
	args := m.Called(ctx, ids)
	if list, ok := args.Get(0).([]user.User); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Scheduler is a mock for contract.Scheduler.
type Scheduler struct {
	mock.Mock
}

func (m *Scheduler) GenerateCurrentWeek(ctx context.Context, contractID string) error {
	args := m.Called(ctx, contractID)
	return args.Error(0)
}

func (m *Scheduler) DiscardFromCurrentWeek(ctx context.Context, contractID string) error {
	args := m.Called(ctx, contractID)
	return args.Error(0)
}
