package instance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/accord/internal/domain/activity"
	"github.com/rpggio/accord/internal/domain/contract"
	"github.com/rpggio/accord/internal/repository"
)

// SetCompletion marks an instance completed or not completed at the given
// time (the service clock when at is zero). Completing an already completed
// instance keeps the original timestamp. Only the instance's owner may
// toggle it, and past weeks may be toggled too.
func (s *Service) SetCompletion(ctx context.Context, userID, instanceID string, completed bool, at time.Time) (*Instance, error) {
	if strings.TrimSpace(instanceID) == "" {
		return nil, ErrInstanceNotFound
	}
	inst, err := s.get(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.UserID != userID {
		return nil, ErrNotOwner
	}
	if at.IsZero() {
		at = s.clock.Now()
	}

	var changed bool
	if completed {
		if inst.IsCompleted() {
			return inst, nil
		}
		changed, err = s.instances.SetCompleted(ctx, inst.ID, userID, at)
	} else {
		changed, err = s.instances.ClearCompleted(ctx, inst.ID, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("updating completion: %w", err)
	}

	if !changed {
		// A concurrent writer got there first; report what is stored.
		return s.get(ctx, instanceID)
	}

	typ := activity.TypeInstanceUncompleted
	summary := "marked obligation not completed"
	if completed {
		inst.CompletedAt = &at
		typ = activity.TypeInstanceCompleted
		summary = "completed obligation"
		if inst.IsLate() {
			summary = "completed obligation late"
		}
	} else {
		inst.CompletedAt = nil
	}

	if s.metrics != nil {
		s.metrics.CompletionToggled(ctx, completed)
	}
	s.logActivity(ctx, &activity.ActivityEntry{
		ContractID:   inst.ContractID,
		UserID:       userID,
		InstanceID:   &inst.ID,
		ActivityType: typ,
		Summary:      summary,
		CreatedAt:    at,
	})
	return inst, nil
}

// MarkViewed records that viewerID saw the given instances. Only the first
// view is kept. The viewer must take part in each instance's contract.
func (s *Service) MarkViewed(ctx context.Context, viewerID string, instanceIDs []string, at time.Time) (int, error) {
	if len(instanceIDs) == 0 {
		return 0, nil
	}
	instances, err := s.instances.GetMany(ctx, instanceIDs)
	if err != nil {
		return 0, fmt.Errorf("getting instances: %w", err)
	}
	if len(instances) != len(uniq(instanceIDs)) {
		return 0, ErrInstanceNotFound
	}

	checked := make(map[string]bool)
	for _, inst := range instances {
		if checked[inst.ContractID] {
			continue
		}
		if _, err := s.authorize(ctx, viewerID, inst.ContractID); err != nil {
			if errors.Is(err, contract.ErrContractNotFound) {
				return 0, ErrInstanceNotFound
			}
			return 0, err
		}
		checked[inst.ContractID] = true
	}

	if at.IsZero() {
		at = s.clock.Now()
	}
	n, err := s.instances.MarkViewed(ctx, instanceIDs, at)
	if err != nil {
		return 0, fmt.Errorf("marking viewed: %w", err)
	}
	if n > 0 {
		for contractID := range checked {
			s.logActivity(ctx, &activity.ActivityEntry{
				ContractID:   contractID,
				UserID:       viewerID,
				ActivityType: activity.TypeInstancesViewed,
				Summary:      fmt.Sprintf("viewed %d obligations", n),
				CreatedAt:    at,
			})
		}
	}
	return n, nil
}

// UnviewedCompletions lists instances other participants completed that
// nobody has viewed yet.
func (s *Service) UnviewedCompletions(ctx context.Context, userID, contractID string) ([]Instance, error) {
	if _, err := s.authorize(ctx, userID, contractID); err != nil {
		return nil, err
	}
	instances, err := s.instances.ListUnviewedCompleted(ctx, contractID, userID)
	if err != nil {
		return nil, fmt.Errorf("listing unviewed completions: %w", err)
	}
	return instances, nil
}

func (s *Service) get(ctx context.Context, id string) (*Instance, error) {
	inst, err := s.instances.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInstanceNotFound
		}
		return nil, fmt.Errorf("getting instance: %w", err)
	}
	return inst, nil
}

func uniq(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}
