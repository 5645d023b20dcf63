package instance

import (
	"fmt"
	"time"
)

// Instance is one dated obligation a participant must complete in a week.
type Instance struct {
	ID          string     `json:"id"`
	ContractID  string     `json:"contract_id"`
	TemplateID  string     `json:"obligation_template_id"`
	UserID      string     `json:"user_id"`
	WeekStart   time.Time  `json:"week_start"`
	Occurrence  int        `json:"occurrence"`
	DueAt       time.Time  `json:"due_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ViewedAt    *time.Time `json:"viewed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsCompleted reports whether the instance has a completion timestamp.
func (i Instance) IsCompleted() bool {
	return i.CompletedAt != nil
}

// IsLate reports whether the instance was completed after its deadline.
func (i Instance) IsLate() bool {
	return i.CompletedAt != nil && i.CompletedAt.After(i.DueAt)
}

// Key returns the uniqueness key of the instance.
func (i Instance) Key() Key {
	return Key{
		ContractID: i.ContractID,
		TemplateID: i.TemplateID,
		UserID:     i.UserID,
		WeekStart:  i.WeekStart,
		Occurrence: i.Occurrence,
	}
}

// Key identifies an instance independently of its generated ID. For daily
// templates Occurrence is the weekday number; for weekly templates it is
// 0..timesPerWeek-1.
type Key struct {
	ContractID string
	TemplateID string
	UserID     string
	WeekStart  time.Time
	Occurrence int
}

// String encodes the key with the week as a unix millisecond instant, the
// form week_start is stored in.
func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s/%d/%d", k.ContractID, k.TemplateID, k.UserID, k.WeekStart.UnixMilli(), k.Occurrence)
}

// GenerateResult summarizes one week's generation for a contract.
type GenerateResult struct {
	ContractID string            `json:"contract_id"`
	WeekStart  time.Time         `json:"week_start"`
	Created    int               `json:"created"`
	Existing   int               `json:"existing"`
	Failures   []TemplateFailure `json:"failures,omitempty"`
}

// TemplateFailure reports a template that could not be expanded.
type TemplateFailure struct {
	TemplateID string `json:"obligation_template_id"`
	Reason     string `json:"reason"`
}

// UserDue lists one participant's outstanding instances.
type UserDue struct {
	UserID    string     `json:"user_id"`
	Instances []Instance `json:"instances"`
}

// DueSet is the outstanding work of a contract for one week.
type DueSet struct {
	ContractID string    `json:"contract_id"`
	WeekStart  time.Time `json:"week_start"`
	WeekEnd    time.Time `json:"week_end"`
	Users      []UserDue `json:"users"`
}
