package contract

import (
	"slices"
	"time"
)

// Contract binds participants to a set of obligation templates.
type Contract struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	CreatorID      string     `json:"creator_id"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	ParticipantIDs []string   `json:"participant_ids"`
	TemplateIDs    []string   `json:"obligation_template_ids"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	ActivatedAt    *time.Time `json:"activated_at,omitempty"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// HasParticipant reports whether userID takes part in the contract.
func (c Contract) HasParticipant(userID string) bool {
	return slices.Contains(c.ParticipantIDs, userID)
}

// HasTemplate reports whether the contract bundles templateID.
func (c Contract) HasTemplate(templateID string) bool {
	return slices.Contains(c.TemplateIDs, templateID)
}

// IsDeleted reports whether a participant deleted the contract.
func (c Contract) IsDeleted() bool {
	return c.DeletedAt != nil
}

// Schedules reports whether the week starting at weekStart produces
// obligations: the contract must be active, not deleted, and the week must
// not start after the due date.
func (c Contract) Schedules(weekStart time.Time) bool {
	if !c.IsActive || c.IsDeleted() {
		return false
	}
	if c.DueDate != nil && weekStart.After(*c.DueDate) {
		return false
	}
	return true
}

// IsSolo reports whether the contract has a single participant.
func (c Contract) IsSolo() bool {
	return len(c.ParticipantIDs) == 1
}
