package mcp

import (
	"github.com/rpggio/accord/internal/domain/instance"
	"github.com/rpggio/accord/internal/domain/obligation"
)

// CreateTemplateParams are the arguments of create_template.
type CreateTemplateParams struct {
	Title      string                    `json:"title" jsonschema:"short name of the obligation"`
	Icon       string                    `json:"icon,omitempty" jsonschema:"optional emoji or icon name"`
	Recurrence obligation.RecurrenceSpec `json:"recurrence" jsonschema:"when the obligation repeats"`
}

// UpdateTemplateParams are the arguments of update_template.
type UpdateTemplateParams struct {
	ID         string                     `json:"id" jsonschema:"template ID"`
	Title      *string                    `json:"title,omitempty" jsonschema:"new title"`
	Icon       *string                    `json:"icon,omitempty" jsonschema:"new icon"`
	Recurrence *obligation.RecurrenceSpec `json:"recurrence,omitempty" jsonschema:"new recurrence; applies from the next generated week"`
}

// IDParams address a single entity.
type IDParams struct {
	ID string `json:"id" jsonschema:"entity ID"`
}

// EmptyParams is used by tools without arguments.
type EmptyParams struct{}

// CreateContractParams are the arguments of create_contract.
type CreateContractParams struct {
	Title          string   `json:"title" jsonschema:"contract title"`
	DueDate        string   `json:"due_date,omitempty" jsonschema:"optional last day, YYYY-MM-DD"`
	ParticipantIDs []string `json:"participant_ids,omitempty" jsonschema:"other participants; the caller is always included"`
	TemplateIDs    []string `json:"obligation_template_ids" jsonschema:"templates bundled by the contract"`
	Activate       bool     `json:"activate,omitempty" jsonschema:"start generating obligations immediately"`
}

// ContractParams address a contract.
type ContractParams struct {
	ContractID string `json:"contract_id" jsonschema:"contract ID"`
}

// WeekParams address one week of a contract.
type WeekParams struct {
	ContractID string `json:"contract_id" jsonschema:"contract ID"`
	Week       string `json:"week,omitempty" jsonschema:"any date in the week, YYYY-MM-DD; defaults to the current week"`
}

// SetCompletionParams are the arguments of set_completion.
type SetCompletionParams struct {
	InstanceID string `json:"instance_id" jsonschema:"obligation instance ID"`
	Completed  *bool  `json:"completed,omitempty" jsonschema:"false to undo a completion; defaults to true"`
}

// MarkViewedParams are the arguments of mark_viewed.
type MarkViewedParams struct {
	InstanceIDs []string `json:"instance_ids" jsonschema:"instances the caller has seen"`
}

// StatusReportParams are the arguments of status_report.
type StatusReportParams struct {
	ContractID string `json:"contract_id" jsonschema:"contract ID"`
	WeeksAgo   *int   `json:"weeks_ago,omitempty" jsonschema:"closed week to report, at least 1; defaults to 1, the last closed week"`
}

// RecentActivityParams are the arguments of recent_activity.
type RecentActivityParams struct {
	ContractID   string  `json:"contract_id" jsonschema:"contract ID"`
	UserID       *string `json:"user_id,omitempty" jsonschema:"only events by this participant"`
	InstanceID   *string `json:"instance_id,omitempty" jsonschema:"only events about this instance"`
	ActivityType *string `json:"activity_type,omitempty" jsonschema:"only events of this type"`
	Limit        int     `json:"limit,omitempty" jsonschema:"maximum number of entries (default 20)"`
	Offset       int     `json:"offset,omitempty" jsonschema:"entries to skip"`
}

// WeekResponse lists the instances of one contract week.
type WeekResponse struct {
	ContractID string              `json:"contract_id"`
	Week       string              `json:"week"`
	Instances  []instance.Instance `json:"instances"`
}

// MarkViewedResponse reports how many instances were newly marked.
type MarkViewedResponse struct {
	Marked int `json:"marked"`
}

// DeletedResponse acknowledges a deletion.
type DeletedResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
