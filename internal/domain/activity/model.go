package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeContractCreated     ActivityType = "contract_created"
	TypeContractActivated   ActivityType = "contract_activated"
	TypeContractDeactivated ActivityType = "contract_deactivated"
	TypeContractDeleted     ActivityType = "contract_deleted"
	TypeParticipantJoined   ActivityType = "participant_joined"
	TypeInstancesGenerated  ActivityType = "instances_generated"
	TypeInstanceCompleted   ActivityType = "instance_completed"
	TypeInstanceUncompleted ActivityType = "instance_uncompleted"
	TypeInstancesViewed     ActivityType = "instances_viewed"
)

// ActivityEntry is one append-only event in a contract's history
type ActivityEntry struct {
	ID           int64        `json:"id"`
	ContractID   string       `json:"contract_id"`
	UserID       string       `json:"user_id"`
	InstanceID   *string      `json:"instance_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
