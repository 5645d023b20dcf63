package activity

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	ContractID   string
	UserID       *string
	InstanceID   *string
	ActivityType *ActivityType
	Limit        int
	Offset       int
}
