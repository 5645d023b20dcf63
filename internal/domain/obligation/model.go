package obligation

import (
	"encoding/json"
	"time"
)

// Template is a reusable recurring commitment owned by one user.
type Template struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	Title      string     `json:"title"`
	Icon       string     `json:"icon,omitempty"`
	Recurrence Recurrence `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the template was soft deleted.
func (t Template) IsDeleted() bool {
	return t.DeletedAt != nil
}

// MarshalJSON renders the recurrence in its wire form.
func (t Template) MarshalJSON() ([]byte, error) {
	type plain Template
	return json.Marshal(struct {
		plain
		Recurrence RecurrenceSpec `json:"recurrence"`
	}{plain(t), EncodeRecurrence(t.Recurrence)})
}

// Index maps templates by ID.
func Index(templates []Template) map[string]Template {
	out := make(map[string]Template, len(templates))
	for _, t := range templates {
		out[t.ID] = t
	}
	return out
}
