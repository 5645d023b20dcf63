package user

import "time"

// User is a participant known to the system. Identity itself is managed
// elsewhere; only the display name is kept here.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"created_at"`
}
