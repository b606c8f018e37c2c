package domain

import "time"

// Profile is the per-user record consulted for admin status. A user with no
// profile is an ordinary user.
type Profile struct {
	UserID    string
	IsAdmin   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
