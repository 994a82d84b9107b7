package accounts

import "time"

// Admin is a dashboard account allowed to manage projects.
type Admin struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
