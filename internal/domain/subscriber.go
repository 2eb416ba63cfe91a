package domain

import "time"

// Subscriber is a newsletter signup. Email addresses are unique; repeated
// signups are idempotent.
type Subscriber struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
