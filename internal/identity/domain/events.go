package identity

import "time"

// UserRegistered is published after a successful registration. The
// billing context consumes it to create the default tariff config.
type UserRegistered struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	OccurredAt time.Time `json:"occurred_at"`
}
