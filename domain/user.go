package domain

import "time"

// User represents a registered identity in the platform.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the caller view of a user handed to the core.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u *User) Identity() Identity {
	if u == nil {
		return Identity{}
	}
	return Identity{ID: u.ID, Username: u.Username, Email: u.Email}
}
