package models

import "time"

// User represents a user record in DB (internal use only).
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// DTO strips everything that should not leave the server.
func (u User) DTO() UserDTO {
	return UserDTO{ID: u.ID, Username: u.Username}
}

// RegisterRequest holds the data for creating a new user.
type RegisterRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}
