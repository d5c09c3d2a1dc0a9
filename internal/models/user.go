package models

import "time"

// Role is the authorization role of a user.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// User represents a user in the system
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        string
	Role         Role
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DTO returns the outward projection of the user.
func (u *User) DTO() *UserDTO {
	return &UserDTO{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		Enabled:  u.Enabled,
	}
}

// UserDTO is the outward projection of a user.
type UserDTO struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Enabled  bool   `json:"enabled"`
}

// Identity is the authenticated caller of an operation, extracted from the
// request token.
type Identity struct {
	UserID int64
	Role   Role
}

// IsAdmin reports whether the identity holds the administrative role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
