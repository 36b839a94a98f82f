package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a portal user's role.
type Role string

const (
	RoleAuthor Role = "author"
	RoleAdmin  Role = "admin"
)

// User represents a portal account (author or administrator).
type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	Password    string    `json:"-"`
	FullName    string    `json:"full_name"`
	Role        Role      `json:"role"`
	Mobile      string    `json:"mobile,omitempty"`
	Institution string    `json:"institution,omitempty"`
	Department  string    `json:"department,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	Role        Role      `json:"role"`
	Mobile      string    `json:"mobile,omitempty"`
	Institution string    `json:"institution,omitempty"`
	Department  string    `json:"department,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		Mobile:      u.Mobile,
		Institution: u.Institution,
		Department:  u.Department,
		CreatedAt:   u.CreatedAt,
	}
}
