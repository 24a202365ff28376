package model

import "time"

const (
	UserRoleAdmin = "admin"
	UserRoleBot   = "bot"
)

// User is a dashboard account allowed to call the API.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      string    `gorm:"size:20;not null;default:admin" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserResponse is the public projection of a User.
type UserResponse struct {
	ID    uint   `json:"id,omitempty"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Role: u.Role}
}

// IsBot reports whether the identity is the internal bot caller.
func (u *User) IsBot() bool {
	return u != nil && u.Role == UserRoleBot
}

type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordPayload struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
