package models

import (
	"time"

	apperrors "github.com/snig/folio/internal/errors"
)

// User is the opaque owner of portfolios. Authentication lives elsewhere.
type User struct {
	ID       string `json:"id" gorm:"primaryKey;column:id;type:varchar(255)"`
	Username string `json:"username" gorm:"column:username;type:varchar(100);not null;uniqueIndex"`
	Email    string `json:"email" gorm:"column:email;type:varchar(255);not null;uniqueIndex"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// Validate validates the user data
func (u *User) Validate() error {
	if u.Username == "" {
		return &apperrors.ErrValidation{Field: "username", Message: "is required"}
	}
	if u.Email == "" {
		return &apperrors.ErrValidation{Field: "email", Message: "is required"}
	}
	return nil
}
