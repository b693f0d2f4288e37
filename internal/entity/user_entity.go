package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id           uuid.UUID
	Name         string
	Email        string
	PasswordHash *string
	AvatarURL    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the user can sign in with a password.
// Accounts created through an OAuth provider have none.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
