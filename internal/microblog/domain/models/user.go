package models

import "time"

const (
	RoleReader = "READER"
	RoleEditor = "EDITOR"
	RoleAdmin  = "ADMIN"
)

type User struct {
	ID                int64      `json:"user_id"`     //nolint:tagliatelle
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	Role              string     `json:"role"`
	Verified          bool       `json:"is_verified"` //nolint:tagliatelle
	VerificationToken *string    `json:"-"`
	ResetToken        *string    `json:"-"`
	ResetTokenExpiry  *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`  //nolint:tagliatelle
	UpdatedAt         time.Time  `json:"updated_at"`  //nolint:tagliatelle
}

// Identity is the authenticated caller resolved from a session token.
// A nil *Identity means the request is anonymous.
type Identity struct {
	UserID int64  `json:"user_id"` //nolint:tagliatelle
	Email  string `json:"email"`
	Role   string `json:"role"`
}

func (i *Identity) Is(userID int64) bool {
	return i != nil && i.UserID == userID
}

func (i *Identity) HasRole(roles ...string) bool {
	if i == nil {
		return false
	}

	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}

	return false
}
