package domain

import (
	"strings"
	"time"
)

// User is the public view of an account. It never carries credential material.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Favorites []string  `json:"favorites"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Credentials is the credential view of an account, read only by login.
type Credentials struct {
	User
	PasswordHash string `json:"-"`
}

// PasswordReset is a pending reset: the hash of the mailed token and its deadline.
// Both fields are stored together or not at all.
type PasswordReset struct {
	TokenHash string
	ExpiresAt time.Time
}

// Active reports whether the reset can still be redeemed at now.
func (r PasswordReset) Active(now time.Time) bool {
	return r.TokenHash != "" && now.Before(r.ExpiresAt)
}

// IdentifierField names the unique field a login/forgot identifier resolves to.
type IdentifierField string

const (
	FieldUsername IdentifierField = "username"
	FieldEmail    IdentifierField = "email"
)

// Identifier is a username or an email address supplied by a client.
type Identifier struct {
	Field IdentifierField
	Value string
}

// ParseIdentifier treats anything containing "@" as an email address and
// everything else as a username.
func ParseIdentifier(s string) Identifier {
	if strings.Contains(s, "@") {
		return Identifier{Field: FieldEmail, Value: s}
	}
	return Identifier{Field: FieldUsername, Value: s}
}

func (id Identifier) IsEmail() bool { return id.Field == FieldEmail }
