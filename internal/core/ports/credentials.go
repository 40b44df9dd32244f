package ports

import (
	"context"

	"github.com/thegoodfork/accounts/internal/core/domain"
)

// PasswordHasher is a slow, salted one-way password function.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify reports whether password matches hash. An empty hash never
	// matches but costs the same as a real comparison.
	Verify(password, hash string) bool
}

// TokenService issues and verifies signed session tokens. Verify collapses
// every failure into domain.ErrInvalidToken.
type TokenService interface {
	Issue(userID string) (string, error)
	Verify(token string) (string, error)
}

// Notifier delivers the password-reset code out of band.
type Notifier interface {
	SendPasswordReset(ctx context.Context, user *domain.User, resetToken string) error
}
