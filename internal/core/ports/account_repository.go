package ports

import (
	"context"
	"time"

	"github.com/thegoodfork/accounts/internal/core/domain"
)

// AccountRepository persists user accounts. Username and email are unique at
// the store level; Create reports a violation as domain.ErrUsernameTaken or
// domain.ErrEmailTaken.
type AccountRepository interface {
	Create(ctx context.Context, user *domain.User, passwordHash string) (*domain.User, error)

	// FindUser and FindByID return the public view.
	FindUser(ctx context.Context, id domain.Identifier) (*domain.User, error)
	FindByID(ctx context.Context, userID string) (*domain.User, error)

	// FindCredentials returns the credential view, including the password hash.
	FindCredentials(ctx context.Context, id domain.Identifier) (*domain.Credentials, error)

	SetPasswordReset(ctx context.Context, userID string, reset domain.PasswordReset) error
	ClearPasswordReset(ctx context.Context, userID string) error

	// ConsumePasswordReset atomically matches a user whose pending reset hash
	// equals tokenHash and has not expired at now, replaces the password hash
	// and clears the reset. It returns domain.ErrUserNotFound when nothing matches.
	ConsumePasswordReset(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (*domain.User, error)
}

// ProfileCache caches the public view served by the who-am-I lookup.
// Get returns (nil, nil) on a miss.
type ProfileCache interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Set(ctx context.Context, user *domain.User) error
	Invalidate(ctx context.Context, userID string) error
}
