package ports

import (
	"context"

	"github.com/thegoodfork/accounts/internal/core/domain"
)

// RegisterInput is the raw registration form.
type RegisterInput struct {
	Username             string
	Email                string
	Password             string
	PasswordConfirmation string
}

// AccountService orchestrates the account flows. Every error it returns is a
// *domain.Error.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (string, error)
	Login(ctx context.Context, login, password string) (string, error)
	ForgotPassword(ctx context.Context, identifier string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	WhoAmI(ctx context.Context, userID string) (*domain.User, error)
}
