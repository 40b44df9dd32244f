package service

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/thegoodfork/accounts/internal/core/domain"
	"github.com/thegoodfork/accounts/internal/core/ports"
)

var validate = validator.New()

// validateRegistration applies the format rules in order. It never touches
// the store.
func validateRegistration(in ports.RegisterInput) error {
	if in.Username == "" || in.Email == "" || in.Password == "" || in.PasswordConfirmation == "" {
		return domain.Validation(msgRegisterMissingFields)
	}
	if strings.Contains(in.Username, "@") || strings.IndexFunc(in.Username, unicode.IsSpace) >= 0 {
		return domain.Validation(msgRegisterBadUsername)
	}
	if err := validate.Var(in.Email, "email"); err != nil {
		return domain.Validation(msgRegisterBadEmail)
	}
	if err := validatePassword(in.Password); err != nil {
		return err
	}
	if in.Password != in.PasswordConfirmation {
		return domain.Validation(msgPasswordMismatch)
	}
	return nil
}

func validatePassword(password string) error {
	if len([]rune(password)) < minPasswordLength {
		return domain.Validation(msgPasswordTooShort)
	}
	if len(password) > MaxPasswordBytes {
		return domain.Validation(msgPasswordTooLong)
	}
	return nil
}
