package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/thegoodfork/accounts/internal/core/domain"
	"github.com/thegoodfork/accounts/internal/core/ports"
)

// AccountService implements ports.AccountService.
type AccountService struct {
	repo     ports.AccountRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenService
	resets   *ResetTokenIssuer
	notifier ports.Notifier
	cache    ports.ProfileCache
	log      zerolog.Logger
}

// NewAccountService wires the account flows. cache may be nil.
func NewAccountService(
	repo ports.AccountRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenService,
	resets *ResetTokenIssuer,
	notifier ports.Notifier,
	cache ports.ProfileCache,
	log zerolog.Logger,
) *AccountService {
	if cache == nil {
		cache = noCache{}
	}
	return &AccountService{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		resets:   resets,
		notifier: notifier,
		cache:    cache,
		log:      log,
	}
}

// Register validates the form, checks uniqueness, creates the account and
// returns a session token. The pre-insert lookups only give early, specific
// messages; the store's unique indexes decide concurrent races.
func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (string, error) {
	if err := validateRegistration(in); err != nil {
		return "", err
	}

	if err := s.ensureAvailable(ctx, domain.Identifier{Field: domain.FieldUsername, Value: in.Username}); err != nil {
		return "", s.registrationError(in, err)
	}
	if err := s.ensureAvailable(ctx, domain.Identifier{Field: domain.FieldEmail, Value: in.Email}); err != nil {
		return "", s.registrationError(in, err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return "", domain.Authentication(msgRegisterFailed, err)
	}

	user, err := s.repo.Create(ctx, &domain.User{
		Username:  in.Username,
		Email:     in.Email,
		Favorites: []string{},
	}, hash)
	if err != nil {
		return "", s.registrationError(in, err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", domain.Authentication(msgRegisterFailed, err)
	}

	s.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("account registered")
	return token, nil
}

func (s *AccountService) ensureAvailable(ctx context.Context, id domain.Identifier) error {
	_, err := s.repo.FindUser(ctx, id)
	switch {
	case err == nil && id.Field == domain.FieldUsername:
		return domain.ErrUsernameTaken
	case err == nil:
		return domain.ErrEmailTaken
	case errors.Is(err, domain.ErrUserNotFound):
		return nil
	default:
		return err
	}
}

func (s *AccountService) registrationError(in ports.RegisterInput, err error) error {
	switch {
	case errors.Is(err, domain.ErrUsernameTaken):
		return domain.Conflict(fmt.Sprintf(msgUsernameTakenFmt, in.Username), err)
	case errors.Is(err, domain.ErrEmailTaken):
		return domain.Conflict(fmt.Sprintf(msgEmailTakenFmt, in.Email), err)
	default:
		return domain.Authentication(msgRegisterFailed, err)
	}
}

// Login resolves login as an email or username and checks the password.
// Unknown accounts and wrong passwords are indistinguishable.
func (s *AccountService) Login(ctx context.Context, login, password string) (string, error) {
	if login == "" || password == "" {
		return "", domain.Validation(msgLoginMissingFields)
	}

	creds, err := s.repo.FindCredentials(ctx, domain.ParseIdentifier(login))
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return "", domain.Authentication(msgLoginFailed, err)
	}

	var hash string
	if creds != nil {
		hash = creds.PasswordHash
	}
	if !s.hasher.Verify(password, hash) || creds == nil {
		return "", domain.Authentication(msgInvalidCredentials, nil)
	}

	token, err := s.tokens.Issue(creds.ID)
	if err != nil {
		return "", domain.Authentication(msgLoginFailed, err)
	}
	return token, nil
}

// ForgotPassword issues a reset token and mails it. When delivery fails the
// pending reset is dropped before the error is returned.
func (s *AccountService) ForgotPassword(ctx context.Context, identifier string) error {
	if identifier == "" {
		return domain.Validation(msgForgotMissingIdentifier)
	}

	id := domain.ParseIdentifier(identifier)
	user, err := s.repo.FindUser(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			if id.IsEmail() {
				return domain.NotFound(msgEmailNotFound, err)
			}
			return domain.NotFound(msgUsernameNotFound, err)
		}
		return domain.Dependency(msgEmailNotSent, err)
	}

	token, err := s.resets.Issue(ctx, user)
	if err != nil {
		return domain.Dependency(msgEmailNotSent, err)
	}

	if err := s.notifier.SendPasswordReset(ctx, user, token); err != nil {
		if rbErr := s.resets.Invalidate(ctx, user.ID); rbErr != nil {
			s.log.Error().Err(rbErr).Str("user_id", user.ID).Msg("failed to roll back password reset")
			err = errors.Join(err, rbErr)
		}
		return domain.Dependency(msgEmailNotSent, err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset requested")
	return nil
}

// ResetPassword redeems resetToken and replaces the password.
func (s *AccountService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if newPassword == "" {
		return domain.Validation(msgResetMissingPassword)
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return domain.Authentication(msgResetFailed, err)
	}

	user, err := s.resets.Redeem(ctx, resetToken, hash)
	if err != nil {
		if errors.Is(err, ErrResetNotRedeemable) {
			return domain.Validation(msgResetTokenInvalid)
		}
		return domain.Authentication(msgResetFailed, err)
	}

	if err := s.cache.Invalidate(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("profile cache invalidation failed")
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset completed")
	return nil
}

// WhoAmI returns the public view for a verified session subject.
func (s *AccountService) WhoAmI(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.Authentication(MsgUserInfoFailed, domain.ErrInvalidToken)
	}

	cached, err := s.cache.Get(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("profile cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.NotFound(MsgUserInfoFailed, err)
		}
		return nil, domain.Authentication(MsgUserInfoFailed, err)
	}

	if err := s.cache.Set(ctx, user); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("profile cache write failed")
	}
	return user, nil
}

type noCache struct{}

func (noCache) Get(context.Context, string) (*domain.User, error) { return nil, nil }
func (noCache) Set(context.Context, *domain.User) error { return nil }
func (noCache) Invalidate(context.Context, string) error { return nil }
