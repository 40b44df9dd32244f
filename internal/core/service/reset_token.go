package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"time"

	"github.com/samber/oops"

	"github.com/thegoodfork/accounts/internal/core/domain"
	"github.com/thegoodfork/accounts/internal/core/ports"
)

const (
	ResetTokenBytes      = 20
	DefaultResetTokenTTL = 15 * time.Minute
)

// ErrResetNotRedeemable is returned for a wrong, expired or already used token.
var ErrResetNotRedeemable = errors.New("reset token not redeemable")

// ResetTokenIssuer owns the lifecycle of password-reset tokens. Only the
// SHA-256 of a token is ever persisted.
type ResetTokenIssuer struct {
	repo    ports.AccountRepository
	ttl     time.Duration
	now     func() time.Time
	entropy io.Reader
}

func NewResetTokenIssuer(repo ports.AccountRepository, ttl time.Duration) *ResetTokenIssuer {
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	return &ResetTokenIssuer{repo: repo, ttl: ttl, now: time.Now, entropy: rand.Reader}
}

// Issue stores a fresh reset on user and returns the plaintext token.
func (i *ResetTokenIssuer) Issue(ctx context.Context, user *domain.User) (string, error) {
	raw := make([]byte, ResetTokenBytes)
	if _, err := io.ReadFull(i.entropy, raw); err != nil {
		return "", oops.Code("RESET_TOKEN_GENERATE_FAILED").Wrap(err)
	}
	token := hex.EncodeToString(raw)

	reset := domain.PasswordReset{
		TokenHash: HashResetToken(token),
		ExpiresAt: i.now().Add(i.ttl).UTC(),
	}
	if err := i.repo.SetPasswordReset(ctx, user.ID, reset); err != nil {
		return "", oops.Code("RESET_TOKEN_STORE_FAILED").With("user_id", user.ID).Wrap(err)
	}
	return token, nil
}

// Redeem consumes token and installs passwordHash in the same store write.
// A second redemption of the same token fails with ErrResetNotRedeemable.
func (i *ResetTokenIssuer) Redeem(ctx context.Context, token, passwordHash string) (*domain.User, error) {
	if token == "" {
		return nil, ErrResetNotRedeemable
	}
	user, err := i.repo.ConsumePasswordReset(ctx, HashResetToken(token), i.now().UTC(), passwordHash)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, ErrResetNotRedeemable
		}
		return nil, err
	}
	return user, nil
}

// Invalidate drops any pending reset for userID.
func (i *ResetTokenIssuer) Invalidate(ctx context.Context, userID string) error {
	return i.repo.ClearPasswordReset(ctx, userID)
}

// HashResetToken is the storage form of a reset token (hex SHA-256).
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
