package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/thegoodfork/accounts/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory account store. Create enforces uniqueness under the lock, the
// same guarantee the unique indexes give in Mongo.
// ---------------------------------------------------------------------------

type storedUser struct {
	user         domain.User
	passwordHash string
	reset        domain.PasswordReset
}

type stubAccountRepo struct {
	mu      sync.Mutex
	seq     int
	users   map[string]*storedUser
	findErr error
	setErr  error
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{users: make(map[string]*storedUser)}
}

func (r *stubAccountRepo) Create(_ context.Context, user *domain.User, passwordHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, su := range r.users {
		if su.user.Username == user.Username {
			return nil, domain.ErrUsernameTaken
		}
		if su.user.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	r.seq++
	created := *user
	created.ID = "u" + strconv.Itoa(r.seq)
	r.users[created.ID] = &storedUser{user: created, passwordHash: passwordHash}
	return &created, nil
}

func (r *stubAccountRepo) lookup(id domain.Identifier) *storedUser {
	for _, su := range r.users {
		if id.Field == domain.FieldEmail && su.user.Email == id.Value {
			return su
		}
		if id.Field == domain.FieldUsername && su.user.Username == id.Value {
			return su
		}
	}
	return nil
}

func (r *stubAccountRepo) FindUser(_ context.Context, id domain.Identifier) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	su := r.lookup(id)
	if su == nil {
		return nil, domain.ErrUserNotFound
	}
	u := su.user
	return &u, nil
}

func (r *stubAccountRepo) FindByID(_ context.Context, userID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	su, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := su.user
	return &u, nil
}

func (r *stubAccountRepo) FindCredentials(_ context.Context, id domain.Identifier) (*domain.Credentials, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	su := r.lookup(id)
	if su == nil {
		return nil, domain.ErrUserNotFound
	}
	return &domain.Credentials{User: su.user, PasswordHash: su.passwordHash}, nil
}

func (r *stubAccountRepo) SetPasswordReset(_ context.Context, userID string, reset domain.PasswordReset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setErr != nil {
		return r.setErr
	}
	su, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	su.reset = reset
	return nil
}

func (r *stubAccountRepo) ClearPasswordReset(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	su, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	su.reset = domain.PasswordReset{}
	return nil
}

func (r *stubAccountRepo) ConsumePasswordReset(_ context.Context, tokenHash string, now time.Time, passwordHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, su := range r.users {
		if su.reset.TokenHash == tokenHash && su.reset.Active(now) {
			su.passwordHash = passwordHash
			su.reset = domain.PasswordReset{}
			u := su.user
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAccountRepo) resetOf(userID string) domain.PasswordReset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[userID].reset
}

// ---------------------------------------------------------------------------
// Notifier that captures the mailed token.
// ---------------------------------------------------------------------------

type captureNotifier struct {
	err    error
	to     []string
	tokens []string
}

func (n *captureNotifier) SendPasswordReset(_ context.Context, user *domain.User, token string) error {
	if n.err != nil {
		return n.err
	}
	n.to = append(n.to, user.Email)
	n.tokens = append(n.tokens, token)
	return nil
}

func (n *captureNotifier) last() string {
	if len(n.tokens) == 0 {
		return ""
	}
	return n.tokens[len(n.tokens)-1]
}

// ---------------------------------------------------------------------------
// Map-backed profile cache.
// ---------------------------------------------------------------------------

type stubCache struct {
	users       map[string]domain.User
	getErr      error
	invalidated []string
}

func newStubCache() *stubCache {
	return &stubCache{users: make(map[string]domain.User)}
}

func (c *stubCache) Get(_ context.Context, userID string) (*domain.User, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	u, ok := c.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (c *stubCache) Set(_ context.Context, user *domain.User) error {
	c.users[user.ID] = *user
	return nil
}

func (c *stubCache) Invalidate(_ context.Context, userID string) error {
	delete(c.users, userID)
	c.invalidated = append(c.invalidated, userID)
	return nil
}

var errBoom = errors.New("boom")
