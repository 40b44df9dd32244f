package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/thegoodfork/accounts/internal/core/domain"
	"github.com/thegoodfork/accounts/internal/core/service"
)

type memUser struct {
	user  domain.User
	hash  string
	reset domain.PasswordReset
}

// memRepo is a map-backed ports.AccountRepository.
type memRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*memUser
}

func (r *memRepo) find(id domain.Identifier) *memUser {
	for _, u := range r.users {
		if (id.IsEmail() && u.user.Email == id.Value) || (!id.IsEmail() && u.user.Username == id.Value) {
			return u
		}
	}
	return nil
}

func (r *memRepo) Create(_ context.Context, user *domain.User, hash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.find(domain.Identifier{Field: domain.FieldUsername, Value: user.Username}) != nil {
		return nil, domain.ErrUsernameTaken
	}
	if r.find(domain.Identifier{Field: domain.FieldEmail, Value: user.Email}) != nil {
		return nil, domain.ErrEmailTaken
	}
	r.seq++
	u := *user
	u.ID = strconv.Itoa(r.seq)
	r.users[u.ID] = &memUser{user: u, hash: hash}
	return &u, nil
}

func (r *memRepo) FindUser(_ context.Context, id domain.Identifier) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.find(id); u != nil {
		cp := u.user
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *memRepo) FindByID(_ context.Context, userID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		cp := u.user
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *memRepo) FindCredentials(_ context.Context, id domain.Identifier) (*domain.Credentials, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.find(id); u != nil {
		return &domain.Credentials{User: u.user, PasswordHash: u.hash}, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *memRepo) SetPasswordReset(_ context.Context, userID string, reset domain.PasswordReset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.reset = reset
	return nil
}

func (r *memRepo) ClearPasswordReset(ctx context.Context, userID string) error {
	return r.SetPasswordReset(ctx, userID, domain.PasswordReset{})
}

func (r *memRepo) ConsumePasswordReset(_ context.Context, tokenHash string, now time.Time, hash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.reset.TokenHash == tokenHash && u.reset.Active(now) {
			u.hash = hash
			u.reset = domain.PasswordReset{}
			cp := u.user
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type mailbox struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *mailbox) SendPasswordReset(_ context.Context, user *domain.User, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[user.Email] = token
	return nil
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	mail    *mailbox
	tokens  *service.JWTService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo := &memRepo{users: make(map[string]*memUser)}
	mail := &mailbox{tokens: make(map[string]string)}
	hasher, err := service.NewBcryptHasher(4)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	tokens := service.NewJWTService("test-secret", time.Hour)
	svc := service.NewAccountService(repo, hasher, tokens,
		service.NewResetTokenIssuer(repo, 15*time.Minute), mail, nil, zerolog.Nop())

	e := NewRouter(Deps{
		Accounts:    svc,
		Tokens:      tokens,
		Log:         zerolog.Nop(),
		CORSOrigins: []string{"http://localhost:3000"},
	})
	return &testServer{t: t, handler: e, mail: mail, tokens: tokens}
}

func (s *testServer) do(method, path, body, bearer string) (int, map[string]any) {
	s.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var resp map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			s.t.Fatalf("invalid json from %s %s: %v", method, path, err)
		}
	}
	return rec.Code, resp
}

func register(username, email, password, passCheck string) string {
	b, _ := json.Marshal(map[string]string{
		"username": username, "email": email, "password": password, "passCheck": passCheck,
	})
	return string(b)
}

func login(id, password string) string {
	b, _ := json.Marshal(map[string]string{"login": id, "password": password})
	return string(b)
}

func TestRouter_Scenario(t *testing.T) {
	s := newTestServer(t)

	code, resp := s.do(http.MethodPost, "/api/v1/auth/register", register("alice", "a@x.com", "secret1", "secret1"), "")
	if code != http.StatusCreated || resp["success"] != true || resp["token"] == "" {
		t.Fatalf("register: %d %+v", code, resp)
	}

	code, resp = s.do(http.MethodPost, "/api/v1/auth/register", register("alice", "b@x.com", "secret1", "secret1"), "")
	if code != http.StatusConflict || resp["success"] != false {
		t.Fatalf("duplicate register: %d %+v", code, resp)
	}
	if resp["error"] != "Username 'alice' is already in use, please register with a different one." {
		t.Fatalf("unexpected message %v", resp["error"])
	}

	code, resp = s.do(http.MethodPost, "/api/v1/auth/login", login("alice", "secret1"), "")
	if code != http.StatusOK || resp["token"] == "" {
		t.Fatalf("login: %d %+v", code, resp)
	}

	code, resp = s.do(http.MethodPost, "/api/v1/auth/login", login("a@x.com", "wrong"), "")
	if code != http.StatusUnauthorized || resp["error"] != "Invalid credentials." {
		t.Fatalf("wrong password: %d %+v", code, resp)
	}
}

func TestRouter_ResetRoundTrip(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(http.MethodPost, "/api/v1/auth/register", register("bob", "bob@x.com", "oldpass", "oldpass"), "")
	if code != http.StatusCreated {
		t.Fatalf("register: %d", code)
	}

	code, resp := s.do(http.MethodPost, "/api/v1/auth/forgot", `{"forgot":"bob"}`, "")
	if code != http.StatusOK || resp["data"] != "Email sent successfully." {
		t.Fatalf("forgot: %d %+v", code, resp)
	}
	token := s.mail.tokens["bob@x.com"]
	if token == "" {
		t.Fatalf("no reset token was mailed")
	}

	code, resp = s.do(http.MethodPut, "/api/v1/auth/reset/"+token, `{"password":"newpass"}`, "")
	if code != http.StatusCreated || resp["data"] != "Password has been reset successfully." {
		t.Fatalf("reset: %d %+v", code, resp)
	}

	code, _ = s.do(http.MethodPut, "/api/v1/auth/reset/"+token, `{"password":"another"}`, "")
	if code != http.StatusBadRequest {
		t.Fatalf("second reset should fail with 400, got %d", code)
	}

	if code, _ = s.do(http.MethodPost, "/api/v1/auth/login", login("bob", "oldpass"), ""); code != http.StatusUnauthorized {
		t.Fatalf("old password should fail, got %d", code)
	}
	code, resp = s.do(http.MethodPost, "/api/v1/auth/login", login("bob@x.com", "newpass"), "")
	if code != http.StatusOK {
		t.Fatalf("new password should work, got %d", code)
	}
	session, _ := resp["token"].(string)

	code, resp = s.do(http.MethodGet, "/api/v1/auth/userinfo", "", session)
	if code != http.StatusOK {
		t.Fatalf("userinfo: %d %+v", code, resp)
	}
	user, _ := resp["user"].(map[string]any)
	if user["username"] != "bob" || user["email"] != "bob@x.com" {
		t.Fatalf("unexpected user %+v", user)
	}
	wantID, err := s.tokens.Verify(session)
	if err != nil || user["id"] != wantID {
		t.Fatalf("user id %v does not match token subject %q (%v)", user["id"], wantID, err)
	}
}

func TestRouter_ForgotUnknown(t *testing.T) {
	s := newTestServer(t)

	code, resp := s.do(http.MethodPost, "/api/v1/auth/forgot", `{"forgot":"ghost@x.com"}`, "")
	if code != http.StatusNotFound || resp["error"] != "Email address could not be found." {
		t.Fatalf("forgot email: %d %+v", code, resp)
	}
	code, resp = s.do(http.MethodPost, "/api/v1/auth/forgot", `{"forgot":"ghost"}`, "")
	if code != http.StatusNotFound || resp["error"] != "Username could not be found." {
		t.Fatalf("forgot username: %d %+v", code, resp)
	}
}

func TestRouter_UserInfoUnauthorized(t *testing.T) {
	s := newTestServer(t)
	want := "Could not get user info, please try again or sign out then in again."

	for _, bearer := range []string{"", "garbage"} {
		code, resp := s.do(http.MethodGet, "/api/v1/auth/userinfo", "", bearer)
		if code != http.StatusUnauthorized || resp["error"] != want {
			t.Fatalf("bearer %q: %d %+v", bearer, code, resp)
		}
	}

	orphan, err := s.tokens.Issue("999")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	code, resp := s.do(http.MethodGet, "/api/v1/auth/userinfo", "", orphan)
	if code != http.StatusNotFound || resp["error"] != want {
		t.Fatalf("deleted user: %d %+v", code, resp)
	}
}

func TestRouter_OpsRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != welcomeText {
		t.Fatalf("welcome: %d %q", rec.Code, rec.Body.String())
	}

	code, resp := s.do(http.MethodDelete, "/api/v1/auth/delete", "", "")
	if code != http.StatusNotImplemented || resp["error"] != "Account deletion is not supported." {
		t.Fatalf("delete: %d %+v", code, resp)
	}

	code, resp = s.do(http.MethodGet, "/api/v1/nope", "", "")
	if code != http.StatusNotFound || resp["success"] != false {
		t.Fatalf("unknown route: %d %+v", code, resp)
	}

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "accounts_requests_total") {
		t.Fatalf("metrics endpoint missing http metrics: %d", rec.Code)
	}
}

func TestRouter_CORS(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("credentials not allowed")
	}
}
