package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/thegoodfork/accounts/internal/core/domain"
)

// SessionClaims is the payload of a session token.
type SessionClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// JWTService issues HS256 session tokens with an embedded expiry.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTService(secret string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *JWTService) Issue(userID string) (string, error) {
	now := s.now()
	claims := SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify returns the user id asserted by token. Malformed, forged and expired
// tokens all yield domain.ErrInvalidToken.
func (s *JWTService) Verify(token string) (string, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return "", domain.ErrInvalidToken
	}
	if claims.UserID == "" || claims.UserID != claims.Subject {
		return "", domain.ErrInvalidToken
	}
	return claims.UserID, nil
}
