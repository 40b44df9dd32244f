package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, ":5000", cfg.Addr())
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWTExpire)
	assert.Equal(t, 15*time.Minute, cfg.Auth.ResetTokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "goodfork", cfg.Mongo.Database)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, "The Good Fork", cfg.Mail.FromName)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":   "s3cret",
		"PORT":         "8080",
		"JWT_EXPIRE":   "1h",
		"CORS_ORIGINS": "http://a.test,http://b.test",
		"REDIS_ADDR":   "localhost:6379",
		"BCRYPT_COST":  "12",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Hour, cfg.Auth.JWTExpire)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"blank secret", map[string]string{"JWT_SECRET": "   "}},
		{"bad duration", map[string]string{"JWT_SECRET": "x", "JWT_EXPIRE": "soon"}},
		{"negative ttl", map[string]string{"JWT_SECRET": "x", "RESET_TOKEN_TTL": "-1m"}},
		{"cost too low", map[string]string{"JWT_SECRET": "x", "BCRYPT_COST": "2"}},
		{"production without smtp", map[string]string{"JWT_SECRET": "x", "ENV": "production"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(context.Background(), envconfig.MapLookuper(tc.env))
			assert.Error(t, err)
		})
	}
}
