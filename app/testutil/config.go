package testutil

import (
	"time"

	"github.com/vibast-solutions/ms-go-taskboard-auth/config"
)

// Config returns a configuration suitable for tests: the lowest bcrypt cost,
// distinct signing secrets and the default TTL policy.
func Config() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:    "Task Manager",
			BaseURL: "http://localhost:8080",
		},
		JWT: config.JWTConfig{
			AccessSecret:    "test-access-secret",
			RefreshSecret:   "test-refresh-secret",
			Issuer:          "taskboard-auth",
			AccessTokenTTL:  24 * time.Hour,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		Tokens: config.TokenConfig{
			SingleUseTTL: 15 * time.Minute,
		},
		Password: config.PasswordConfig{
			BcryptCost: 4,
			Policy: config.PasswordPolicy{
				MinLength:        6,
				RequireUppercase: true,
				RequireLowercase: true,
				RequireNumber:    true,
				RequireSpecial:   true,
			},
		},
		Cookie: config.CookieConfig{
			HashKey: "test-cookie-hash-key-0123456789ab",
			Secure:  true,
		},
	}
}
