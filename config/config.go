package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	MySQL    MySQLConfig
	JWT      JWTConfig
	Tokens   TokenConfig
	Password PasswordConfig
	Cookie   CookieConfig
	SMTP     SMTPConfig
	Log      LogConfig
}

type AppConfig struct {
	Name    string `env:"APP_NAME" envDefault:"Task Manager"`
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
}

type HTTPConfig struct {
	Host           string   `env:"HTTP_HOST" envDefault:""`
	Port           string   `env:"HTTP_PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
}

type MySQLConfig struct {
	DSN string `env:"MYSQL_DSN,notEmpty"`
}

// JWTConfig is the token policy. Access and refresh tokens are signed with
// separate secrets so a leak of one cannot mint the other. When
// RotateRefreshToken is false a refresh token stays valid until the next
// login, logout or password change; when true every refresh call replaces it.
type JWTConfig struct {
	AccessSecret       string        `env:"JWT_ACCESS_SECRET,notEmpty"`
	RefreshSecret      string        `env:"JWT_REFRESH_SECRET,notEmpty"`
	Issuer             string        `env:"JWT_ISSUER" envDefault:"taskboard-auth"`
	AccessTokenTTL     time.Duration `env:"JWT_ACCESS_TOKEN_TTL" envDefault:"24h"`
	RefreshTokenTTL    time.Duration `env:"JWT_REFRESH_TOKEN_TTL" envDefault:"168h"`
	RotateRefreshToken bool          `env:"JWT_ROTATE_REFRESH_TOKEN" envDefault:"false"`
}

type TokenConfig struct {
	SingleUseTTL time.Duration `env:"SINGLE_USE_TOKEN_TTL" envDefault:"15m"`
}

type PasswordConfig struct {
	BcryptCost int `env:"PASSWORD_BCRYPT_COST" envDefault:"10"`
	Policy     PasswordPolicy
}

type PasswordPolicy struct {
	MinLength        int  `env:"PASSWORD_MIN_LENGTH" envDefault:"6"`
	RequireUppercase bool `env:"PASSWORD_REQUIRE_UPPERCASE" envDefault:"true"`
	RequireLowercase bool `env:"PASSWORD_REQUIRE_LOWERCASE" envDefault:"true"`
	RequireNumber    bool `env:"PASSWORD_REQUIRE_NUMBER" envDefault:"true"`
	RequireSpecial   bool `env:"PASSWORD_REQUIRE_SPECIAL" envDefault:"true"`
}

type CookieConfig struct {
	HashKey  string `env:"COOKIE_HASH_KEY"`
	BlockKey string `env:"COOKIE_BLOCK_KEY"`
	Secure   bool   `env:"COOKIE_SECURE" envDefault:"true"`
	Domain   string `env:"COOKIE_DOMAIN"`
}

// SMTPConfig configures outbound mail. An empty Host selects the log-only
// sender.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM" envDefault:"no-reply@taskmanager.com"`
	FromName string `env:"SMTP_FROM_NAME"`
	TLS      bool   `env:"SMTP_TLS" envDefault:"true"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// MaxPasswordBytes is the bcrypt input limit. Longer inputs are rejected
// rather than truncated.
const MaxPasswordBytes = 72

func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes long", MaxPasswordBytes)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasNumber = true
		case unicode.IsPunct(ch) || unicode.IsSymbol(ch):
			hasSpecial = true
		}
	}

	var missing []string
	if p.RequireUppercase && !hasUpper {
		missing = append(missing, "uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		missing = append(missing, "lowercase letter")
	}
	if p.RequireNumber && !hasNumber {
		missing = append(missing, "number")
	}
	if p.RequireSpecial && !hasSpecial {
		missing = append(missing, "special character")
	}

	if len(missing) > 0 {
		return fmt.Errorf("password must contain at least one: %s", strings.Join(missing, ", "))
	}

	return nil
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) DSN() string {
	return c.MySQL.DSN
}

func (c *Config) validate() error {
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.JWT.AccessTokenTTL <= 0 || c.JWT.RefreshTokenTTL <= 0 || c.Tokens.SingleUseTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.JWT.RefreshTokenTTL < c.JWT.AccessTokenTTL {
		return errors.New("JWT_REFRESH_TOKEN_TTL must not be shorter than JWT_ACCESS_TOKEN_TTL")
	}
	return nil
}
