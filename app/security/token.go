package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type TokenClass string

const (
	AccessToken  TokenClass = "access"
	RefreshToken TokenClass = "refresh"
)

type Claims struct {
	UserID   uint64     `json:"uid"`
	Email    string     `json:"email,omitempty"`
	Username string     `json:"username,omitempty"`
	Class    TokenClass `json:"typ"`
	jwt.RegisteredClaims
}

type TokenForgeConfig struct {
	AccessSecret    string
	RefreshSecret   string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// TokenForge signs and verifies access and refresh JWTs. Each class has its
// own HMAC secret and a typ claim; a token of one class never verifies as the
// other.
type TokenForge struct {
	cfg   TokenForgeConfig
	clock Clock
}

func NewTokenForge(cfg TokenForgeConfig, clock Clock) *TokenForge {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TokenForge{cfg: cfg, clock: clock}
}

func (f *TokenForge) AccessTTL() time.Duration {
	return f.cfg.AccessTokenTTL
}

func (f *TokenForge) RefreshTTL() time.Duration {
	return f.cfg.RefreshTokenTTL
}

func (f *TokenForge) IssueAccess(userID uint64, email, username string) (string, error) {
	return f.sign(AccessToken, &Claims{
		UserID:   userID,
		Email:    email,
		Username: username,
	})
}

func (f *TokenForge) IssueRefresh(userID uint64) (string, error) {
	return f.sign(RefreshToken, &Claims{UserID: userID})
}

// Verify checks signature, issuer, expiry and class. Every failure collapses
// into ErrInvalidToken; the underlying reason is only logged.
func (f *TokenForge) Verify(tokenString string, class TokenClass) (*Claims, error) {
	secret, err := f.secret(class)
	if err != nil {
		return nil, err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(f.cfg.Issuer),
		jwt.WithTimeFunc(f.clock.Now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		entry := logrus.WithField("token_class", class)
		if errors.Is(err, jwt.ErrTokenExpired) {
			entry.Debug("Token rejected: expired")
		} else {
			entry.WithError(err).Debug("Token rejected: malformed or bad signature")
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.Class != class || claims.UserID == 0 {
		logrus.WithField("token_class", class).Debug("Token rejected: unexpected claims")
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (f *TokenForge) sign(class TokenClass, claims *Claims) (string, error) {
	secret, err := f.secret(class)
	if err != nil {
		return "", err
	}

	ttl := f.cfg.AccessTokenTTL
	if class == RefreshToken {
		ttl = f.cfg.RefreshTokenTTL
	}

	now := f.clock.Now()
	claims.Class = class
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    f.cfg.Issuer,
		Subject:   fmt.Sprintf("%d", claims.UserID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (f *TokenForge) secret(class TokenClass) ([]byte, error) {
	switch class {
	case AccessToken:
		return []byte(f.cfg.AccessSecret), nil
	case RefreshToken:
		return []byte(f.cfg.RefreshSecret), nil
	default:
		return nil, fmt.Errorf("unknown token class %q", class)
	}
}
