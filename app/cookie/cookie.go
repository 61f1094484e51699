// Package cookie stores access and refresh tokens in signed HTTP cookies.
package cookie

import (
	"net/http"
	"time"

	"github.com/vibast-solutions/ms-go-taskboard-auth/config"

	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus"
)

const (
	AccessTokenName  = "accessToken"
	RefreshTokenName = "refreshToken"
)

// Jar encodes token cookies with a securecookie codec. The codec's own
// timestamp check is bounded by the longest token TTL; token expiry itself is
// enforced by the token verifier.
type Jar struct {
	codec      *securecookie.SecureCookie
	secure     bool
	domain     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewJar(cfg config.CookieConfig, accessTTL, refreshTTL time.Duration) *Jar {
	hashKey := []byte(cfg.HashKey)
	if len(hashKey) == 0 {
		logrus.Warn("COOKIE_HASH_KEY is empty, using a random key; cookies will not survive a restart")
		hashKey = securecookie.GenerateRandomKey(64)
	}

	var blockKey []byte
	if cfg.BlockKey != "" {
		blockKey = []byte(cfg.BlockKey)
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(refreshTTL.Seconds()))

	return &Jar{
		codec:      codec,
		secure:     cfg.Secure,
		domain:     cfg.Domain,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// SetTokens writes the access cookie and, when refreshToken is not empty, the
// refresh cookie.
func (j *Jar) SetTokens(w http.ResponseWriter, accessToken, refreshToken string) error {
	if err := j.set(w, AccessTokenName, accessToken, j.accessTTL); err != nil {
		return err
	}
	if refreshToken == "" {
		return nil
	}
	return j.set(w, RefreshTokenName, refreshToken, j.refreshTTL)
}

func (j *Jar) Clear(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenName, RefreshTokenName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   j.domain,
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   j.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// AccessToken returns the decoded access token, or "" when the cookie is
// absent or fails its signature check.
func (j *Jar) AccessToken(r *http.Request) string {
	return j.read(r, AccessTokenName)
}

func (j *Jar) RefreshToken(r *http.Request) string {
	return j.read(r, RefreshTokenName)
}

func (j *Jar) set(w http.ResponseWriter, name, value string, ttl time.Duration) error {
	encoded, err := j.codec.Encode(name, value)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    encoded,
		Path:     "/",
		Domain:   j.domain,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (j *Jar) read(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return ""
	}

	var value string
	if err := j.codec.Decode(name, c.Value, &value); err != nil {
		logrus.WithError(err).WithField("cookie", name).Debug("rejected token cookie")
		return ""
	}
	return value
}
