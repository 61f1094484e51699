package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-taskboard-auth/config"
)

func newTestJar() *Jar {
	return NewJar(config.CookieConfig{
		HashKey: "0123456789abcdef0123456789abcdef",
		Secure:  true,
		Domain:  "app.example",
	}, time.Hour, 24*time.Hour)
}

func requestWithCookies(cookies []*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestSetTokensRoundTrip(t *testing.T) {
	jar := newTestJar()
	rec := httptest.NewRecorder()

	if err := jar.SetTokens(rec, "access-jwt", "refresh-jwt"); err != nil {
		t.Fatalf("set tokens failed: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}
	for _, c := range cookies {
		if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
			t.Fatalf("unexpected cookie flags: %+v", c)
		}
		if c.Value == "access-jwt" || c.Value == "refresh-jwt" {
			t.Fatalf("expected encoded cookie value, got raw token")
		}
	}
	if cookies[0].MaxAge != int(time.Hour.Seconds()) {
		t.Fatalf("unexpected access cookie max age: %d", cookies[0].MaxAge)
	}

	req := requestWithCookies(cookies)
	if got := jar.AccessToken(req); got != "access-jwt" {
		t.Fatalf("expected access token, got %q", got)
	}
	if got := jar.RefreshToken(req); got != "refresh-jwt" {
		t.Fatalf("expected refresh token, got %q", got)
	}
}

func TestSetTokensWithoutRefresh(t *testing.T) {
	jar := newTestJar()
	rec := httptest.NewRecorder()

	if err := jar.SetTokens(rec, "access-jwt", ""); err != nil {
		t.Fatalf("set tokens failed: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != AccessTokenName {
		t.Fatalf("expected only the access cookie, got %+v", cookies)
	}
}

func TestReadRejectsTamperedCookie(t *testing.T) {
	jar := newTestJar()
	req := requestWithCookies([]*http.Cookie{{Name: AccessTokenName, Value: "access-jwt"}})

	if got := jar.AccessToken(req); got != "" {
		t.Fatalf("expected unsigned cookie to be rejected, got %q", got)
	}
}

func TestReadRejectsForeignKey(t *testing.T) {
	jar := newTestJar()
	rec := httptest.NewRecorder()
	if err := jar.SetTokens(rec, "access-jwt", ""); err != nil {
		t.Fatalf("set tokens failed: %v", err)
	}

	other := NewJar(config.CookieConfig{HashKey: "another-hash-key-another-hash-key"}, time.Hour, 24*time.Hour)
	if got := other.AccessToken(requestWithCookies(rec.Result().Cookies())); got != "" {
		t.Fatalf("expected cookie signed with another key to be rejected, got %q", got)
	}
}

func TestMissingCookie(t *testing.T) {
	jar := newTestJar()
	if got := jar.RefreshToken(httptest.NewRequest(http.MethodGet, "/", nil)); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}

func TestClear(t *testing.T) {
	jar := newTestJar()
	rec := httptest.NewRecorder()

	jar.Clear(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}
	for _, c := range cookies {
		if c.MaxAge >= 0 || c.Value != "" {
			t.Fatalf("expected expired cookie, got %+v", c)
		}
	}
}

func TestEncryptedCookies(t *testing.T) {
	jar := NewJar(config.CookieConfig{
		HashKey:  "0123456789abcdef0123456789abcdef",
		BlockKey: "0123456789abcdef",
	}, time.Hour, 24*time.Hour)
	rec := httptest.NewRecorder()

	if err := jar.SetTokens(rec, "access-jwt", "refresh-jwt"); err != nil {
		t.Fatalf("set tokens failed: %v", err)
	}
	if got := jar.AccessToken(requestWithCookies(rec.Result().Cookies())); got != "access-jwt" {
		t.Fatalf("expected access token, got %q", got)
	}
}
