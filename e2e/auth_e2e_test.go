//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"testing"
	"time"
)

const defaultHTTPBase = "http://localhost:8080"

type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient(t *testing.T) *httpClient {
	t.Helper()

	base := os.Getenv("TASKBOARD_AUTH_URL")
	if base == "" {
		base = defaultHTTPBase
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &httpClient{
		baseURL: base,
		client:  &http.Client{Timeout: 10 * time.Second, Jar: jar},
	}
}

func (c *httpClient) do(t *testing.T, method, path, bearer string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal failed: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}
	return resp, data
}

func waitForHTTP(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/healthz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("http service not ready at %s", baseURL)
}

func expectStatus(t *testing.T, step string, resp *http.Response, body []byte, status int) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("%s: expected %d, got %d: %s", step, status, resp.StatusCode, string(body))
	}
}

func TestAuthE2E_HTTPFlow(t *testing.T) {
	c := newHTTPClient(t)
	if err := waitForHTTP(c.baseURL, 30*time.Second); err != nil {
		t.Fatalf("http not ready: %v", err)
	}

	suffix := time.Now().UnixNano() % 1_000_000_000
	email := fmt.Sprintf("e2e-%d@example.com", suffix)
	username := fmt.Sprintf("e2e%d", suffix)

	resp, body := c.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": email, "username": username, "password": "Secr3t!", "full_name": "E2E User",
	})
	// 502 means the account exists but the mail relay refused the message.
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("register: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	resp, body = c.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": email, "username": username, "password": "Secr3t!", "full_name": "E2E User",
	})
	expectStatus(t, "duplicate register", resp, body, http.StatusConflict)

	resp, body = c.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": "Wr0ng!!"})
	expectStatus(t, "login with wrong password", resp, body, http.StatusUnauthorized)

	resp, body = c.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": "Secr3t!"})
	expectStatus(t, "login", resp, body, http.StatusOK)

	var login struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(body, &login); err != nil || login.AccessToken == "" || login.RefreshToken == "" {
		t.Fatalf("login: unexpected body %s (%v)", string(body), err)
	}

	resp, body = c.do(t, http.MethodGet, "/api/v1/auth/me", login.AccessToken, nil)
	expectStatus(t, "me", resp, body, http.StatusOK)

	resp, body = c.do(t, http.MethodPost, "/api/v1/auth/refresh-access-token", login.RefreshToken, nil)
	expectStatus(t, "refresh", resp, body, http.StatusOK)

	resp, body = c.do(t, http.MethodGet, "/api/v1/projects/999999999/access", login.AccessToken, nil)
	expectStatus(t, "project access without membership", resp, body, http.StatusForbidden)

	resp, body = c.do(t, http.MethodPost, "/api/v1/auth/forgot-password", "", map[string]string{"email": "nobody-" + email})
	expectStatus(t, "forgot password for unknown email", resp, body, http.StatusOK)

	resp, body = c.do(t, http.MethodPost, "/api/v1/auth/logout", login.AccessToken, nil)
	expectStatus(t, "logout", resp, body, http.StatusOK)

	resp, body = c.do(t, http.MethodPost, "/api/v1/auth/refresh-access-token", login.RefreshToken, nil)
	expectStatus(t, "refresh after logout", resp, body, http.StatusUnauthorized)
}
