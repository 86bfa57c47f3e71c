package auth

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	SignupURL  = "/api/v1/auth/signup"
	LoginURL   = "/api/v1/auth/login"
	RefreshURL = "/api/v1/auth/refresh"
	LogoutURL  = "/api/v1/auth/logout"
	MeURL      = "/api/v1/auth/me"
)

// Send request with optional json body, bearer token and cookies.
// Body is read fully and returned as string because most asserts want it
func send(t *testing.T, method string, url string, body string, opts ...func(*http.Request)) (*http.Response, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	return resp, string(raw)
}

func withBearer(token string) func(*http.Request) {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func withCookie(cookie *http.Cookie) func(*http.Request) {
	return func(req *http.Request) {
		req.AddCookie(cookie)
	}
}

func findRefreshCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "refresh_token" {
			return cookie
		}
	}

	t.Fatal("refresh_token cookie not found in response")
	return nil
}
