package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	admins map[string]bool
	err    error
}

func (s stubChecker) IsAdmin(_ context.Context, userID string) (bool, error) {
	return s.admins[userID], s.err
}

func newIdentityApp(ks *KeyStore) *fiber.App {
	app := fiber.New()
	app.Use(Middleware(ks, "https://id.example.com", []string{"blogly"}))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		if id := GetIdentity(c); id != nil {
			return c.SendString(id.UserID)
		}
		return c.SendString("anonymous")
	})
	return app
}

func whoami(t *testing.T, app *fiber.App, header string) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	buf := make([]byte, 128)
	n, _ := resp.Body.Read(buf)
	return string(buf[:n])
}

func TestMiddleware(t *testing.T) {
	ks := newTestKeyStore(t)
	app := newIdentityApp(ks)

	valid, err := ks.IssueToken("user-1", "", "https://id.example.com", []string{"blogly"}, time.Hour)
	require.NoError(t, err)
	expired, err := ks.IssueToken("user-1", "", "https://id.example.com", []string{"blogly"}, -time.Minute)
	require.NoError(t, err)
	wrongAudience, err := ks.IssueToken("user-1", "", "https://id.example.com", []string{"other"}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "no header", header: "", want: "anonymous"},
		{name: "valid bearer", header: "Bearer " + valid, want: "user-1"},
		{name: "lowercase scheme", header: "bearer " + valid, want: "user-1"},
		{name: "wrong scheme", header: "Basic " + valid, want: "anonymous"},
		{name: "empty token", header: "Bearer ", want: "anonymous"},
		{name: "garbage", header: "Bearer abc.def.ghi", want: "anonymous"},
		{name: "expired", header: "Bearer " + expired, want: "anonymous"},
		{name: "wrong audience", header: "Bearer " + wrongAudience, want: "anonymous"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, whoami(t, app, tt.header))
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	ks := newTestKeyStore(t)

	newApp := func(checker stubChecker) *fiber.App {
		app := fiber.New()
		app.Use(Middleware(ks, "", nil))
		app.Get("/admin", RequireAdmin(checker), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusNoContent)
		})
		return app
	}

	adminToken, err := ks.IssueToken("admin-1", "", "", nil, time.Hour)
	require.NoError(t, err)
	userToken, err := ks.IssueToken("user-1", "", "", nil, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		checker stubChecker
		status  int
	}{
		{name: "anonymous", status: fiber.StatusUnauthorized},
		{name: "admin", token: adminToken, checker: stubChecker{admins: map[string]bool{"admin-1": true}}, status: fiber.StatusNoContent},
		{name: "not admin", token: userToken, checker: stubChecker{admins: map[string]bool{"admin-1": true}}, status: fiber.StatusForbidden},
		{name: "registry failure", token: adminToken, checker: stubChecker{err: errors.New("db down")}, status: fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			resp, err := newApp(tt.checker).Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
