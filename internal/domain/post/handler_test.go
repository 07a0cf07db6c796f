package post

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Anvoria/blogly/internal/domain/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Details string `json:"details"`
	} `json:"error"`
}

func newTestApp(svc Service) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.IdentityKey, &auth.Identity{UserID: "editor-1"})
		return c.Next()
	})

	h := NewHandler(svc)
	app.Get("/api/posts", h.ListPosts)
	app.Get("/api/posts/:slug", h.GetPost)
	app.Get("/api/admin/posts", h.AdminListPosts)
	app.Post("/api/admin/posts", h.CreatePost)
	app.Put("/api/admin/posts/:id", h.UpdatePost)
	app.Delete("/api/admin/posts/:id", h.DeletePost)
	return app
}

func call(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, envelope) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func TestHandler_PostLifecycle(t *testing.T) {
	svc := newTestService(t)
	app := newTestApp(svc)

	resp, env := call(t, app, "POST", "/api/admin/posts",
		`{"slug":"launch","title":"Launch","content":"We are live","tags":["News"],"status":"published"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		Post Post `json:"post"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "editor-1", created.Post.AuthorID)
	assert.NotNil(t, created.Post.PublishedAt)
	id := created.Post.ID.String()

	resp, _ = call(t, app, "POST", "/api/admin/posts", `{"slug":"launch","title":"Again"}`)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, env = call(t, app, "GET", "/api/posts?q=live", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list struct {
		Posts []Summary `json:"posts"`
		Total int64     `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, []string{"news"}, list.Posts[0].Tags)

	resp, env = call(t, app, "GET", "/api/posts/launch?locale=pl", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var detail struct {
		Post         Post     `json:"post"`
		Translations []string `json:"translations"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "en", detail.Post.Locale)
	assert.Equal(t, []string{"en"}, detail.Translations)

	resp, _ = call(t, app, "PUT", "/api/admin/posts/"+id, `{"status":"draft"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = call(t, app, "GET", "/api/posts/launch", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, "drafts are hidden")

	resp, env = call(t, app, "GET", "/api/admin/posts?status=draft", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, int64(1), list.Total)

	resp, _ = call(t, app, "DELETE", "/api/admin/posts/"+id, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = call(t, app, "DELETE", "/api/admin/posts/"+id, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandler_Validation(t *testing.T) {
	app := newTestApp(newTestService(t))

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		status  int
		details string
	}{
		{name: "bad slug", method: "POST", path: "/api/admin/posts", body: `{"slug":"Bad Slug","title":"x"}`, status: fiber.StatusBadRequest, details: ErrInvalidSlug.Error()},
		{name: "unknown locale", method: "POST", path: "/api/admin/posts", body: `{"slug":"x","locale":"fr","title":"x"}`, status: fiber.StatusBadRequest, details: ErrUnsupportedLocale.Error()},
		{name: "invalid body", method: "POST", path: "/api/admin/posts", body: `{`, status: fiber.StatusBadRequest},
		{name: "bad id", method: "PUT", path: "/api/admin/posts/abc", body: `{}`, status: fiber.StatusBadRequest},
		{name: "missing post", method: "PUT", path: "/api/admin/posts/" + uuid.NewString(), body: `{"title":"x"}`, status: fiber.StatusNotFound},
		{name: "bad status filter", method: "GET", path: "/api/admin/posts?status=archived", status: fiber.StatusBadRequest},
		{name: "unknown public locale", method: "GET", path: "/api/posts?locale=xx", status: fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := call(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			require.NotNil(t, env.Error)
			if tt.details != "" {
				assert.Equal(t, tt.details, env.Error.Details)
			}
		})
	}
}
