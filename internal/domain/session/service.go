package session

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	// CookieName is the cookie carrying the anonymous comment session
	CookieName = "comment_session"
	// DefaultTTL is the cookie lifetime, independent of any deletion window
	DefaultTTL = 24 * time.Hour
)

// Provider issues and reads the per-browser session identity
type Provider interface {
	// GetOrCreate returns the session from the request cookie, issuing a new cookie when absent
	GetOrCreate(c *fiber.Ctx) (ID, error)
	// Current returns the session from the request cookie without issuing one
	Current(c *fiber.Ctx) (ID, bool)
}

type provider struct {
	ttl    time.Duration
	secure bool
	newID  func() (ID, error)
}

// NewProvider creates a cookie-backed Provider. Secure cookies should be enabled in production.
func NewProvider(ttl time.Duration, secure bool) Provider {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &provider{ttl: ttl, secure: secure, newID: NewID}
}

// Current returns the session from the request cookie without issuing one
func (p *provider) Current(c *fiber.Ctx) (ID, bool) {
	raw := c.Cookies(CookieName)
	if raw == "" {
		return "", false
	}
	id, err := ParseID(raw)
	if err != nil {
		return "", false
	}
	return id, true
}

// GetOrCreate returns the existing session or sets a new cookie on the response.
// Within one request the issued id is remembered so repeated calls agree.
func (p *provider) GetOrCreate(c *fiber.Ctx) (ID, error) {
	if id, ok := c.Locals(localsKey).(ID); ok && !id.IsZero() {
		return id, nil
	}

	if id, ok := p.Current(c); ok {
		c.Locals(localsKey, id)
		return id, nil
	}

	id, err := p.newID()
	if err != nil {
		return "", err
	}
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    id.String(),
		Path:     "/",
		MaxAge:   int(p.ttl.Seconds()),
		Expires:  time.Now().Add(p.ttl),
		Secure:   p.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Locals(localsKey, id)

	return id, nil
}

const localsKey = "comment_session_id"
