package auth

import (
	"slices"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwt"
)

// Claims wraps a verified identity token
type Claims struct {
	Token jwt.Token
}

func (c *Claims) Subject() string {
	sub, _ := c.Token.Subject()
	return sub
}

func (c *Claims) Audience() []string {
	aud, _ := c.Token.Audience()
	return aud
}

func (c *Claims) Issuer() string {
	iss, _ := c.Token.Issuer()
	return iss
}

func (c *Claims) Expiration() time.Time {
	exp, _ := c.Token.Expiration()
	return exp
}

// Email returns the optional email claim
func (c *Claims) Email() string {
	var email string
	if err := c.Token.Get("email", &email); err != nil {
		return ""
	}
	return email
}

// Validate checks expiry, issuer and audience at now. Empty issuer or audience are not checked.
func (c *Claims) Validate(issuer string, expectedAudience []string, now time.Time) error {
	exp := c.Expiration()
	if exp.IsZero() || !now.Before(exp) {
		return ErrTokenExpired
	}

	if issuer != "" && c.Issuer() != issuer {
		return ErrIssuerMismatch
	}

	if len(expectedAudience) > 0 {
		aud := c.Audience()
		if !slices.ContainsFunc(expectedAudience, func(a string) bool { return slices.Contains(aud, a) }) {
			return ErrAudienceMismatch
		}
	}

	if c.Subject() == "" {
		return ErrMissingSubject
	}
	return nil
}

// Identity is the authenticated caller, if any
type Identity struct {
	UserID string
	Email  string
}
