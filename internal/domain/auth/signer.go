package auth

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// Sign signs token with the active key. The key id ends up in the JWS header.
func (ks *KeyStore) Sign(token jwt.Token) (string, error) {
	key, err := ks.GetActiveKey()
	if err != nil {
		return "", err
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256(), key))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

// IssueToken builds and signs an identity token for userID, for local development and scripts
func (ks *KeyStore) IssueToken(userID, email, issuer string, audience []string, ttl time.Duration) (string, error) {
	now := time.Now()
	b := jwt.NewBuilder().
		Subject(userID).
		IssuedAt(now).
		Expiration(now.Add(ttl))
	if issuer != "" {
		b = b.Issuer(issuer)
	}
	if len(audience) > 0 {
		b = b.Audience(audience)
	}
	if email != "" {
		b = b.Claim("email", email)
	}

	token, err := b.Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}
	return ks.Sign(token)
}
