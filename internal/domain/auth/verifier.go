package auth

import (
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// Verify checks the token signature against the public key set, matching on kid.
// Claim validation is left to Claims.Validate.
func (ks *KeyStore) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKeySet(ks.JWKS(), jws.WithInferAlgorithmFromKey(true)),
		jwt.WithValidate(false),
	)
	if err != nil {
		return nil, err
	}
	return &Claims{Token: token}, nil
}
