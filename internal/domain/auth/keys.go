package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// KeyStore holds the keys used to verify identity tokens and, when private keys
// are available, to sign development tokens.
type KeyStore struct {
	ActiveKid string
	KeySet    jwk.Set
	publicSet jwk.Set
}

// KeyID returns the JWK key id for a bare kid
func KeyID(kid string) string {
	if strings.HasPrefix(kid, "key-") {
		return kid
	}
	return "key-" + kid
}

// LoadKeys reads private-<kid>.pem / public-<kid>.pem RSA pairs from path
func LoadKeys(path, activeKid string) (*KeyStore, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &KeysDirectoryError{Path: path, Err: err}
	}
	if !info.IsDir() {
		return nil, &KeysDirectoryError{Path: path}
	}

	files, err := os.ReadDir(path)
	if err != nil {
		return nil, &KeysDirectoryError{Path: path, Err: err}
	}

	keySet := jwk.NewSet()
	for _, file := range files {
		fileName := file.Name()
		if file.IsDir() || !strings.HasPrefix(fileName, "private-") || filepath.Ext(fileName) != ".pem" {
			continue
		}

		kid := strings.TrimSuffix(strings.TrimPrefix(fileName, "private-"), ".pem")
		if kid == "" {
			continue
		}

		priv, err := readPrivateKey(filepath.Join(path, fileName))
		if err != nil {
			return nil, err
		}

		pubFileName := fmt.Sprintf("public-%s.pem", kid)
		pub, err := readPublicKey(filepath.Join(path, pubFileName))
		if err != nil {
			return nil, err
		}
		if !priv.PublicKey.Equal(pub) {
			return nil, &KeyFileError{FileName: pubFileName, Reason: "does not match private key"}
		}

		jwkKey, err := jwk.Import(priv)
		if err != nil {
			return nil, fmt.Errorf("failed to convert private key to JWK: %w", err)
		}
		if err := jwkKey.Set(jwk.KeyIDKey, KeyID(kid)); err != nil {
			return nil, fmt.Errorf("failed to set key ID: %w", err)
		}
		if err := jwkKey.Set(jwk.AlgorithmKey, jwa.RS256()); err != nil {
			return nil, fmt.Errorf("failed to set algorithm: %w", err)
		}
		if err := keySet.AddKey(jwkKey); err != nil {
			return nil, fmt.Errorf("failed to add key to set: %w", err)
		}
	}

	publicSet, err := jwk.PublicSetOf(keySet)
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key set: %w", err)
	}

	return &KeyStore{ActiveKid: activeKid, KeySet: keySet, publicSet: publicSet}, nil
}

// FetchKeys downloads the identity provider's public JWKS. The result can verify but not sign.
func FetchKeys(ctx context.Context, jwksURL string) (*KeyStore, error) {
	set, err := jwk.Fetch(ctx, jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", jwksURL, err)
	}

	publicSet, err := jwk.PublicSetOf(set)
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key set: %w", err)
	}

	return &KeyStore{KeySet: publicSet, publicSet: publicSet}, nil
}

func readPrivateKey(path string) (*rsa.PrivateKey, error) {
	fileName := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &KeyFileError{FileName: fileName, Reason: "failed to read", Err: err}
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, &KeyFileError{FileName: fileName, Reason: "not PEM encoded"}
	}

	if priv, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return priv, nil
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, &KeyFileError{FileName: fileName, Reason: "failed to parse private key", Err: err}
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, &KeyFileError{FileName: fileName, Reason: "private key is not RSA"}
	}
	return priv, nil
}

func readPublicKey(path string) (*rsa.PublicKey, error) {
	fileName := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &KeyFileError{FileName: fileName, Reason: "failed to read", Err: err}
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, &KeyFileError{FileName: fileName, Reason: "not PEM encoded"}
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, &KeyFileError{FileName: fileName, Reason: "failed to parse public key", Err: err}
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, &KeyFileError{FileName: fileName, Reason: "public key is not RSA"}
	}
	return pub, nil
}

// GetActiveKey returns the signing key named by ActiveKid
func (ks *KeyStore) GetActiveKey() (jwk.Key, error) {
	if ks.ActiveKid == "" {
		return nil, ErrUnknownKey
	}
	key, ok := ks.KeySet.LookupKeyID(KeyID(ks.ActiveKid))
	if !ok {
		return nil, ErrUnknownKey
	}
	return key, nil
}

// JWKS returns the public half of every key
func (ks *KeyStore) JWKS() jwk.Set {
	if ks.publicSet == nil {
		return jwk.NewSet()
	}
	return ks.publicSet
}
