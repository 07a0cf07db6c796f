package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrKeyExists is returned when a key pair with the requested kid is already on disk
var ErrKeyExists = errors.New("key already exists")

// GenerateKeyPair writes a new RSA pair named kid into dir in the layout LoadKeys reads.
// Existing files are never overwritten.
func GenerateKeyPair(dir, kid string, bits int) error {
	if kid == "" {
		return errors.New("key ID is required")
	}
	if bits != 2048 && bits != 3072 && bits != 4096 {
		return fmt.Errorf("key size must be 2048, 3072, or 4096, got %d", bits)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return &KeysDirectoryError{Path: dir, Err: err}
	}

	privPath := filepath.Join(dir, fmt.Sprintf("private-%s.pem", kid))
	pubPath := filepath.Join(dir, fmt.Sprintf("public-%s.pem", kid))
	for _, p := range []string{privPath, pubPath} {
		if _, err := os.Stat(p); err == nil {
			return fmt.Errorf("%w: %s", ErrKeyExists, p)
		}
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return fmt.Errorf("failed to generate RSA key: %w", err)
	}

	privPEM := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	}
	if err := writePEM(privPath, privPEM, 0600); err != nil {
		return err
	}

	pubBytes, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to encode public key: %w", err)
	}
	if err := writePEM(pubPath, &pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes}, 0644); err != nil {
		_ = os.Remove(privPath)
		return err
	}

	return nil
}

func writePEM(path string, block *pem.Block, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return &KeyFileError{FileName: filepath.Base(path), Reason: "failed to create", Err: err}
	}
	if err := pem.Encode(f, block); err != nil {
		f.Close()
		return &KeyFileError{FileName: filepath.Base(path), Reason: "failed to write", Err: err}
	}
	return f.Close()
}
