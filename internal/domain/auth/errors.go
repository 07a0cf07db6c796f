package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKey is returned when the active key id is not in the key set
	ErrUnknownKey = errors.New("unknown signing key")

	// ErrTokenExpired is returned for tokens past their exp claim or without one
	ErrTokenExpired = errors.New("token expired")

	// ErrIssuerMismatch is returned when the iss claim is not the configured issuer
	ErrIssuerMismatch = errors.New("token issuer mismatch")

	// ErrAudienceMismatch is returned when no aud entry matches the configured audience
	ErrAudienceMismatch = errors.New("token audience mismatch")

	// ErrMissingSubject is returned for tokens without a sub claim
	ErrMissingSubject = errors.New("token missing subject")
)

// KeyFileError reports a key file that could not be read or parsed
type KeyFileError struct {
	FileName string
	Reason   string
	Err      error
}

func (e *KeyFileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.FileName, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.FileName, e.Reason)
}

func (e *KeyFileError) Unwrap() error {
	return e.Err
}

// KeysDirectoryError reports an unusable keys directory
type KeysDirectoryError struct {
	Path string
	Err  error
}

func (e *KeysDirectoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("keys directory %s is not accessible: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("keys path %s is not a directory", e.Path)
}

func (e *KeysDirectoryError) Unwrap() error {
	return e.Err
}
