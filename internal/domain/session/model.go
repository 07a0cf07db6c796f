package session

import (
	"errors"

	"github.com/google/uuid"
)

// ErrInvalidSessionID is returned when a session identifier is not a well-formed UUID
var ErrInvalidSessionID = errors.New("invalid session id")

// ID is the opaque per-browser identifier carried by the comment session cookie.
// The zero value means "no session".
type ID string

// NewID returns a fresh random session identifier
func NewID() (ID, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return ID(u.String()), nil
}

// ParseID validates s and returns it in canonical form
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return "", ErrInvalidSessionID
	}
	return ID(u.String()), nil
}

// String returns the identifier as stored in cookies and grant rows
func (id ID) String() string {
	return string(id)
}

// IsZero reports whether id is empty
func (id ID) IsZero() bool {
	return id == ""
}
