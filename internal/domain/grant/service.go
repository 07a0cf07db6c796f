package grant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Anvoria/blogly/internal/domain/session"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrNoSession is returned when a grant is requested without a session identity
	ErrNoSession = errors.New("session id is required")
)

// Ledger records and answers time-boxed comment deletion rights per session
type Ledger interface {
	// Grant gives sid the right to delete commentID until the returned expiry
	Grant(ctx context.Context, sid session.ID, commentID uuid.UUID) (time.Time, error)
	// Check reports whether sid may delete commentID now. Any failure answers false.
	Check(ctx context.Context, sid session.ID, commentID uuid.UUID) bool
	// Revoke drops the grant for the pair
	Revoke(ctx context.Context, sid session.ID, commentID uuid.UUID) error
	// SweepExpired removes grants that can no longer be used
	SweepExpired(ctx context.Context) (int64, error)
	// ListDeletable returns the comments under postID that sid may delete now
	ListDeletable(ctx context.Context, sid session.ID, postID uuid.UUID) ([]uuid.UUID, error)
}

type ledger struct {
	repo   Repository
	window time.Duration
	now    func() time.Time
}

// Option configures a Ledger
type Option func(*ledger)

// WithClock replaces the wall clock, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(l *ledger) {
		l.now = now
	}
}

// NewLedger creates a Ledger granting rights for window (DefaultWindow when zero)
func NewLedger(repo Repository, window time.Duration, opts ...Option) Ledger {
	if window <= 0 {
		window = DefaultWindow
	}
	l := &ledger{
		repo:   repo,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *ledger) clock() time.Time {
	return l.now().UTC()
}

func (l *ledger) Grant(ctx context.Context, sid session.ID, commentID uuid.UUID) (time.Time, error) {
	if sid.IsZero() {
		return time.Time{}, ErrNoSession
	}

	expiresAt := l.clock().Add(l.window)
	g := &Grant{
		SessionID: sid.String(),
		CommentID: commentID,
		ExpiresAt: expiresAt,
	}
	if err := l.repo.Upsert(ctx, g); err != nil {
		return time.Time{}, fmt.Errorf("failed to store deletion grant: %w", err)
	}

	return expiresAt, nil
}

func (l *ledger) Check(ctx context.Context, sid session.ID, commentID uuid.UUID) bool {
	if sid.IsZero() {
		return false
	}

	g, err := l.repo.Find(ctx, sid.String(), commentID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Warn("Deletion grant lookup failed, denying", "session_id", sid, "comment_id", commentID, "error", err)
		}
		return false
	}

	return g.ActiveAt(l.clock())
}

func (l *ledger) Revoke(ctx context.Context, sid session.ID, commentID uuid.UUID) error {
	if sid.IsZero() {
		return nil
	}
	if err := l.repo.Delete(ctx, sid.String(), commentID); err != nil {
		return fmt.Errorf("failed to revoke deletion grant: %w", err)
	}
	return nil
}

func (l *ledger) SweepExpired(ctx context.Context) (int64, error) {
	n, err := l.repo.DeleteExpired(ctx, l.clock())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired grants: %w", err)
	}
	return n, nil
}

func (l *ledger) ListDeletable(ctx context.Context, sid session.ID, postID uuid.UUID) ([]uuid.UUID, error) {
	if sid.IsZero() {
		return []uuid.UUID{}, nil
	}
	ids, err := l.repo.FindActiveCommentIDs(ctx, sid.String(), postID, l.clock())
	if err != nil {
		return nil, fmt.Errorf("failed to list deletable comments: %w", err)
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return ids, nil
}
