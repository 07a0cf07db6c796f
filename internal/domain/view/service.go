package view

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Anvoria/blogly/internal/domain/post"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

var (
	// ErrPostNotFound is returned when recording a view of a missing or unpublished post
	ErrPostNotFound = errors.New("post not found")

	// ErrNoViewer is returned when nothing identifies the viewer
	ErrNoViewer = errors.New("viewer cannot be identified")
)

const (
	defaultSummaryDays  = 30
	maxSummaryDays      = 365
	defaultSummaryLimit = 10
	maxSummaryLimit     = 100
)

// Service records post views and reports on them
type Service interface {
	Record(ctx context.Context, postID uuid.UUID, viewer Viewer) (bool, error)
	CountForPost(ctx context.Context, postID uuid.UUID) (int64, error)
	Summary(ctx context.Context, days, limit int) (*Summary, error)
}

type service struct {
	repo  Repository
	posts post.Finder
	key   [32]byte
	now   func() time.Time
}

// NewService creates a view service. salt keys the viewer hash so stored hashes
// cannot be matched against known IPs or session ids.
func NewService(repo Repository, posts post.Finder, salt string) Service {
	return &service{
		repo:  repo,
		posts: posts,
		key:   blake2b.Sum256([]byte(salt)),
		now:   time.Now,
	}
}

// viewerHash prefers the session id; without one it falls back to IP and user agent
func (s *service) viewerHash(v Viewer) (string, error) {
	var identity string
	switch {
	case v.SessionID != "":
		identity = "sid:" + v.SessionID
	case v.IP != "":
		identity = "ip:" + v.IP + "|ua:" + strings.TrimSpace(v.UserAgent)
	default:
		return "", ErrNoViewer
	}

	h, err := blake2b.New256(s.key[:])
	if err != nil {
		return "", err
	}
	h.Write([]byte(identity))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Record counts a view of a published post, at most once per viewer per UTC day
func (s *service) Record(ctx context.Context, postID uuid.UUID, viewer Viewer) (bool, error) {
	if _, err := s.posts.FindPublishedByID(ctx, postID); err != nil {
		if errors.Is(err, post.ErrPostNotFound) {
			return false, ErrPostNotFound
		}
		return false, fmt.Errorf("failed to load post: %w", err)
	}

	hash, err := s.viewerHash(viewer)
	if err != nil {
		return false, err
	}

	counted, err := s.repo.Insert(ctx, &PostView{
		PostID:     postID,
		ViewerHash: hash,
		ViewDate:   s.now().UTC().Format(DateLayout),
	})
	if err != nil {
		return false, fmt.Errorf("failed to record view: %w", err)
	}
	return counted, nil
}

func (s *service) CountForPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	n, err := s.repo.CountByPost(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to count views: %w", err)
	}
	return n, nil
}

// Summary reports the last days (today included) of traffic and the limit most viewed posts
func (s *service) Summary(ctx context.Context, days, limit int) (*Summary, error) {
	if days <= 0 {
		days = defaultSummaryDays
	}
	days = min(days, maxSummaryDays)
	if limit <= 0 {
		limit = defaultSummaryLimit
	}
	limit = min(limit, maxSummaryLimit)

	since := s.now().UTC().AddDate(0, 0, -(days - 1)).Format(DateLayout)

	daily, err := s.repo.DailyCounts(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily views: %w", err)
	}
	top, err := s.repo.TopPosts(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top posts: %w", err)
	}

	summary := &Summary{Since: since, Daily: daily, TopPosts: top}
	for _, d := range daily {
		summary.Total += d.Views
	}
	if summary.Daily == nil {
		summary.Daily = []DailyCount{}
	}
	if summary.TopPosts == nil {
		summary.TopPosts = []PostCount{}
	}
	return summary, nil
}
