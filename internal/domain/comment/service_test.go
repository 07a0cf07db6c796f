package comment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Anvoria/blogly/internal/config"
	"github.com/Anvoria/blogly/internal/domain/admin"
	"github.com/Anvoria/blogly/internal/domain/grant"
	"github.com/Anvoria/blogly/internal/domain/post"
	"github.com/Anvoria/blogly/internal/domain/session"
	"github.com/Anvoria/blogly/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	db     *gorm.DB
	clock  *fakeClock
	ledger grant.Ledger
	admins admin.Service
	posts  post.Service
	svc    Service
	post   *post.Post
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.SetupTestDB(t, &post.Post{}, &Comment{}, &grant.Grant{}, &admin.Admin{})

	h := &harness{
		db:    db,
		clock: &fakeClock{t: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)},
	}
	h.ledger = grant.NewLedger(grant.NewRepository(db), 30*time.Minute, grant.WithClock(h.clock.Now))
	h.admins = admin.NewService(admin.NewRepository(db), nil)
	h.posts = post.NewService(post.NewRepository(db), &config.AppConfig{DefaultLocale: "en"})
	h.svc = NewService(NewRepository(db), h.ledger, h.posts, h.admins, config.CommentsConfig{MaxLength: 200, AuthorMaxLength: 20})

	slug, title, status := "hello", "Hello", post.StatusPublished
	p, err := h.posts.Create(context.Background(), "", post.Input{Slug: &slug, Title: &title, Status: &status})
	require.NoError(t, err)
	h.post = p
	return h
}

func (h *harness) newSession(t *testing.T) session.ID {
	t.Helper()
	id, err := session.NewID()
	require.NoError(t, err)
	return id
}

func (h *harness) comment(t *testing.T, sid session.ID) *Comment {
	t.Helper()
	created, err := h.svc.Create(context.Background(), CreateRequest{
		PostID:     h.post.ID,
		AuthorName: "Reader",
		Content:    "Nice post",
		SessionID:  sid,
	})
	require.NoError(t, err)
	return created.Comment
}

func (h *harness) isDeleted(t *testing.T, id uuid.UUID) bool {
	t.Helper()
	var c Comment
	require.NoError(t, h.db.Unscoped().Where("id = ?", id).First(&c).Error)
	return c.DeletedAt.Valid
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	sid := h.newSession(t)

	created, err := h.svc.Create(ctx, CreateRequest{PostID: h.post.ID, Content: "  First!  ", SessionID: sid})
	require.NoError(t, err)
	assert.Equal(t, "First!", created.Comment.Content)
	assert.Equal(t, DefaultAuthorName, created.Comment.AuthorName)
	assert.Equal(t, "en", created.Comment.Locale)
	require.NotNil(t, created.DeletableUntil)
	assert.True(t, created.DeletableUntil.Equal(h.clock.Now().Add(30*time.Minute)))
	assert.True(t, h.ledger.Check(ctx, sid, created.Comment.ID), "creator may delete")

	draftSlug, draftTitle := "draft", "Draft"
	draft, err := h.posts.Create(ctx, "", post.Input{Slug: &draftSlug, Title: &draftTitle})
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     CreateRequest
		wantErr error
	}{
		{name: "blank content", req: CreateRequest{PostID: h.post.ID, Content: "   "}, wantErr: ErrContentRequired},
		{name: "content too long", req: CreateRequest{PostID: h.post.ID, Content: strings.Repeat("ż", 201)}, wantErr: ErrContentTooLong},
		{name: "author too long", req: CreateRequest{PostID: h.post.ID, Content: "x", AuthorName: strings.Repeat("a", 21)}, wantErr: ErrAuthorTooLong},
		{name: "missing post", req: CreateRequest{PostID: uuid.New(), Content: "x"}, wantErr: ErrPostNotFound},
		{name: "draft post", req: CreateRequest{PostID: draft.ID, Content: "x"}, wantErr: ErrPostNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.SessionID = sid
			_, err := h.svc.Create(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err = h.svc.Create(ctx, CreateRequest{PostID: h.post.ID, Content: strings.Repeat("ż", 200), SessionID: sid})
	assert.NoError(t, err, "length is counted in characters, not bytes")
}

func TestService_DeleteWithinWindow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	sess1 := h.newSession(t)
	sess2 := h.newSession(t)

	c := h.comment(t, sess1)

	h.clock.Advance(10 * time.Minute)
	require.NoError(t, h.svc.Delete(ctx, DeleteRequest{CommentID: c.ID.String(), SessionID: sess1}))
	assert.True(t, h.isDeleted(t, c.ID))
	assert.False(t, h.ledger.Check(ctx, sess1, c.ID), "grant revoked after deletion")

	var grants int64
	require.NoError(t, h.db.Model(&grant.Grant{}).Count(&grants).Error)
	assert.Zero(t, grants)

	h.clock.Advance(30 * time.Minute)
	err := h.svc.Delete(ctx, DeleteRequest{CommentID: c.ID.String(), SessionID: sess2})
	assert.ErrorIs(t, err, ErrCommentNotFound, "already deleted looks the same as missing")
}

func TestService_DeleteAfterWindow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	sid := h.newSession(t)
	c := h.comment(t, sid)

	h.clock.Advance(30 * time.Minute)
	err := h.svc.Delete(ctx, DeleteRequest{CommentID: c.ID.String(), SessionID: sid})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.False(t, h.isDeleted(t, c.ID), "forbidden leaves the comment untouched")
}

func TestService_DeleteWithoutGrant(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	c := h.comment(t, h.newSession(t))

	for name, req := range map[string]DeleteRequest{
		"other session":        {CommentID: c.ID.String(), SessionID: h.newSession(t)},
		"no session":           {CommentID: c.ID.String()},
		"authenticated reader": {CommentID: c.ID.String(), UserID: "user-1"},
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, h.svc.Delete(ctx, req), ErrForbidden)
		})
	}
	assert.False(t, h.isDeleted(t, c.ID))
}

func TestService_AdminOverride(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.admins.Grant(ctx, "admin-1", "admin@example.com", "")
	require.NoError(t, err)

	// comment stored directly so no grant ever exists
	c := &Comment{PostID: h.post.ID, AuthorName: "sess-3", Content: "spam", SessionID: h.newSession(t).String()}
	require.NoError(t, h.db.Create(c).Error)

	require.NoError(t, h.svc.Delete(ctx, DeleteRequest{CommentID: c.ID.String(), UserID: "admin-1"}))
	assert.True(t, h.isDeleted(t, c.ID))

	h.clock.Advance(24 * time.Hour)
	expired := h.comment(t, h.newSession(t))
	h.clock.Advance(time.Hour)
	assert.NoError(t, h.svc.Delete(ctx, DeleteRequest{CommentID: expired.ID.String(), UserID: "admin-1"}),
		"admins ignore grant expiry")
}

func TestService_DeleteInvalidID(t *testing.T) {
	h := newHarness(t)
	for _, id := range []string{"", "42", "not-a-uuid", uuid.Nil.String()} {
		err := h.svc.Delete(context.Background(), DeleteRequest{CommentID: id, UserID: "admin-1"})
		assert.ErrorIs(t, err, ErrInvalidRequest, "id %q", id)
	}
	err := h.svc.Delete(context.Background(), DeleteRequest{CommentID: uuid.NewString(), UserID: "admin-1"})
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestService_ConcurrentDelete(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	sid := h.newSession(t)
	c := h.comment(t, sid)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = h.svc.Delete(ctx, DeleteRequest{CommentID: c.ID.String(), SessionID: sid})
		}()
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.True(t, errors.Is(err, ErrCommentNotFound) || errors.Is(err, ErrForbidden),
			"losers see not found, or forbidden once the grant is revoked: %v", err)
	}
	assert.Equal(t, 1, successes)
	assert.True(t, h.isDeleted(t, c.ID))
}

func TestService_ListForPost(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	mine := h.newSession(t)
	theirs := h.newSession(t)

	a := h.comment(t, mine)
	b := h.comment(t, theirs)
	gone := h.comment(t, mine)
	require.NoError(t, h.svc.Delete(ctx, DeleteRequest{CommentID: gone.ID.String(), SessionID: mine}))

	thread, err := h.svc.ListForPost(ctx, h.post.ID, mine)
	require.NoError(t, err)
	require.Len(t, thread.Comments, 2)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, []uuid.UUID{thread.Comments[0].ID, thread.Comments[1].ID})
	assert.Equal(t, []uuid.UUID{a.ID}, thread.DeletableIDs)

	h.clock.Advance(31 * time.Minute)
	thread, err = h.svc.ListForPost(ctx, h.post.ID, mine)
	require.NoError(t, err)
	assert.Empty(t, thread.DeletableIDs, "expired grants drop out of the list")

	thread, err = h.svc.ListForPost(ctx, h.post.ID, "")
	require.NoError(t, err)
	assert.Len(t, thread.Comments, 2)
	assert.Empty(t, thread.DeletableIDs)

	_, err = h.svc.ListForPost(ctx, uuid.New(), mine)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestService_ListForModeration(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	sid := h.newSession(t)

	keep := h.comment(t, sid)
	drop := h.comment(t, sid)
	require.NoError(t, h.svc.Delete(ctx, DeleteRequest{CommentID: drop.ID.String(), SessionID: sid}))

	page, err := h.svc.ListForModeration(ctx, ModerationQuery{})
	require.NoError(t, err)
	require.Len(t, page.Comments, 1)
	assert.Equal(t, keep.ID, page.Comments[0].ID)

	page, err = h.svc.ListForModeration(ctx, ModerationQuery{Visibility: VisibilityDeleted})
	require.NoError(t, err)
	require.Len(t, page.Comments, 1)
	assert.Equal(t, drop.ID, page.Comments[0].ID)
	assert.NotNil(t, page.Comments[0].ToModerationResponse().DeletedAt)

	page, err = h.svc.ListForModeration(ctx, ModerationQuery{Visibility: VisibilityAll, PostID: &h.post.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	other := uuid.New()
	page, err = h.svc.ListForModeration(ctx, ModerationQuery{Visibility: VisibilityAll, PostID: &other})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	_, err = h.svc.ListForModeration(ctx, ModerationQuery{Visibility: "spam"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, c *Comment) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Comment), args.Error(1)
}

func (m *MockRepository) FindByPost(ctx context.Context, postID uuid.UUID) ([]*Comment, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Comment), args.Error(1)
}

func (m *MockRepository) FindForModeration(ctx context.Context, f ModerationFilter) ([]*Comment, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*Comment), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) SoftDelete(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

// MockLedger is a mock implementation of grant.Ledger
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Grant(ctx context.Context, sid session.ID, commentID uuid.UUID) (time.Time, error) {
	args := m.Called(ctx, sid, commentID)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockLedger) Check(ctx context.Context, sid session.ID, commentID uuid.UUID) bool {
	return m.Called(ctx, sid, commentID).Bool(0)
}

func (m *MockLedger) Revoke(ctx context.Context, sid session.ID, commentID uuid.UUID) error {
	return m.Called(ctx, sid, commentID).Error(0)
}

func (m *MockLedger) SweepExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedger) ListDeletable(ctx context.Context, sid session.ID, postID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, sid, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type stubAdmins struct {
	ok  bool
	err error
}

func (s stubAdmins) IsAdmin(context.Context, string) (bool, error) { return s.ok, s.err }

type stubPosts struct {
	p   *post.Post
	err error
}

func (s stubPosts) FindPublishedByID(context.Context, uuid.UUID) (*post.Post, error) { return s.p, s.err }

func TestService_Delete_Failures(t *testing.T) {
	ctx := context.Background()
	sid := session.ID("0b8f6c1e-4c1a-4d4e-9a57-2f0c8f0b9e11")
	commentID := uuid.New()
	existing := &Comment{PostID: uuid.New()}
	storeErr := errors.New("connection reset")

	t.Run("lost race is not found and keeps the grant", func(t *testing.T) {
		repo, ledger := new(MockRepository), new(MockLedger)
		repo.On("FindActiveByID", mock.Anything, commentID).Return(existing, nil)
		repo.On("SoftDelete", mock.Anything, commentID).Return(int64(0), nil)
		ledger.On("Check", mock.Anything, sid, commentID).Return(true)

		svc := NewService(repo, ledger, stubPosts{}, stubAdmins{}, config.CommentsConfig{})
		err := svc.Delete(ctx, DeleteRequest{CommentID: commentID.String(), SessionID: sid})
		assert.ErrorIs(t, err, ErrCommentNotFound)
		ledger.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("write failure is internal", func(t *testing.T) {
		repo, ledger := new(MockRepository), new(MockLedger)
		repo.On("FindActiveByID", mock.Anything, commentID).Return(existing, nil)
		repo.On("SoftDelete", mock.Anything, commentID).Return(int64(0), storeErr)
		ledger.On("Check", mock.Anything, sid, commentID).Return(true)

		svc := NewService(repo, ledger, stubPosts{}, stubAdmins{}, config.CommentsConfig{})
		err := svc.Delete(ctx, DeleteRequest{CommentID: commentID.String(), SessionID: sid})
		assert.ErrorIs(t, err, storeErr)
		assert.NotErrorIs(t, err, ErrCommentNotFound)
	})

	t.Run("lookup failure is internal", func(t *testing.T) {
		repo, ledger := new(MockRepository), new(MockLedger)
		repo.On("FindActiveByID", mock.Anything, commentID).Return(nil, storeErr)

		svc := NewService(repo, ledger, stubPosts{}, stubAdmins{}, config.CommentsConfig{})
		err := svc.Delete(ctx, DeleteRequest{CommentID: commentID.String(), SessionID: sid})
		assert.ErrorIs(t, err, storeErr)
		ledger.AssertNotCalled(t, "Check", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("revoke failure does not fail the delete", func(t *testing.T) {
		repo, ledger := new(MockRepository), new(MockLedger)
		repo.On("FindActiveByID", mock.Anything, commentID).Return(existing, nil)
		repo.On("SoftDelete", mock.Anything, commentID).Return(int64(1), nil)
		ledger.On("Check", mock.Anything, sid, commentID).Return(true)
		ledger.On("Revoke", mock.Anything, sid, commentID).Return(storeErr)

		svc := NewService(repo, ledger, stubPosts{}, stubAdmins{}, config.CommentsConfig{})
		assert.NoError(t, svc.Delete(ctx, DeleteRequest{CommentID: commentID.String(), SessionID: sid}))
		ledger.AssertExpectations(t)
	})

	t.Run("admin path skips the ledger", func(t *testing.T) {
		repo, ledger := new(MockRepository), new(MockLedger)
		repo.On("FindActiveByID", mock.Anything, commentID).Return(existing, nil)
		repo.On("SoftDelete", mock.Anything, commentID).Return(int64(1), nil)

		svc := NewService(repo, ledger, stubPosts{}, stubAdmins{ok: true}, config.CommentsConfig{})
		assert.NoError(t, svc.Delete(ctx, DeleteRequest{CommentID: commentID.String(), SessionID: sid, UserID: "admin-1"}))
		ledger.AssertNotCalled(t, "Check", mock.Anything, mock.Anything, mock.Anything)
		ledger.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("deadline during the grant check is internal", func(t *testing.T) {
		repo, ledger := new(MockRepository), new(MockLedger)
		repo.On("FindActiveByID", mock.Anything, commentID).Return(existing, nil)
		ledger.On("Check", mock.Anything, sid, commentID).Return(false)

		expired, cancel := context.WithTimeout(ctx, -time.Second)
		defer cancel()

		svc := NewService(repo, ledger, stubPosts{}, stubAdmins{}, config.CommentsConfig{})
		err := svc.Delete(expired, DeleteRequest{CommentID: commentID.String(), SessionID: sid})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.NotErrorIs(t, err, ErrForbidden)
		repo.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
	})

	t.Run("admin registry failure falls back to the ledger", func(t *testing.T) {
		repo, ledger := new(MockRepository), new(MockLedger)
		repo.On("FindActiveByID", mock.Anything, commentID).Return(existing, nil)
		ledger.On("Check", mock.Anything, sid, commentID).Return(false)

		svc := NewService(repo, ledger, stubPosts{}, stubAdmins{ok: true, err: storeErr}, config.CommentsConfig{})
		err := svc.Delete(ctx, DeleteRequest{CommentID: commentID.String(), SessionID: sid, UserID: "admin-1"})
		assert.ErrorIs(t, err, ErrForbidden)
		repo.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
	})
}

func TestService_Create_GrantFailureKeepsComment(t *testing.T) {
	ctx := context.Background()
	sid := session.ID("0b8f6c1e-4c1a-4d4e-9a57-2f0c8f0b9e11")
	p := &post.Post{Locale: "pl", Status: post.StatusPublished}
	p.ID = uuid.New()

	repo, ledger := new(MockRepository), new(MockLedger)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*comment.Comment")).Return(nil)
	ledger.On("Grant", mock.Anything, sid, mock.Anything).Return(time.Time{}, errors.New("ledger down"))

	svc := NewService(repo, ledger, stubPosts{p: p}, stubAdmins{}, config.CommentsConfig{})
	created, err := svc.Create(ctx, CreateRequest{PostID: p.ID, Content: "hi", SessionID: sid})
	require.NoError(t, err)
	assert.Nil(t, created.DeletableUntil)
	assert.Equal(t, "pl", created.Comment.Locale)
	repo.AssertExpectations(t)
}

func TestService_ListForPost_LedgerFailure(t *testing.T) {
	ctx := context.Background()
	p := &post.Post{Status: post.StatusPublished}
	p.ID = uuid.New()

	repo, ledger := new(MockRepository), new(MockLedger)
	repo.On("FindByPost", mock.Anything, p.ID).Return([]*Comment{{Content: "hi"}}, nil)
	ledger.On("ListDeletable", mock.Anything, mock.Anything, p.ID).Return(nil, errors.New("ledger down"))

	svc := NewService(repo, ledger, stubPosts{p: p}, stubAdmins{}, config.CommentsConfig{})
	thread, err := svc.ListForPost(ctx, p.ID, "")
	require.NoError(t, err)
	assert.Len(t, thread.Comments, 1)
	assert.NotNil(t, thread.DeletableIDs)
	assert.Empty(t, thread.DeletableIDs)
}
