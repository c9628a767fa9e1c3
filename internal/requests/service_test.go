package requests

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	requests map[int64]*CustomRequest
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{requests: make(map[int64]*CustomRequest), nextID: 1}
}

func (m *mockRepository) Create(ctx context.Context, cr *CustomRequest) error {
	cr.ID = m.nextID
	m.nextID++
	now := time.Now()
	cr.CreatedAt = now
	cr.UpdatedAt = now
	cp := *cr
	m.requests[cr.ID] = &cp
	return nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*CustomRequest, error) {
	cr, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *cr
	return &cp, nil
}

func (m *mockRepository) List(ctx context.Context, f ListFilters) ([]CustomRequest, int, error) {
	out := []CustomRequest{}
	for _, cr := range m.requests {
		if f.Status != nil && cr.Status != *f.Status {
			continue
		}
		out = append(out, *cr)
	}
	return out, len(out), nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id int64, to Status) error {
	cr, ok := m.requests[id]
	if !ok {
		return ErrNotFound
	}
	if !CanTransition(cr.Status, to) {
		return ErrInvalidTransition
	}
	cr.Status = to
	return nil
}

func (m *mockRepository) UpdateNotes(ctx context.Context, id int64, notes string) error {
	cr, ok := m.requests[id]
	if !ok {
		return ErrNotFound
	}
	cr.AdminNotes = notes
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.requests[id]; !ok {
		return ErrNotFound
	}
	delete(m.requests, id)
	return nil
}

func newTestService(t *testing.T) (*Service, *mockRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := newMockRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, NewChallengeStore(client, 30*time.Minute), logger, 5*time.Second)
	return svc, repo
}

func validSubmission(token string) SubmitRequest {
	return SubmitRequest{
		ChallengeToken: token,
		CustomerName:   "Rani Wulandari",
		CustomerEmail:  "rani@example.com",
		EventName:      "Company anniversary",
		EventDate:      time.Now().AddDate(0, 2, 0),
		Quantity:       40,
		SizeBreakdown:  "S:5 M:15 L:15 XL:5",
		Description:    "Matching parang shirts for staff",
	}
}

func TestSubmitAfterDelay(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	token, err := svc.Challenge(ctx)
	require.NoError(t, err)

	// Pretend the form sat open for a minute before submission.
	svc.now = func() time.Time { return time.Now().Add(time.Minute) }

	cr, err := svc.Submit(ctx, validSubmission(token))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, cr.Status)
	assert.NotZero(t, cr.ID)
	assert.Len(t, repo.requests, 1)
}

func TestSubmitHoneypotFilled(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	token, err := svc.Challenge(ctx)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().Add(time.Minute) }

	req := validSubmission(token)
	req.Website = "http://spam.example.com"
	_, err = svc.Submit(ctx, req)
	assert.ErrorIs(t, err, ErrSubmissionRejected)
	assert.Empty(t, repo.requests)
}

func TestSubmitTooFast(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	token, err := svc.Challenge(ctx)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, validSubmission(token))
	assert.ErrorIs(t, err, ErrSubmissionRejected)
	assert.Empty(t, repo.requests)
}

func TestSubmitUnknownChallenge(t *testing.T) {
	svc, repo := newTestService(t)
	svc.now = func() time.Time { return time.Now().Add(time.Minute) }

	_, err := svc.Submit(context.Background(), validSubmission("bogus-token"))
	assert.ErrorIs(t, err, ErrSubmissionRejected)
	assert.Empty(t, repo.requests)
}

func TestSubmitChallengeSingleUse(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	token, err := svc.Challenge(ctx)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().Add(time.Minute) }

	_, err = svc.Submit(ctx, validSubmission(token))
	require.NoError(t, err)

	_, err = svc.Submit(ctx, validSubmission(token))
	assert.ErrorIs(t, err, ErrSubmissionRejected)
}

func TestReviewWorkflow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	token, err := svc.Challenge(ctx)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().Add(time.Minute) }
	cr, err := svc.Submit(ctx, validSubmission(token))
	require.NoError(t, err)

	reviewed := StatusReviewed
	cr, err = svc.Review(ctx, cr.ID, ReviewRequest{Status: &reviewed})
	require.NoError(t, err)
	assert.Equal(t, StatusReviewed, cr.Status)

	// Skipping straight to completed is not allowed.
	completed := StatusCompleted
	_, err = svc.Review(ctx, cr.ID, ReviewRequest{Status: &completed})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	approved := StatusApproved
	notes := "quoted 40 shirts, fabric confirmed"
	cr, err = svc.Review(ctx, cr.ID, ReviewRequest{Status: &approved, AdminNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, cr.Status)
	assert.Equal(t, notes, cr.AdminNotes)

	cr, err = svc.Review(ctx, cr.ID, ReviewRequest{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, cr.Status)

	// Completed and rejected are terminal.
	_, err = svc.Review(ctx, cr.ID, ReviewRequest{Status: &reviewed})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReviewRejectsPendingTarget(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	token, err := svc.Challenge(ctx)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().Add(time.Minute) }
	cr, err := svc.Submit(ctx, validSubmission(token))
	require.NoError(t, err)

	pending := StatusPending
	_, err = svc.Review(ctx, cr.ID, ReviewRequest{Status: &pending})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusReviewed))
	assert.True(t, CanTransition(StatusReviewed, StatusApproved))
	assert.True(t, CanTransition(StatusReviewed, StatusRejected))
	assert.True(t, CanTransition(StatusApproved, StatusCompleted))

	assert.False(t, CanTransition(StatusPending, StatusApproved))
	assert.False(t, CanTransition(StatusRejected, StatusCompleted))
	assert.False(t, CanTransition(StatusCompleted, StatusPending))
	assert.False(t, CanTransition(StatusApproved, StatusRejected))
}
