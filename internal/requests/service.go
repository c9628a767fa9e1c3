package requests

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var (
	// ErrSubmissionRejected is the only error ever shown to the public form.
	// The concrete rejection reason is logged server side and never leaks,
	// so automated clients cannot learn which gate they tripped.
	ErrSubmissionRejected = errors.New("requests: submission rejected")

	// ErrInvalidTransition is returned for a status change outside the
	// review workflow.
	ErrInvalidTransition = errors.New("requests: invalid status transition")
)

type Service struct {
	repo       Repository
	challenges *ChallengeStore
	logger     *slog.Logger
	minDelay   time.Duration
	now        func() time.Time
}

func NewService(repo Repository, challenges *ChallengeStore, logger *slog.Logger, minDelay time.Duration) *Service {
	if minDelay <= 0 {
		minDelay = 5 * time.Second
	}
	return &Service{
		repo:       repo,
		challenges: challenges,
		logger:     logger,
		minDelay:   minDelay,
		now:        time.Now,
	}
}

// Challenge issues a token the public form must echo back on submit.
func (s *Service) Challenge(ctx context.Context) (string, error) {
	return s.challenges.Issue(ctx)
}

// Submit stores a custom request after it passes three gates: the honeypot
// field must be empty, the challenge token must be valid and unused, and at
// least the minimum delay must have elapsed since the token was issued.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*CustomRequest, error) {
	if req.Website != "" {
		s.logger.Warn("custom request rejected", "reason", "honeypot filled", "email", req.CustomerEmail)
		return nil, ErrSubmissionRejected
	}

	issuedAt, err := s.challenges.Consume(ctx, req.ChallengeToken)
	if err != nil {
		if errors.Is(err, ErrChallengeUnknown) {
			s.logger.Warn("custom request rejected", "reason", "challenge failed", "email", req.CustomerEmail)
			return nil, ErrSubmissionRejected
		}
		return nil, err
	}

	if elapsed := s.now().Sub(issuedAt); elapsed < s.minDelay {
		s.logger.Warn("custom request rejected",
			"reason", "submitted too fast",
			"elapsed", elapsed,
			"email", req.CustomerEmail)
		return nil, ErrSubmissionRejected
	}

	images := req.StyleImages
	if images == nil {
		images = []string{}
	}
	cr := &CustomRequest{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		EventName:     req.EventName,
		EventDate:     req.EventDate,
		Quantity:      req.Quantity,
		SizeBreakdown: req.SizeBreakdown,
		Description:   req.Description,
		StyleImages:   images,
		Status:        StatusPending,
	}
	if err := s.repo.Create(ctx, cr); err != nil {
		return nil, err
	}
	s.logger.Info("custom request received", "id", cr.ID, "event", cr.EventName, "quantity", cr.Quantity)
	return cr, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*CustomRequest, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilters) ([]CustomRequest, int, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.List(ctx, f)
}

// Review applies an admin update. Status changes are validated against the
// current stored status before the write; notes may change at any time.
func (s *Service) Review(ctx context.Context, id int64, req ReviewRequest) (*CustomRequest, error) {
	if req.Status != nil {
		to := *req.Status
		if !validTarget(to) {
			return nil, ErrInvalidTransition
		}
		current, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !CanTransition(current.Status, to) {
			return nil, ErrInvalidTransition
		}
		if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
			return nil, err
		}
		s.logger.Info("custom request status changed", "id", id, "from", current.Status, "to", to)
	}
	if req.AdminNotes != nil {
		if err := s.repo.UpdateNotes(ctx, id, *req.AdminNotes); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("custom request deleted", "id", id)
	return nil
}

func validTarget(st Status) bool {
	switch st {
	case StatusReviewed, StatusApproved, StatusRejected, StatusCompleted:
		return true
	}
	return false
}
