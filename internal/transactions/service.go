package transactions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrInvalidTransition is returned for disallowed status changes.
	ErrInvalidTransition = errors.New("transactions: invalid status transition")
	// ErrRefundExceedsTotal is returned when a refund is larger than the sale.
	ErrRefundExceedsTotal = errors.New("transactions: refund amount exceeds total amount")
	// ErrRefundAmountRequired is returned when a refund carries no amount.
	ErrRefundAmountRequired = errors.New("transactions: refund amount required")
)

type Service struct {
	repo     Repository
	logger   *slog.Logger
	staleAge time.Duration
}

// NewService builds the transaction lifecycle service. staleAge controls how
// old a completed transaction must be before the sweep closes it.
func NewService(repo Repository, logger *slog.Logger, staleAge time.Duration) *Service {
	if staleAge <= 0 {
		staleAge = 30 * 24 * time.Hour
	}
	return &Service{repo: repo, logger: logger, staleAge: staleAge}
}

// Create records an admin-entered transaction in the completed state.
func (s *Service) Create(ctx context.Context, req CreateTransactionRequest) (Transaction, error) {
	tx := Transaction{
		ReceiptID:       req.ReceiptID,
		ReceiptNumber:   req.ReceiptNumber,
		CustomerName:    req.CustomerName,
		ProductTotal:    req.ProductTotal,
		ShippingCost:    req.ShippingCost,
		TaxAmount:       req.TaxAmount,
		TotalAmount:     req.TotalAmount,
		Status:          StatusCompleted,
		Source:          SourceAdmin,
		TransactionDate: req.TransactionDate,
	}
	if err := s.repo.Create(ctx, &tx); err != nil {
		return Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return tx, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Transaction, error) {
	if id <= 0 {
		return Transaction{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Transaction, int, error) {
	return s.repo.List(ctx, filters)
}

// Update applies an admin status change. Refunded and closed are terminal;
// the only legal transitions are completed -> refunded and
// completed -> transaction_closed.
func (s *Service) Update(ctx context.Context, id int64, req UpdateTransactionRequest) (Transaction, error) {
	if !ValidStatus(req.Status) {
		return Transaction{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, req.Status)
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	if current.Status != StatusCompleted || req.Status == StatusCompleted {
		return Transaction{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, req.Status)
	}

	switch req.Status {
	case StatusRefunded:
		if req.RefundAmount == nil {
			return Transaction{}, ErrRefundAmountRequired
		}
		if *req.RefundAmount > current.TotalAmount {
			return Transaction{}, ErrRefundExceedsTotal
		}
		// refund_date is always the server clock, never client input.
		if err := s.repo.MarkRefunded(ctx, id, *req.RefundAmount, req.RefundReason, time.Now()); err != nil {
			return Transaction{}, fmt.Errorf("mark refunded: %w", err)
		}
	case StatusClosed:
		if err := s.repo.MarkClosed(ctx, id); err != nil {
			return Transaction{}, fmt.Errorf("mark closed: %w", err)
		}
	}

	return s.repo.Get(ctx, id)
}

// Sweep closes every completed transaction older than the configured age
// and returns how many were updated.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.staleAge)
	count, err := s.repo.CloseStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("close stale transactions: %w", err)
	}
	if s.logger != nil && count > 0 {
		s.logger.Info("stale transactions closed",
			slog.Int("count", count),
			slog.Time("cutoff", cutoff))
	}
	return count, nil
}
