package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/batikthread/batikthread/internal/transactions"
)

// SweepJob closes completed transactions older than the configured age.
type SweepJob struct {
	Service *transactions.Service
	Logger  *slog.Logger
}

// Handle processes TaskTransactionsSweep tasks.
func (j *SweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	n, err := j.Service.Sweep(ctx)
	if err != nil {
		j.Logger.Error("transactions sweep failed", slog.Any("error", err))
		return err
	}
	j.Logger.Info("transactions sweep finished",
		slog.Int("closed", n),
		slog.String("requested_by", payload.RequestedBy))
	return nil
}
