package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTransactionsSweep closes stale completed transactions.
	TaskTransactionsSweep = "transactions:sweep"
)

// SweepPayload parameterizes a sweep run. A zero value uses the
// service defaults.
type SweepPayload struct {
	RequestedBy string `json:"requested_by,omitempty"`
}

// NewTransactionsSweepTask constructs an Asynq task for the sweep.
func NewTransactionsSweepTask(payload SweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTransactionsSweep, data), nil
}
