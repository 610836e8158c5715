package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerPost posts one pending outbox document to the ledger.
	TaskLedgerPost = "ledger:post"
	// TaskGLIntegrity verifies per-tenant ledger invariants.
	TaskGLIntegrity = "ledger:integrity"
	// TaskOutboxSweep re-enqueues pending outbox rows whose queue message
	// was lost.
	TaskOutboxSweep = "ledger:outbox_sweep"
)

// LedgerPostPayload identifies the outbox row to post. The document snapshot
// itself lives in the outbox table, so a dropped queue message can always be
// re-enqueued from pending rows.
type LedgerPostPayload struct {
	OutboxID int64     `json:"outbox_id"`
	TenantID uuid.UUID `json:"tenant_id"`
}

// NewLedgerPostTask constructs an Asynq task for an outbox row.
func NewLedgerPostTask(payload LedgerPostPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerPost, data, asynq.MaxRetry(5)), nil
}

// NewGLIntegrityTask constructs the scheduled integrity check task.
func NewGLIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskGLIntegrity, nil)
}

// NewOutboxSweepTask constructs the scheduled pending-outbox sweep task.
func NewOutboxSweepTask() *asynq.Task {
	return asynq.NewTask(TaskOutboxSweep, nil)
}
