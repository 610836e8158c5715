package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/groundwork-erp/groundwork-erp/internal/shared"
)

// OutboxStatus tracks a document's posting lifecycle.
type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxPosted  OutboxStatus = "posted"
	OutboxFailed  OutboxStatus = "failed"
)

// OutboxItem is one business document awaiting ledger posting. The payload is
// the full document snapshot taken when the document was saved, so posting is
// unaffected by later edits.
type OutboxItem struct {
	ID        int64
	TenantID  uuid.UUID
	Kind      string
	Payload   json.RawMessage
	ActorID   string
	Status    OutboxStatus
	Attempts  int
	LastError string
	EntryID   *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OutboxRepository persists the posting outbox.
type OutboxRepository interface {
	Insert(ctx context.Context, item *OutboxItem) error
	Get(ctx context.Context, id int64) (*OutboxItem, error)
	MarkPosted(ctx context.Context, id int64, entryID *int64) error
	MarkFailed(ctx context.Context, id int64, reason string) error
	ListPending(ctx context.Context, limit int) ([]OutboxItem, error)
}

type outboxRepository struct {
	db *pgxpool.Pool
}

// NewOutboxRepository constructs the pgx-backed outbox store.
func NewOutboxRepository(db *pgxpool.Pool) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Insert(ctx context.Context, item *OutboxItem) error {
	return r.db.QueryRow(ctx, `INSERT INTO posting_outbox (tenant_id, kind, payload, actor_id, status)
VALUES ($1,$2,$3,$4,'pending') RETURNING id, created_at, updated_at`,
		item.TenantID, item.Kind, item.Payload, item.ActorID).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

const outboxColumns = `id, tenant_id, kind, payload, actor_id, status, attempts, COALESCE(last_error,''), entry_id, created_at, updated_at`

func scanOutbox(row pgx.Row) (*OutboxItem, error) {
	var item OutboxItem
	err := row.Scan(&item.ID, &item.TenantID, &item.Kind, &item.Payload, &item.ActorID,
		&item.Status, &item.Attempts, &item.LastError, &item.EntryID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *outboxRepository) Get(ctx context.Context, id int64) (*OutboxItem, error) {
	item, err := scanOutbox(r.db.QueryRow(ctx, `SELECT `+outboxColumns+` FROM posting_outbox WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFoundf("outbox item %d", id)
		}
		return nil, err
	}
	return item, nil
}

func (r *outboxRepository) MarkPosted(ctx context.Context, id int64, entryID *int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE posting_outbox
SET status='posted', entry_id=$2, attempts=attempts+1, last_error=NULL, updated_at=NOW()
WHERE id=$1 AND status='pending'`, id, entryID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.NotFoundf("pending outbox item %d", id)
	}
	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	_, err := r.db.Exec(ctx, `UPDATE posting_outbox
SET status='failed', attempts=attempts+1, last_error=$2, updated_at=NOW()
WHERE id=$1`, id, reason)
	return err
}

func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]OutboxItem, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `SELECT `+outboxColumns+` FROM posting_outbox
WHERE status='pending' ORDER BY id ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OutboxItem
	for rows.Next() {
		item, err := scanOutbox(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}
