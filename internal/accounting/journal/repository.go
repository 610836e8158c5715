package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/ledger"
	"github.com/groundwork-erp/groundwork-erp/internal/shared"
)

// Repository encapsulates DB operations for journal entries.
type Repository interface {
	List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]Entry, int, error)
	Get(ctx context.Context, tenantID uuid.UUID, entryID int64) (*Entry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a posting transaction. It
// embeds the ledger poster's store so entry creation and ledger expansion
// share one transaction.
type TxRepository interface {
	NextEntryNumber(ctx context.Context, tenantID uuid.UUID, year int) (int64, error)
	InsertEntry(ctx context.Context, entry *Entry) error
	InsertLines(ctx context.Context, entryID int64, lines []Line) error
	DeleteLines(ctx context.Context, entryID int64) error
	GetEntryWithLines(ctx context.Context, tenantID uuid.UUID, entryID int64) (*Entry, error)
	UpdateEntryStatus(ctx context.Context, tenantID uuid.UUID, entryID int64, status accounting.EntryStatus, postedAt *time.Time, approvedBy *string, reversedBy *int64) error
	UpdateDraft(ctx context.Context, entry *Entry) error
	DeleteDraft(ctx context.Context, tenantID uuid.UUID, entryID int64) error
	MarkRowsReversed(ctx context.Context, tenantID uuid.UUID, entryID int64) error

	ledger.TxStore
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, tenant_id, number, date, type, description, source_model, source_id, source_reference, project_id,
total_debit, total_credit, status, posted_at, reversal_of, reversed_by, created_by, approved_by, approved_at, created_at, updated_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	var sourceModel, sourceReference, approvedBy *string
	var sourceID *uuid.UUID
	err := row.Scan(&e.ID, &e.TenantID, &e.Number, &e.Date, &e.Type, &e.Description,
		&sourceModel, &sourceID, &sourceReference, &e.ProjectID,
		&e.TotalDebit, &e.TotalCredit, &e.Status, &e.PostedAt, &e.ReversalOf, &e.ReversedBy,
		&e.CreatedBy, &approvedBy, &e.ApprovedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if sourceModel != nil && sourceID != nil {
		e.Source = &accounting.SourceRef{Model: *sourceModel, ID: *sourceID}
		if sourceReference != nil {
			e.Source.Reference = *sourceReference
		}
	}
	if approvedBy != nil {
		e.ApprovedBy = *approvedBy
	}
	return &e, nil
}

func sourceFields(src *accounting.SourceRef) (model, reference any, id any) {
	if src == nil {
		return nil, nil, nil
	}
	return src.Model, src.Reference, src.ID
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]Entry, int, error) {
	where := `WHERE tenant_id=$1`
	args := []any{tenantID}
	idx := 2
	appendCond := func(cond string, value any) {
		where += fmt.Sprintf(" AND "+cond, idx)
		args = append(args, value)
		idx++
	}
	if filter.Type != "" {
		appendCond("type=$%d", filter.Type)
	}
	if filter.Status != "" {
		appendCond("status=$%d", filter.Status)
	}
	if filter.SourceModel != "" {
		appendCond("source_model=$%d", filter.SourceModel)
	}
	if filter.From != nil {
		appendCond("date>=$%d", *filter.From)
	}
	if filter.To != nil {
		appendCond("date<=$%d", *filter.To)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	query := `SELECT ` + entryColumns + ` FROM journal_entries ` + where +
		fmt.Sprintf(` ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *e)
	}
	return entries, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, tenantID uuid.UUID, entryID int64) (*Entry, error) {
	var entry *Entry
	err := r.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entry, err = tx.GetEntryWithLines(ctx, tenantID, entryID)
		return err
	})
	return entry, err
}

// WithTx executes fn within a repeatable-read transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("journal repository not initialised")
	}
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInfrastructure, err)
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInfrastructure, err)
	}
	return nil
}

type txRepository struct {
	tx pgx.Tx
}

// NextEntryNumber atomically increments the per-tenant per-year sequence.
// The upsert makes concurrent postings in the same year serialise on the
// counter row instead of racing a count-then-increment.
func (r *txRepository) NextEntryNumber(ctx context.Context, tenantID uuid.UUID, year int) (int64, error) {
	var value int64
	err := r.tx.QueryRow(ctx, `INSERT INTO entry_number_seq (tenant_id, year, value) VALUES ($1,$2,1)
ON CONFLICT (tenant_id, year) DO UPDATE SET value = entry_number_seq.value + 1
RETURNING value`, tenantID, year).Scan(&value)
	return value, err
}

func (r *txRepository) InsertEntry(ctx context.Context, entry *Entry) error {
	srcModel, srcRef, srcID := sourceFields(entry.Source)
	err := r.tx.QueryRow(ctx, `INSERT INTO journal_entries
(tenant_id, number, date, type, description, source_model, source_id, source_reference, project_id,
 total_debit, total_credit, status, posted_at, reversal_of, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
RETURNING id, created_at, updated_at`,
		entry.TenantID, entry.Number, entry.Date, entry.Type, entry.Description,
		srcModel, srcID, srcRef, entry.ProjectID,
		toNumeric(entry.TotalDebit), toNumeric(entry.TotalCredit), entry.Status, entry.PostedAt, entry.ReversalOf, entry.CreatedBy).
		Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_journal_entries_tenant_number" {
			return fmt.Errorf("%w: duplicate entry number %s", shared.ErrInfrastructure, entry.Number)
		}
		return err
	}
	return nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []Line) error {
	for i := range lines {
		line := &lines[i]
		line.EntryID = entryID
		err := r.tx.QueryRow(ctx, `INSERT INTO journal_lines
(entry_id, account_id, account_code, account_name, account_type, debit, credit, description)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id, created_at`,
			entryID, line.AccountID, line.AccountCode, line.AccountName, line.AccountType,
			toNumeric(line.Debit), toNumeric(line.Credit), line.Description).
			Scan(&line.ID, &line.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) DeleteLines(ctx context.Context, entryID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM journal_lines WHERE entry_id=$1`, entryID)
	return err
}

func (r *txRepository) GetEntryWithLines(ctx context.Context, tenantID uuid.UUID, entryID int64) (*Entry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+`
FROM journal_entries WHERE tenant_id=$1 AND id=$2`, tenantID, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFoundf("journal entry %d", entryID)
		}
		return nil, err
	}
	rows, err := r.tx.Query(ctx, `SELECT id, entry_id, account_id, account_code, account_name, account_type, debit, credit, description, created_at
FROM journal_lines WHERE entry_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &line.AccountCode, &line.AccountName, &line.AccountType,
			&line.Debit, &line.Credit, &line.Description, &line.CreatedAt); err != nil {
			return nil, err
		}
		entry.Lines = append(entry.Lines, line)
	}
	return entry, rows.Err()
}

// UpdateEntryStatus moves an entry through its lifecycle. Posting a draft
// records who approved it; the approval timestamp follows posted_at.
func (r *txRepository) UpdateEntryStatus(ctx context.Context, tenantID uuid.UUID, entryID int64, status accounting.EntryStatus, postedAt *time.Time, approvedBy *string, reversedBy *int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries
SET status=$3, posted_at=COALESCE($4, posted_at),
    approved_by=COALESCE($5, approved_by),
    approved_at=CASE WHEN $5 IS NULL THEN approved_at ELSE COALESCE($4, NOW()) END,
    reversed_by=COALESCE($6, reversed_by), updated_at=NOW()
WHERE tenant_id=$1 AND id=$2`, tenantID, entryID, status, postedAt, approvedBy, reversedBy)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.NotFoundf("journal entry %d", entryID)
	}
	return nil
}

func (r *txRepository) UpdateDraft(ctx context.Context, entry *Entry) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries
SET date=$3, type=$4, description=$5, project_id=$6, total_debit=$7, total_credit=$8, updated_at=NOW()
WHERE tenant_id=$1 AND id=$2 AND status='DRAFT'`,
		entry.TenantID, entry.ID, entry.Date, entry.Type, entry.Description, entry.ProjectID,
		toNumeric(entry.TotalDebit), toNumeric(entry.TotalCredit))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.NotFoundf("draft journal entry %d", entry.ID)
	}
	return nil
}

func (r *txRepository) DeleteDraft(ctx context.Context, tenantID uuid.UUID, entryID int64) error {
	if err := r.DeleteLines(ctx, entryID); err != nil {
		return err
	}
	cmd, err := r.tx.Exec(ctx, `DELETE FROM journal_entries WHERE tenant_id=$1 AND id=$2 AND status='DRAFT'`, tenantID, entryID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.NotFoundf("draft journal entry %d", entryID)
	}
	return nil
}

func (r *txRepository) MarkRowsReversed(ctx context.Context, tenantID uuid.UUID, entryID int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE general_ledger SET status='REVERSED' WHERE tenant_id=$1 AND entry_id=$2`, tenantID, entryID)
	return err
}

// LatestActiveBalance reads the running balance of the most recent ACTIVE
// ledger row for the account, ordered by date then insertion.
func (r *txRepository) LatestActiveBalance(ctx context.Context, tenantID uuid.UUID, accountCode string) (float64, bool, error) {
	var balance float64
	err := r.tx.QueryRow(ctx, `SELECT balance FROM general_ledger
WHERE tenant_id=$1 AND account_code=$2 AND status='ACTIVE'
ORDER BY date DESC, created_at DESC, id DESC LIMIT 1`, tenantID, accountCode).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return balance, true, nil
}

func (r *txRepository) InsertRow(ctx context.Context, row *ledger.Row) error {
	srcModel, srcRef, srcID := sourceFields(row.Source)
	return r.tx.QueryRow(ctx, `INSERT INTO general_ledger
(tenant_id, account_id, account_code, account_name, account_type, date, entry_id, entry_number, description, type, project_id,
 debit, credit, balance, source_model, source_id, source_reference, fiscal_year, fiscal_period, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
RETURNING id, created_at`,
		row.TenantID, row.AccountID, row.AccountCode, row.AccountName, row.AccountType,
		row.Date, row.EntryID, row.EntryNumber, row.Description, row.Type, row.ProjectID,
		toNumeric(row.Debit), toNumeric(row.Credit), toNumeric(row.Balance),
		srcModel, srcID, srcRef, row.FiscalYear, row.FiscalPeriod, row.Status).
		Scan(&row.ID, &row.CreatedAt)
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
