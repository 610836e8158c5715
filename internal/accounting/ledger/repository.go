package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
)

// Store is the read side of the general ledger.
type Store interface {
	SumForAccount(ctx context.Context, tenantID uuid.UUID, accountCode string, asOf *time.Time) (debit, credit float64, err error)
	SumBefore(ctx context.Context, tenantID uuid.UUID, accountCode string, before time.Time) (float64, error)
	RowsForAccount(ctx context.Context, tenantID uuid.UUID, accountCode string, from, to *time.Time) ([]Row, error)
	ActivityByAccount(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) ([]AccountActivity, error)
	Rows(ctx context.Context, tenantID uuid.UUID, filter RowFilter) ([]Row, error)
	AccountCodes(ctx context.Context, tenantID uuid.UUID) ([]string, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed ledger store.
func NewRepository(db *pgxpool.Pool) Store {
	return &repository{db: db}
}

const rowColumns = `id, tenant_id, account_id, account_code, account_name, account_type, date, entry_id, entry_number,
description, type, project_id, debit, credit, balance, source_model, source_id, source_reference,
fiscal_year, fiscal_period, status, created_at`

func scanRow(r pgx.Row) (*Row, error) {
	var row Row
	var sourceModel, sourceReference *string
	var sourceID *uuid.UUID
	err := r.Scan(&row.ID, &row.TenantID, &row.AccountID, &row.AccountCode, &row.AccountName, &row.AccountType,
		&row.Date, &row.EntryID, &row.EntryNumber, &row.Description, &row.Type, &row.ProjectID,
		&row.Debit, &row.Credit, &row.Balance, &sourceModel, &sourceID, &sourceReference,
		&row.FiscalYear, &row.FiscalPeriod, &row.Status, &row.CreatedAt)
	if err != nil {
		return nil, err
	}
	if sourceModel != nil && sourceID != nil {
		row.Source = &accounting.SourceRef{Model: *sourceModel, ID: *sourceID}
		if sourceReference != nil {
			row.Source.Reference = *sourceReference
		}
	}
	return &row, nil
}

func (r *repository) SumForAccount(ctx context.Context, tenantID uuid.UUID, accountCode string, asOf *time.Time) (float64, float64, error) {
	query := `SELECT COALESCE(SUM(debit),0), COALESCE(SUM(credit),0) FROM general_ledger
WHERE tenant_id=$1 AND account_code=$2 AND status='ACTIVE'`
	args := []any{tenantID, accountCode}
	if asOf != nil {
		query += ` AND date<=$3`
		args = append(args, *asOf)
	}
	var debit, credit float64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&debit, &credit); err != nil {
		return 0, 0, err
	}
	return debit, credit, nil
}

func (r *repository) SumBefore(ctx context.Context, tenantID uuid.UUID, accountCode string, before time.Time) (float64, error) {
	var debit, credit float64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(debit),0), COALESCE(SUM(credit),0) FROM general_ledger
WHERE tenant_id=$1 AND account_code=$2 AND status='ACTIVE' AND date<$3`, tenantID, accountCode, before).Scan(&debit, &credit)
	if err != nil {
		return 0, err
	}
	return debit - credit, nil
}

func (r *repository) RowsForAccount(ctx context.Context, tenantID uuid.UUID, accountCode string, from, to *time.Time) ([]Row, error) {
	query := `SELECT ` + rowColumns + ` FROM general_ledger
WHERE tenant_id=$1 AND account_code=$2 AND status='ACTIVE'`
	args := []any{tenantID, accountCode}
	idx := 3
	if from != nil {
		query += fmt.Sprintf(` AND date>=$%d`, idx)
		args = append(args, *from)
		idx++
	}
	if to != nil {
		query += fmt.Sprintf(` AND date<=$%d`, idx)
		args = append(args, *to)
		idx++
	}
	query += ` ORDER BY date ASC, created_at ASC, id ASC`
	return r.queryRows(ctx, query, args)
}

func (r *repository) ActivityByAccount(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) ([]AccountActivity, error) {
	query := `SELECT account_code, MAX(account_name), account_type, COALESCE(SUM(debit),0), COALESCE(SUM(credit),0)
FROM general_ledger WHERE tenant_id=$1 AND status='ACTIVE'`
	args := []any{tenantID}
	idx := 2
	if from != nil {
		query += fmt.Sprintf(` AND date>=$%d`, idx)
		args = append(args, *from)
		idx++
	}
	if to != nil {
		query += fmt.Sprintf(` AND date<=$%d`, idx)
		args = append(args, *to)
		idx++
	}
	query += ` GROUP BY account_code, account_type ORDER BY account_code`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountActivity
	for rows.Next() {
		var a AccountActivity
		if err := rows.Scan(&a.Code, &a.Name, &a.Type, &a.Debit, &a.Credit); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) Rows(ctx context.Context, tenantID uuid.UUID, filter RowFilter) ([]Row, error) {
	query := `SELECT ` + rowColumns + ` FROM general_ledger WHERE tenant_id=$1`
	args := []any{tenantID}
	idx := 2
	appendCond := func(cond string, value any) {
		query += fmt.Sprintf(` AND `+cond, idx)
		args = append(args, value)
		idx++
	}
	if filter.AccountCode != "" {
		appendCond(`account_code=$%d`, filter.AccountCode)
	}
	if filter.Type != "" {
		appendCond(`type=$%d`, filter.Type)
	}
	if filter.ProjectID != nil {
		appendCond(`project_id=$%d`, *filter.ProjectID)
	}
	if filter.From != nil {
		appendCond(`date>=$%d`, *filter.From)
	}
	if filter.To != nil {
		appendCond(`date<=$%d`, *filter.To)
	}
	query += ` ORDER BY date DESC, created_at DESC, id DESC`
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, filter.Offset)
	return r.queryRows(ctx, query, args)
}

func (r *repository) AccountCodes(ctx context.Context, tenantID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT account_code FROM general_ledger WHERE tenant_id=$1 ORDER BY account_code`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (r *repository) queryRows(ctx context.Context, query string, args []any) ([]Row, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Row
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *row)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return out, nil
}
