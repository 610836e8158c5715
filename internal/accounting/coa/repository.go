package coa

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/groundwork-erp/groundwork-erp/internal/shared"
)

// Repository persists chart of accounts records.
type Repository interface {
	GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Account, error)
	FindParentByLeafCode(ctx context.Context, tenantID uuid.UUID, code string) (*Account, error)
	Insert(ctx context.Context, account Account) (*Account, error)
	InsertChild(ctx context.Context, parentID int64, account Account) (*Account, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]Account, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, tenant_id, code, name, type, component, parent_id, child_kind, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.TenantID, &a.Code, &a.Name, &a.Type, &a.Component, &a.ParentID, &a.ChildKind, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Account, error) {
	account, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+`
FROM accounts WHERE tenant_id=$1 AND code=$2 AND parent_id IS NULL`, tenantID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFoundf("account %s", code)
		}
		return nil, err
	}
	return account, nil
}

// FindParentByLeafCode resolves a sub/list account code to its parent account.
func (r *repository) FindParentByLeafCode(ctx context.Context, tenantID uuid.UUID, code string) (*Account, error) {
	account, err := scanAccount(r.db.QueryRow(ctx, `SELECT p.id, p.tenant_id, p.code, p.name, p.type, p.component, p.parent_id, p.child_kind, p.is_active, p.created_at, p.updated_at
FROM accounts c
JOIN accounts p ON p.id = c.parent_id
WHERE c.tenant_id=$1 AND c.code=$2 AND c.parent_id IS NOT NULL`, tenantID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFoundf("leaf account %s", code)
		}
		return nil, err
	}
	return account, nil
}

// Insert creates a top-level account. The (tenant_id, code) uniqueness
// constraint makes concurrent lazy creation converge on one row; on conflict
// the existing row is re-read and returned.
func (r *repository) Insert(ctx context.Context, account Account) (*Account, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounts (tenant_id, code, name, type, component, is_active)
VALUES ($1,$2,$3,$4,$5,TRUE)
ON CONFLICT (tenant_id, code) DO NOTHING
RETURNING `+accountColumns, account.TenantID, account.Code, account.Name, account.Type, account.Component)
	inserted, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.GetByCode(ctx, account.TenantID, account.Code)
		}
		return nil, err
	}
	return inserted, nil
}

func (r *repository) InsertChild(ctx context.Context, parentID int64, account Account) (*Account, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounts (tenant_id, code, name, type, component, parent_id, child_kind, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7,TRUE)
RETURNING `+accountColumns, account.TenantID, account.Code, account.Name, account.Type, account.Component, parentID, account.ChildKind)
	inserted, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_accounts_tenant_code" {
			return nil, shared.NewValidationError("account code already exists: " + account.Code)
		}
		return nil, err
	}
	return inserted, nil
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id=$1 ORDER BY code`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}
