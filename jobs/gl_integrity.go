package jobs

import (
	"context"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
	jobmetrics "github.com/groundwork-erp/groundwork-erp/internal/jobs"
)

// IntegrityChecker verifies ledger invariants per tenant: total ACTIVE debits
// equal total ACTIVE credits, every entry's ledger rows balance, and entry
// header totals match their lines. Stored row balances are point-in-time
// facts and are left alone after reversals, so they are not replayed here.
// Violations are logged, never repaired; a mismatch means a bug upstream.
type IntegrityChecker struct {
	db      *pgxpool.Pool
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewIntegrityChecker constructs the checker.
func NewIntegrityChecker(db *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *IntegrityChecker {
	return &IntegrityChecker{db: db, logger: logger, metrics: metrics}
}

// HandleGLIntegrity runs the scheduled check over every tenant.
func (c *IntegrityChecker) HandleGLIntegrity(ctx context.Context, _ *asynq.Task) error {
	tracker := c.metrics.Track("gl_integrity")
	tenants, err := c.tenantIDs(ctx)
	if err != nil {
		return tracker.End(err)
	}
	violations := 0
	for _, tenantID := range tenants {
		n, err := c.checkTenant(ctx, tenantID)
		if err != nil {
			return tracker.End(err)
		}
		c.metrics.AddViolations(tenantID.String(), n)
		violations += n
	}
	if c.logger != nil {
		c.logger.Info("GL integrity check completed",
			slog.Int("tenants", len(tenants)), slog.Int("violations", violations))
	}
	return tracker.End(nil)
}

func (c *IntegrityChecker) tenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := c.db.Query(ctx, `SELECT DISTINCT tenant_id FROM general_ledger`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (c *IntegrityChecker) checkTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	violations := 0

	var totalDebit, totalCredit float64
	err := c.db.QueryRow(ctx, `SELECT COALESCE(SUM(debit),0), COALESCE(SUM(credit),0)
FROM general_ledger WHERE tenant_id=$1 AND status='ACTIVE'`, tenantID).Scan(&totalDebit, &totalCredit)
	if err != nil {
		return 0, err
	}
	if math.Abs(totalDebit-totalCredit) > accounting.AmountTolerance {
		violations++
		if c.logger != nil {
			c.logger.Error("ledger out of balance",
				slog.String("tenant", tenantID.String()),
				slog.Float64("total_debit", totalDebit),
				slog.Float64("total_credit", totalCredit))
		}
	}

	rows, err := c.db.Query(ctx, `SELECT entry_id, SUM(debit), SUM(credit) FROM general_ledger
WHERE tenant_id=$1 GROUP BY entry_id HAVING ABS(SUM(debit)-SUM(credit)) > $2`, tenantID, accounting.AmountTolerance)
	if err != nil {
		return violations, err
	}
	defer rows.Close()
	for rows.Next() {
		var entryID int64
		var debit, credit float64
		if err := rows.Scan(&entryID, &debit, &credit); err != nil {
			return violations, err
		}
		violations++
		if c.logger != nil {
			c.logger.Error("entry rows out of balance",
				slog.String("tenant", tenantID.String()),
				slog.Int64("entry_id", entryID),
				slog.Float64("debit", debit),
				slog.Float64("credit", credit))
		}
	}
	if err := rows.Err(); err != nil {
		return violations, err
	}

	headerRows, err := c.db.Query(ctx, `SELECT e.id, e.number FROM journal_entries e
JOIN (SELECT entry_id, SUM(debit) AS d, SUM(credit) AS c FROM journal_lines GROUP BY entry_id) l ON l.entry_id = e.id
WHERE e.tenant_id=$1 AND (ABS(e.total_debit - l.d) > $2 OR ABS(e.total_credit - l.c) > $2)`, tenantID, accounting.AmountTolerance)
	if err != nil {
		return violations, err
	}
	defer headerRows.Close()
	for headerRows.Next() {
		var entryID int64
		var number string
		if err := headerRows.Scan(&entryID, &number); err != nil {
			return violations, err
		}
		violations++
		if c.logger != nil {
			c.logger.Error("entry totals drift from lines",
				slog.String("tenant", tenantID.String()),
				slog.Int64("entry_id", entryID),
				slog.String("number", number))
		}
	}
	return violations, headerRows.Err()
}
