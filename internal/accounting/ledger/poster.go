package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
)

// TxStore is the slice of transactional storage the poster writes through.
// The journal engine's transaction repository implements it so entry creation
// and ledger expansion commit or roll back together.
type TxStore interface {
	LatestActiveBalance(ctx context.Context, tenantID uuid.UUID, accountCode string) (float64, bool, error)
	InsertRow(ctx context.Context, row *Row) error
}

// EntryRef carries the journal entry fields each ledger row denormalises.
type EntryRef struct {
	ID          int64
	TenantID    uuid.UUID
	Number      string
	Date        time.Time
	Type        accounting.TransactionType
	Description string
	ProjectID   *uuid.UUID
	Source      *accounting.SourceRef
}

// PostLine is one journal line to expand into a ledger row.
type PostLine struct {
	AccountID   int64
	AccountCode string
	AccountName string
	AccountType accounting.AccountType
	Debit       float64
	Credit      float64
	Description string
}

// PostEntry expands a posted journal entry into one ACTIVE ledger row per
// line. The running balance is uniformly previous + debit - credit for every
// account category; category-aware signs are applied only at statement
// presentation time. Idempotency is the caller's contract: posting the same
// entry twice duplicates rows, so this runs exactly once per entry creation
// or reversal, inside the creating transaction.
func PostEntry(ctx context.Context, store TxStore, entry EntryRef, lines []PostLine) ([]Row, error) {
	year, period := accounting.FiscalPeriod(entry.Date)
	rows := make([]Row, 0, len(lines))
	for _, line := range lines {
		previous, _, err := store.LatestActiveBalance(ctx, entry.TenantID, line.AccountCode)
		if err != nil {
			return nil, err
		}
		description := line.Description
		if description == "" {
			description = entry.Description
		}
		row := Row{
			TenantID:     entry.TenantID,
			AccountID:    line.AccountID,
			AccountCode:  line.AccountCode,
			AccountName:  line.AccountName,
			AccountType:  line.AccountType,
			Date:         entry.Date,
			EntryID:      entry.ID,
			EntryNumber:  entry.Number,
			Description:  description,
			Type:         entry.Type,
			ProjectID:    entry.ProjectID,
			Debit:        line.Debit,
			Credit:       line.Credit,
			Balance:      previous + line.Debit - line.Credit,
			Source:       entry.Source,
			FiscalYear:   year,
			FiscalPeriod: period,
			Status:       accounting.RowStatusActive,
		}
		if err := store.InsertRow(ctx, &row); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
