package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BalanceSummary aggregates an account's ACTIVE rows.
type BalanceSummary struct {
	AccountCode string
	TotalDebit  float64
	TotalCredit float64
	Balance     float64
}

// LedgerLine is one row of an account ledger with its display-time running
// balance.
type LedgerLine struct {
	Row
	RunningBalance float64
}

// AccountLedger is the per-account statement between two dates.
type AccountLedger struct {
	AccountCode    string
	OpeningBalance float64
	ClosingBalance float64
	Entries        []LedgerLine
}

// QueryService answers account-level read requests from the ledger rows.
type QueryService struct {
	store Store
}

// NewQueryService constructs the query service.
func NewQueryService(store Store) *QueryService {
	return &QueryService{store: store}
}

// AccountBalance aggregates ACTIVE rows with date on or before asOf. The
// balance is the uniform debit-minus-credit net regardless of category.
func (s *QueryService) AccountBalance(ctx context.Context, tenantID uuid.UUID, accountCode string, asOf *time.Time) (BalanceSummary, error) {
	debit, credit, err := s.store.SumForAccount(ctx, tenantID, accountCode, asOf)
	if err != nil {
		return BalanceSummary{}, err
	}
	return BalanceSummary{
		AccountCode: accountCode,
		TotalDebit:  debit,
		TotalCredit: credit,
		Balance:     debit - credit,
	}, nil
}

// AccountLedger returns the account's rows in [from, to] with a running
// balance recomputed from the opening balance. The recomputation covers only
// rows that are currently ACTIVE, so reversed history drops out of the
// statement instead of distorting it.
func (s *QueryService) AccountLedger(ctx context.Context, tenantID uuid.UUID, accountCode string, from, to *time.Time) (*AccountLedger, error) {
	var opening float64
	if from != nil {
		var err error
		opening, err = s.store.SumBefore(ctx, tenantID, accountCode, *from)
		if err != nil {
			return nil, err
		}
	}
	rows, err := s.store.RowsForAccount(ctx, tenantID, accountCode, from, to)
	if err != nil {
		return nil, err
	}
	result := &AccountLedger{
		AccountCode:    accountCode,
		OpeningBalance: opening,
	}
	running := opening
	for _, row := range rows {
		running += row.Debit - row.Credit
		result.Entries = append(result.Entries, LedgerLine{Row: row, RunningBalance: running})
	}
	result.ClosingBalance = running
	return result, nil
}

// Rows answers the raw ledger query surface.
func (s *QueryService) Rows(ctx context.Context, tenantID uuid.UUID, filter RowFilter) ([]Row, error) {
	return s.store.Rows(ctx, tenantID, filter)
}
