package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
)

// memoryStore implements the read Store over a plain row slice.
type memoryStore struct {
	rows []Row
}

func (s *memoryStore) active(tenantID uuid.UUID, accountCode string) []Row {
	var out []Row
	for _, row := range s.rows {
		if row.TenantID == tenantID && row.Status == accounting.RowStatusActive &&
			(accountCode == "" || row.AccountCode == accountCode) {
			out = append(out, row)
		}
	}
	return out
}

func (s *memoryStore) SumForAccount(ctx context.Context, tenantID uuid.UUID, accountCode string, asOf *time.Time) (float64, float64, error) {
	var debit, credit float64
	for _, row := range s.active(tenantID, accountCode) {
		if asOf != nil && row.Date.After(*asOf) {
			continue
		}
		debit += row.Debit
		credit += row.Credit
	}
	return debit, credit, nil
}

func (s *memoryStore) SumBefore(ctx context.Context, tenantID uuid.UUID, accountCode string, before time.Time) (float64, error) {
	var net float64
	for _, row := range s.active(tenantID, accountCode) {
		if row.Date.Before(before) {
			net += row.Debit - row.Credit
		}
	}
	return net, nil
}

func (s *memoryStore) RowsForAccount(ctx context.Context, tenantID uuid.UUID, accountCode string, from, to *time.Time) ([]Row, error) {
	var out []Row
	for _, row := range s.active(tenantID, accountCode) {
		if from != nil && row.Date.Before(*from) {
			continue
		}
		if to != nil && row.Date.After(*to) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *memoryStore) ActivityByAccount(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) ([]AccountActivity, error) {
	byCode := map[string]*AccountActivity{}
	var order []string
	for _, row := range s.active(tenantID, "") {
		if from != nil && row.Date.Before(*from) {
			continue
		}
		if to != nil && row.Date.After(*to) {
			continue
		}
		a, ok := byCode[row.AccountCode]
		if !ok {
			a = &AccountActivity{Code: row.AccountCode, Name: row.AccountName, Type: row.AccountType}
			byCode[row.AccountCode] = a
			order = append(order, row.AccountCode)
		}
		a.Debit += row.Debit
		a.Credit += row.Credit
	}
	var out []AccountActivity
	for _, code := range order {
		out = append(out, *byCode[code])
	}
	return out, nil
}

func (s *memoryStore) Rows(ctx context.Context, tenantID uuid.UUID, filter RowFilter) ([]Row, error) {
	var out []Row
	for _, row := range s.rows {
		if row.TenantID != tenantID {
			continue
		}
		if filter.AccountCode != "" && row.AccountCode != filter.AccountCode {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *memoryStore) AccountCodes(ctx context.Context, tenantID uuid.UUID) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, row := range s.rows {
		if row.TenantID == tenantID && !seen[row.AccountCode] {
			seen[row.AccountCode] = true
			out = append(out, row.AccountCode)
		}
	}
	return out, nil
}

func day(d int) time.Time {
	return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC)
}

func cashRows(tenant uuid.UUID) []Row {
	return []Row{
		{TenantID: tenant, AccountCode: "1000", AccountName: "Cash", AccountType: accounting.AccountTypeAsset,
			Date: day(5), Debit: 100, Balance: 100, Status: accounting.RowStatusActive},
		{TenantID: tenant, AccountCode: "1000", AccountName: "Cash", AccountType: accounting.AccountTypeAsset,
			Date: day(10), Debit: 50, Balance: 150, Status: accounting.RowStatusActive},
		{TenantID: tenant, AccountCode: "1000", AccountName: "Cash", AccountType: accounting.AccountTypeAsset,
			Date: day(15), Credit: 30, Balance: 120, Status: accounting.RowStatusActive},
		{TenantID: tenant, AccountCode: "1000", AccountName: "Cash", AccountType: accounting.AccountTypeAsset,
			Date: day(20), Debit: 999, Balance: 1119, Status: accounting.RowStatusReversed},
	}
}

func TestAccountBalanceExcludesReversedRows(t *testing.T) {
	tenant := uuid.New()
	svc := NewQueryService(&memoryStore{rows: cashRows(tenant)})

	summary, err := svc.AccountBalance(context.Background(), tenant, "1000", nil)
	require.NoError(t, err)
	require.Equal(t, 150.0, summary.TotalDebit)
	require.Equal(t, 30.0, summary.TotalCredit)
	require.Equal(t, 120.0, summary.Balance)
}

func TestAccountBalanceAsOfDate(t *testing.T) {
	tenant := uuid.New()
	svc := NewQueryService(&memoryStore{rows: cashRows(tenant)})

	asOf := day(10)
	summary, err := svc.AccountBalance(context.Background(), tenant, "1000", &asOf)
	require.NoError(t, err)
	require.Equal(t, 150.0, summary.Balance)
}

func TestAccountLedgerRecomputesRunningBalance(t *testing.T) {
	tenant := uuid.New()
	svc := NewQueryService(&memoryStore{rows: cashRows(tenant)})

	from := day(10)
	to := day(31)
	statement, err := svc.AccountLedger(context.Background(), tenant, "1000", &from, &to)
	require.NoError(t, err)

	require.Equal(t, 100.0, statement.OpeningBalance, "opening covers rows strictly before the window")
	require.Len(t, statement.Entries, 2)
	require.Equal(t, 150.0, statement.Entries[0].RunningBalance)
	require.Equal(t, 120.0, statement.Entries[1].RunningBalance)
	require.Equal(t, 120.0, statement.ClosingBalance)

	// display-time recomputation reproduces the stored balance column
	for _, line := range statement.Entries {
		require.Equal(t, line.Balance, line.RunningBalance)
	}
}

func TestAccountLedgerWithoutFromStartsAtZero(t *testing.T) {
	tenant := uuid.New()
	svc := NewQueryService(&memoryStore{rows: cashRows(tenant)})

	statement, err := svc.AccountLedger(context.Background(), tenant, "1000", nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0.0, statement.OpeningBalance)
	require.Len(t, statement.Entries, 3)
	require.Equal(t, 120.0, statement.ClosingBalance)
}

func TestAccountLedgerEmptyAccount(t *testing.T) {
	tenant := uuid.New()
	svc := NewQueryService(&memoryStore{})

	statement, err := svc.AccountLedger(context.Background(), tenant, "9999", nil, nil)
	require.NoError(t, err)
	require.Empty(t, statement.Entries)
	require.Equal(t, 0.0, statement.OpeningBalance)
	require.Equal(t, 0.0, statement.ClosingBalance)
}
