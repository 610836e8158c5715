package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
	_ "github.com/groundwork-erp/groundwork-erp/testing"
)

type memoryTxStore struct {
	rows   []*Row
	nextID int64
}

func (s *memoryTxStore) LatestActiveBalance(ctx context.Context, tenantID uuid.UUID, accountCode string) (float64, bool, error) {
	for i := len(s.rows) - 1; i >= 0; i-- {
		row := s.rows[i]
		if row.TenantID == tenantID && row.AccountCode == accountCode && row.Status == accounting.RowStatusActive {
			return row.Balance, true, nil
		}
	}
	return 0, false, nil
}

func (s *memoryTxStore) InsertRow(ctx context.Context, row *Row) error {
	s.nextID++
	row.ID = s.nextID
	row.CreatedAt = time.Now()
	copied := *row
	s.rows = append(s.rows, &copied)
	return nil
}

func testEntry(tenant uuid.UUID, id int64, date time.Time) EntryRef {
	return EntryRef{
		ID:          id,
		TenantID:    tenant,
		Number:      accounting.EntryNumber(date.Year(), id),
		Date:        date,
		Type:        accounting.TransactionTypeJournal,
		Description: "test posting",
	}
}

func TestPostEntryExpandsOneRowPerLine(t *testing.T) {
	store := &memoryTxStore{}
	tenant := uuid.New()
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	rows, err := PostEntry(context.Background(), store, testEntry(tenant, 1, date), []PostLine{
		{AccountCode: "1000", AccountName: "Cash", AccountType: accounting.AccountTypeAsset, Debit: 500, Description: "cash in"},
		{AccountCode: "4000", AccountName: "Revenue", AccountType: accounting.AccountTypeRevenue, Credit: 500},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, 500.0, rows[0].Balance)
	require.Equal(t, -500.0, rows[1].Balance)
	require.Equal(t, accounting.RowStatusActive, rows[0].Status)
	require.Equal(t, 2026, rows[0].FiscalYear)
	require.Equal(t, 3, rows[0].FiscalPeriod)
	require.Equal(t, "cash in", rows[0].Description)
	require.Equal(t, "test posting", rows[1].Description, "blank line description falls back to the entry")
}

func TestPostEntryChainsRunningBalance(t *testing.T) {
	store := &memoryTxStore{}
	tenant := uuid.New()
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	_, err := PostEntry(context.Background(), store, testEntry(tenant, 1, date), []PostLine{
		{AccountCode: "1000", AccountType: accounting.AccountTypeAsset, Debit: 100},
		{AccountCode: "4000", AccountType: accounting.AccountTypeRevenue, Credit: 100},
	})
	require.NoError(t, err)
	rows, err := PostEntry(context.Background(), store, testEntry(tenant, 2, date), []PostLine{
		{AccountCode: "5000", AccountType: accounting.AccountTypeExpense, Debit: 40},
		{AccountCode: "1000", AccountType: accounting.AccountTypeAsset, Credit: 40},
	})
	require.NoError(t, err)

	require.Equal(t, 40.0, rows[0].Balance)
	require.Equal(t, 60.0, rows[1].Balance, "cash balance continues from the prior row")
}

func TestPostEntryIgnoresReversedRowsForBalance(t *testing.T) {
	store := &memoryTxStore{}
	tenant := uuid.New()
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	_, err := PostEntry(context.Background(), store, testEntry(tenant, 1, date), []PostLine{
		{AccountCode: "1000", AccountType: accounting.AccountTypeAsset, Debit: 100},
		{AccountCode: "4000", AccountType: accounting.AccountTypeRevenue, Credit: 100},
	})
	require.NoError(t, err)
	for _, row := range store.rows {
		row.Status = accounting.RowStatusReversed
	}

	rows, err := PostEntry(context.Background(), store, testEntry(tenant, 2, date), []PostLine{
		{AccountCode: "1000", AccountType: accounting.AccountTypeAsset, Debit: 25},
		{AccountCode: "4000", AccountType: accounting.AccountTypeRevenue, Credit: 25},
	})
	require.NoError(t, err)
	require.Equal(t, 25.0, rows[0].Balance)
}

func TestPostEntryScopesBalanceByTenant(t *testing.T) {
	store := &memoryTxStore{}
	tenantA := uuid.New()
	tenantB := uuid.New()
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	_, err := PostEntry(context.Background(), store, testEntry(tenantA, 1, date), []PostLine{
		{AccountCode: "1000", AccountType: accounting.AccountTypeAsset, Debit: 999},
		{AccountCode: "4000", AccountType: accounting.AccountTypeRevenue, Credit: 999},
	})
	require.NoError(t, err)

	rows, err := PostEntry(context.Background(), store, testEntry(tenantB, 2, date), []PostLine{
		{AccountCode: "1000", AccountType: accounting.AccountTypeAsset, Debit: 10},
		{AccountCode: "4000", AccountType: accounting.AccountTypeRevenue, Credit: 10},
	})
	require.NoError(t, err)
	require.Equal(t, 10.0, rows[0].Balance)
}
