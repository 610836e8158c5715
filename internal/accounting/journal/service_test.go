package journal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/ledger"
	"github.com/groundwork-erp/groundwork-erp/internal/shared"
	_ "github.com/groundwork-erp/groundwork-erp/testing"
)

// memoryRepo backs the journal engine with maps. WithTx applies fn directly;
// transactional atomicity is the real repository's concern.
type memoryRepo struct {
	entries     map[int64]*Entry
	lines       map[int64][]Line
	rows        []*ledger.Row
	seqs        map[string]int64
	nextEntryID int64
	nextLineID  int64
	nextRowID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		entries: make(map[int64]*Entry),
		lines:   make(map[int64][]Line),
		seqs:    make(map[string]int64),
	}
}

func (r *memoryRepo) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]Entry, int, error) {
	var out []Entry
	for _, e := range r.entries {
		if e.TenantID != tenantID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Get(ctx context.Context, tenantID uuid.UUID, entryID int64) (*Entry, error) {
	return (&memoryTx{r}).GetEntryWithLines(ctx, tenantID, entryID)
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{r})
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) NextEntryNumber(ctx context.Context, tenantID uuid.UUID, year int) (int64, error) {
	key := fmt.Sprintf("%s:%d", tenantID, year)
	t.repo.seqs[key]++
	return t.repo.seqs[key], nil
}

func (t *memoryTx) InsertEntry(ctx context.Context, entry *Entry) error {
	t.repo.nextEntryID++
	entry.ID = t.repo.nextEntryID
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	copied := *entry
	t.repo.entries[entry.ID] = &copied
	return nil
}

func (t *memoryTx) InsertLines(ctx context.Context, entryID int64, lines []Line) error {
	for i := range lines {
		t.repo.nextLineID++
		lines[i].ID = t.repo.nextLineID
		lines[i].EntryID = entryID
		lines[i].CreatedAt = time.Now()
	}
	t.repo.lines[entryID] = append([]Line(nil), lines...)
	return nil
}

func (t *memoryTx) DeleteLines(ctx context.Context, entryID int64) error {
	delete(t.repo.lines, entryID)
	return nil
}

func (t *memoryTx) GetEntryWithLines(ctx context.Context, tenantID uuid.UUID, entryID int64) (*Entry, error) {
	e, ok := t.repo.entries[entryID]
	if !ok || e.TenantID != tenantID {
		return nil, shared.NotFoundf("journal entry %d", entryID)
	}
	copied := *e
	copied.Lines = append([]Line(nil), t.repo.lines[entryID]...)
	return &copied, nil
}

func (t *memoryTx) UpdateEntryStatus(ctx context.Context, tenantID uuid.UUID, entryID int64, status accounting.EntryStatus, postedAt *time.Time, approvedBy *string, reversedBy *int64) error {
	e, ok := t.repo.entries[entryID]
	if !ok || e.TenantID != tenantID {
		return shared.NotFoundf("journal entry %d", entryID)
	}
	e.Status = status
	if postedAt != nil {
		e.PostedAt = postedAt
	}
	if approvedBy != nil {
		e.ApprovedBy = *approvedBy
		e.ApprovedAt = postedAt
	}
	if reversedBy != nil {
		e.ReversedBy = reversedBy
	}
	e.UpdatedAt = time.Now()
	return nil
}

func (t *memoryTx) UpdateDraft(ctx context.Context, entry *Entry) error {
	e, ok := t.repo.entries[entry.ID]
	if !ok || e.TenantID != entry.TenantID || e.Status != accounting.EntryStatusDraft {
		return shared.NotFoundf("draft journal entry %d", entry.ID)
	}
	e.Date = entry.Date
	e.Type = entry.Type
	e.Description = entry.Description
	e.ProjectID = entry.ProjectID
	e.TotalDebit = entry.TotalDebit
	e.TotalCredit = entry.TotalCredit
	e.UpdatedAt = time.Now()
	return nil
}

func (t *memoryTx) DeleteDraft(ctx context.Context, tenantID uuid.UUID, entryID int64) error {
	e, ok := t.repo.entries[entryID]
	if !ok || e.TenantID != tenantID || e.Status != accounting.EntryStatusDraft {
		return shared.NotFoundf("draft journal entry %d", entryID)
	}
	delete(t.repo.entries, entryID)
	delete(t.repo.lines, entryID)
	return nil
}

func (t *memoryTx) MarkRowsReversed(ctx context.Context, tenantID uuid.UUID, entryID int64) error {
	for _, row := range t.repo.rows {
		if row.TenantID == tenantID && row.EntryID == entryID {
			row.Status = accounting.RowStatusReversed
		}
	}
	return nil
}

func (t *memoryTx) LatestActiveBalance(ctx context.Context, tenantID uuid.UUID, accountCode string) (float64, bool, error) {
	for i := len(t.repo.rows) - 1; i >= 0; i-- {
		row := t.repo.rows[i]
		if row.TenantID == tenantID && row.AccountCode == accountCode && row.Status == accounting.RowStatusActive {
			return row.Balance, true, nil
		}
	}
	return 0, false, nil
}

func (t *memoryTx) InsertRow(ctx context.Context, row *ledger.Row) error {
	t.repo.nextRowID++
	row.ID = t.repo.nextRowID
	row.CreatedAt = time.Now()
	copied := *row
	t.repo.rows = append(t.repo.rows, &copied)
	return nil
}

func (r *memoryRepo) activeRows(tenantID uuid.UUID, accountCode string) []*ledger.Row {
	var out []*ledger.Row
	for _, row := range r.rows {
		if row.TenantID == tenantID && row.Status == accounting.RowStatusActive &&
			(accountCode == "" || row.AccountCode == accountCode) {
			out = append(out, row)
		}
	}
	return out
}

type fakeAudit struct {
	logs []shared.AuditLog
}

func (a *fakeAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type fakeBumper struct {
	bumps int
}

func (b *fakeBumper) Bump(ctx context.Context, tenantID uuid.UUID) error {
	b.bumps++
	return nil
}

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	return NewService(repo, nil, nil, nil), repo
}

func twoLines(debitCode, creditCode string, amount float64) []accounting.LineInput {
	return []accounting.LineInput{
		{AccountID: 1, AccountCode: debitCode, AccountName: debitCode, AccountType: accounting.AccountTypeAsset, Debit: amount},
		{AccountID: 2, AccountCode: creditCode, AccountName: creditCode, AccountType: accounting.AccountTypeRevenue, Credit: amount},
	}
}

func TestCreatePostsBalancedEntry(t *testing.T) {
	svc, repo := newTestService()
	tenant := uuid.New()
	date := time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC)

	entry, err := svc.Create(context.Background(), CreateInput{
		TenantID:    tenant,
		Date:        date,
		Type:        accounting.TransactionTypeSale,
		Description: "Cash sale",
		Lines:       twoLines("1000", "4000", 150),
		CreatedBy:   "user-1",
	})
	require.NoError(t, err)

	require.Equal(t, "JE-2026-000001", entry.Number)
	require.Equal(t, accounting.EntryStatusPosted, entry.Status)
	require.NotNil(t, entry.PostedAt)
	require.Equal(t, 150.0, entry.TotalDebit)
	require.Equal(t, 150.0, entry.TotalCredit)
	require.Len(t, entry.Lines, 2)

	rows := repo.activeRows(tenant, "")
	require.Len(t, rows, 2)
	for _, row := range rows {
		require.Equal(t, entry.ID, row.EntryID)
		require.Equal(t, entry.Number, row.EntryNumber)
		require.Equal(t, 2026, row.FiscalYear)
		require.Equal(t, 5, row.FiscalPeriod)
	}
}

func TestCreateRejectsImbalancedLines(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Create(context.Background(), CreateInput{
		TenantID: uuid.New(),
		Date:     time.Now(),
		Lines: []accounting.LineInput{
			{AccountCode: "1000", AccountName: "Cash", AccountType: accounting.AccountTypeAsset, Debit: 100},
			{AccountCode: "4000", AccountName: "Revenue", AccountType: accounting.AccountTypeRevenue, Credit: 99},
		},
		CreatedBy: "user-1",
	})
	require.True(t, shared.IsValidation(err))
	require.Contains(t, err.Error(), "not balanced")
	require.Empty(t, repo.entries)
	require.Empty(t, repo.rows)
}

func TestCreateToleratesRoundingDrift(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateInput{
		TenantID: uuid.New(),
		Date:     time.Now(),
		Lines: []accounting.LineInput{
			{AccountCode: "1000", AccountName: "Cash", AccountType: accounting.AccountTypeAsset, Debit: 100.005},
			{AccountCode: "4000", AccountName: "Revenue", AccountType: accounting.AccountTypeRevenue, Credit: 100},
		},
		CreatedBy: "user-1",
	})
	require.NoError(t, err)
}

func TestCreateRejectsMalformedLines(t *testing.T) {
	svc, _ := newTestService()
	tenant := uuid.New()

	cases := []struct {
		name  string
		lines []accounting.LineInput
	}{
		{"single line", []accounting.LineInput{
			{AccountCode: "1000", Debit: 100},
		}},
		{"both sides set", []accounting.LineInput{
			{AccountCode: "1000", Debit: 100, Credit: 100},
			{AccountCode: "4000", Credit: 100},
		}},
		{"neither side set", []accounting.LineInput{
			{AccountCode: "1000"},
			{AccountCode: "4000", Credit: 0},
		}},
		{"negative amount", []accounting.LineInput{
			{AccountCode: "1000", Debit: -50},
			{AccountCode: "4000", Credit: -50},
		}},
		{"missing account code", []accounting.LineInput{
			{Debit: 50},
			{AccountCode: "4000", Credit: 50},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), CreateInput{
				TenantID: tenant, Date: time.Now(), Lines: tc.lines, CreatedBy: "u",
			})
			require.True(t, shared.IsValidation(err))
		})
	}
}

func TestEntryNumbersSequencePerTenantYear(t *testing.T) {
	svc, _ := newTestService()
	tenantA := uuid.New()
	tenantB := uuid.New()
	in2026 := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	in2027 := time.Date(2027, 1, 10, 0, 0, 0, 0, time.UTC)

	create := func(tenant uuid.UUID, date time.Time) string {
		entry, err := svc.Create(context.Background(), CreateInput{
			TenantID: tenant, Date: date, Lines: twoLines("1000", "4000", 10), CreatedBy: "u",
		})
		require.NoError(t, err)
		return entry.Number
	}

	require.Equal(t, "JE-2026-000001", create(tenantA, in2026))
	require.Equal(t, "JE-2026-000002", create(tenantA, in2026))
	require.Equal(t, "JE-2027-000001", create(tenantA, in2027))
	require.Equal(t, "JE-2026-000001", create(tenantB, in2026))
}

func TestRunningBalancePerAccount(t *testing.T) {
	svc, repo := newTestService()
	tenant := uuid.New()
	date := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	post := func(lines []accounting.LineInput) {
		_, err := svc.Create(context.Background(), CreateInput{
			TenantID: tenant, Date: date, Lines: lines, CreatedBy: "u",
		})
		require.NoError(t, err)
	}

	post(twoLines("1000", "4000", 100)) // cash 100
	post(twoLines("1000", "4000", 50))  // cash 150
	post([]accounting.LineInput{        // cash 120
		{AccountCode: "5000", AccountName: "Expense", AccountType: accounting.AccountTypeExpense, Debit: 30},
		{AccountCode: "1000", AccountName: "Cash", AccountType: accounting.AccountTypeAsset, Credit: 30},
	})

	cash := repo.activeRows(tenant, "1000")
	require.Len(t, cash, 3)
	require.Equal(t, 100.0, cash[0].Balance)
	require.Equal(t, 150.0, cash[1].Balance)
	require.Equal(t, 120.0, cash[2].Balance)

	revenue := repo.activeRows(tenant, "4000")
	require.Equal(t, -150.0, revenue[len(revenue)-1].Balance)
}

func TestLedgerStaysBalancedAcrossEntries(t *testing.T) {
	svc, repo := newTestService()
	tenant := uuid.New()

	amounts := []float64{100, 33.33, 250.5, 7.41}
	for _, amount := range amounts {
		_, err := svc.Create(context.Background(), CreateInput{
			TenantID: tenant, Date: time.Now(), Lines: twoLines("1000", "4000", amount), CreatedBy: "u",
		})
		require.NoError(t, err)
	}

	var debit, credit float64
	for _, row := range repo.activeRows(tenant, "") {
		debit += row.Debit
		credit += row.Credit
	}
	require.InDelta(t, debit, credit, accounting.AmountTolerance)
}

func TestReverseRoundTrip(t *testing.T) {
	svc, repo := newTestService()
	tenant := uuid.New()
	date := time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)

	original, err := svc.Create(context.Background(), CreateInput{
		TenantID: tenant, Date: date, Type: accounting.TransactionTypeSale,
		Description: "Sale to reverse", Lines: twoLines("1000", "4000", 200), CreatedBy: "u",
	})
	require.NoError(t, err)

	reversal, err := svc.Reverse(context.Background(), tenant, original.ID, "admin", "entered twice")
	require.NoError(t, err)

	require.Equal(t, accounting.TransactionTypeAdjustment, reversal.Type)
	require.Equal(t, "Reversal: entered twice", reversal.Description)
	require.Equal(t, original.Date, reversal.Date)
	require.Equal(t, &original.ID, reversal.ReversalOf)
	require.Equal(t, 200.0, reversal.TotalDebit)
	require.Equal(t, 200.0, reversal.TotalCredit)

	// lines are swapped per line
	require.Equal(t, original.Lines[0].Debit, reversal.Lines[0].Credit)
	require.Equal(t, original.Lines[1].Credit, reversal.Lines[1].Debit)

	stored, err := svc.Get(context.Background(), tenant, original.ID)
	require.NoError(t, err)
	require.Equal(t, accounting.EntryStatusReversed, stored.Status)
	require.Equal(t, &reversal.ID, stored.ReversedBy)

	// both entries' rows flipped, so active balances return to pre-entry values
	for _, row := range repo.rows {
		if row.EntryID == original.ID || row.EntryID == reversal.ID {
			require.Equal(t, accounting.RowStatusReversed, row.Status)
		}
	}
	var net float64
	for _, row := range repo.activeRows(tenant, "1000") {
		net += row.Debit - row.Credit
	}
	require.InDelta(t, 0, net, accounting.AmountTolerance)
}

func TestReverseRequiresReason(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Reverse(context.Background(), uuid.New(), 1, "admin", "")
	require.True(t, shared.IsValidation(err))
}

func TestReverseTwiceFails(t *testing.T) {
	svc, _ := newTestService()
	tenant := uuid.New()

	entry, err := svc.Create(context.Background(), CreateInput{
		TenantID: tenant, Date: time.Now(), Lines: twoLines("1000", "4000", 80), CreatedBy: "u",
	})
	require.NoError(t, err)

	_, err = svc.Reverse(context.Background(), tenant, entry.ID, "admin", "first")
	require.NoError(t, err)
	_, err = svc.Reverse(context.Background(), tenant, entry.ID, "admin", "second")
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestReverseDraftFails(t *testing.T) {
	svc, _ := newTestService()
	tenant := uuid.New()

	draft, err := svc.Create(context.Background(), CreateInput{
		TenantID: tenant, Date: time.Now(), Lines: twoLines("1000", "4000", 80), CreatedBy: "u", Draft: true,
	})
	require.NoError(t, err)

	_, err = svc.Reverse(context.Background(), tenant, draft.ID, "admin", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestDraftLifecycle(t *testing.T) {
	svc, repo := newTestService()
	tenant := uuid.New()
	date := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	draft, err := svc.Create(context.Background(), CreateInput{
		TenantID: tenant, Date: date, Description: "pending approval",
		Lines: twoLines("1000", "4000", 60), CreatedBy: "u", Draft: true,
	})
	require.NoError(t, err)
	require.Equal(t, accounting.EntryStatusDraft, draft.Status)
	require.Nil(t, draft.PostedAt)
	require.Empty(t, repo.rows, "drafts must not touch the ledger")

	updated, err := svc.Update(context.Background(), UpdateInput{
		TenantID: tenant, EntryID: draft.ID, Date: date,
		Description: "approved wording", Lines: twoLines("1000", "4000", 75), ActorID: "u",
	})
	require.NoError(t, err)
	require.Equal(t, 75.0, updated.TotalDebit)

	posted, err := svc.Post(context.Background(), tenant, draft.ID, "approver")
	require.NoError(t, err)
	require.Equal(t, accounting.EntryStatusPosted, posted.Status)
	require.NotNil(t, posted.PostedAt)
	require.Len(t, repo.activeRows(tenant, ""), 2)

	// the approver must survive a round trip through storage
	stored, err := svc.Get(context.Background(), tenant, draft.ID)
	require.NoError(t, err)
	require.Equal(t, "approver", stored.ApprovedBy)
	require.NotNil(t, stored.ApprovedAt)
	require.Equal(t, stored.PostedAt, stored.ApprovedAt)

	_, err = svc.Post(context.Background(), tenant, draft.ID, "approver")
	require.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = svc.Update(context.Background(), UpdateInput{
		TenantID: tenant, EntryID: draft.ID, Date: date, Lines: twoLines("1000", "4000", 10), ActorID: "u",
	})
	require.ErrorIs(t, err, shared.ErrInvalidState)

	err = svc.Delete(context.Background(), tenant, draft.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestDeleteDraft(t *testing.T) {
	svc, repo := newTestService()
	tenant := uuid.New()

	draft, err := svc.Create(context.Background(), CreateInput{
		TenantID: tenant, Date: time.Now(), Lines: twoLines("1000", "4000", 40), CreatedBy: "u", Draft: true,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), tenant, draft.ID))
	require.Empty(t, repo.entries)

	_, err = svc.Get(context.Background(), tenant, draft.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestTenantIsolation(t *testing.T) {
	svc, _ := newTestService()
	tenantA := uuid.New()
	tenantB := uuid.New()

	entry, err := svc.Create(context.Background(), CreateInput{
		TenantID: tenantA, Date: time.Now(), Lines: twoLines("1000", "4000", 20), CreatedBy: "u",
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), tenantB, entry.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
	_, err = svc.Reverse(context.Background(), tenantB, entry.ID, "admin", "cross tenant")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPostingBumpsCacheAndAudits(t *testing.T) {
	repo := newMemoryRepo()
	audit := &fakeAudit{}
	bumper := &fakeBumper{}
	svc := NewService(repo, audit, bumper, nil)
	fixed := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	svc.WithNow(func() time.Time { return fixed })
	tenant := uuid.New()

	entry, err := svc.Create(context.Background(), CreateInput{
		TenantID: tenant, Date: fixed, Lines: twoLines("1000", "4000", 90), CreatedBy: "user-9",
	})
	require.NoError(t, err)
	require.Equal(t, fixed, *entry.PostedAt)

	require.Equal(t, 1, bumper.bumps)
	require.Len(t, audit.logs, 1)
	require.Equal(t, "journal.post", audit.logs[0].Action)
	require.Equal(t, "user-9", audit.logs[0].ActorID)

	_, err = svc.Reverse(context.Background(), tenant, entry.ID, "admin", "oops")
	require.NoError(t, err)
	require.Equal(t, 2, bumper.bumps)
	require.Equal(t, "journal.reverse", audit.logs[1].Action)
}
