package coa

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
	"github.com/groundwork-erp/groundwork-erp/internal/shared"
	_ "github.com/groundwork-erp/groundwork-erp/testing"
)

type memoryAccountRepo struct {
	accounts map[string]*Account
	children map[string]*Account
	nextID   int64
}

func newMemoryAccountRepo() *memoryAccountRepo {
	return &memoryAccountRepo{
		accounts: make(map[string]*Account),
		children: make(map[string]*Account),
	}
}

func (r *memoryAccountRepo) key(tenantID uuid.UUID, code string) string {
	return tenantID.String() + ":" + code
}

func (r *memoryAccountRepo) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Account, error) {
	if a, ok := r.accounts[r.key(tenantID, code)]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, shared.NotFoundf("account %s", code)
}

func (r *memoryAccountRepo) FindParentByLeafCode(ctx context.Context, tenantID uuid.UUID, code string) (*Account, error) {
	child, ok := r.children[r.key(tenantID, code)]
	if !ok {
		return nil, shared.NotFoundf("leaf account %s", code)
	}
	for _, a := range r.accounts {
		if a.ID == *child.ParentID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, shared.NotFoundf("leaf account %s", code)
}

func (r *memoryAccountRepo) Insert(ctx context.Context, account Account) (*Account, error) {
	if existing, ok := r.accounts[r.key(account.TenantID, account.Code)]; ok {
		copied := *existing
		return &copied, nil
	}
	r.nextID++
	account.ID = r.nextID
	account.IsActive = true
	r.accounts[r.key(account.TenantID, account.Code)] = &account
	copied := account
	return &copied, nil
}

func (r *memoryAccountRepo) InsertChild(ctx context.Context, parentID int64, account Account) (*Account, error) {
	r.nextID++
	account.ID = r.nextID
	account.ParentID = &parentID
	r.children[r.key(account.TenantID, account.Code)] = &account
	copied := account
	return &copied, nil
}

func (r *memoryAccountRepo) List(ctx context.Context, tenantID uuid.UUID) ([]Account, error) {
	var out []Account
	for _, a := range r.accounts {
		if a.TenantID == tenantID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc := NewService(repo, nil)
	tenant := uuid.New()

	first, err := svc.GetOrCreate(context.Background(), tenant, "1000", "Cash Account", accounting.AccountTypeAsset)
	require.NoError(t, err)
	second, err := svc.GetOrCreate(context.Background(), tenant, "1000", "Renamed Cash", accounting.AccountTypeAsset)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "Cash Account", second.Name)
	require.Len(t, repo.accounts, 1)
}

func TestGetOrCreateDerivesComponent(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc := NewService(repo, nil)
	tenant := uuid.New()

	cases := []struct {
		accountType accounting.AccountType
		component   string
	}{
		{accounting.AccountTypeAsset, "Assets"},
		{accounting.AccountTypeLiability, "Liabilities"},
		{accounting.AccountTypeEquity, "Equity"},
		{accounting.AccountTypeRevenue, "Operating Income"},
		{accounting.AccountTypeExpense, "Operating Expenses"},
	}
	for i, tc := range cases {
		code := string(rune('1'+i)) + "000"
		account, err := svc.GetOrCreate(context.Background(), tenant, code, "Account "+code, tc.accountType)
		require.NoError(t, err)
		require.Equal(t, tc.component, account.Component)
	}
}

func TestGetOrCreateResolvesLeafToParent(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc := NewService(repo, nil)
	tenant := uuid.New()

	parent, err := svc.GetOrCreate(context.Background(), tenant, "5000", "General Expense", accounting.AccountTypeExpense)
	require.NoError(t, err)
	_, err = svc.AddChild(context.Background(), tenant, "5000", "5010", "Diesel", ChildKindList)
	require.NoError(t, err)

	resolved, err := svc.GetOrCreate(context.Background(), tenant, "5010", "Diesel", accounting.AccountTypeExpense)
	require.NoError(t, err)
	require.Equal(t, parent.ID, resolved.ID)
	require.Equal(t, "5000", resolved.Code)
}

func TestGetOrCreateScopedByTenant(t *testing.T) {
	repo := newMemoryAccountRepo()
	svc := NewService(repo, nil)

	tenantA := uuid.New()
	tenantB := uuid.New()
	a, err := svc.GetOrCreate(context.Background(), tenantA, "1000", "Cash Account", accounting.AccountTypeAsset)
	require.NoError(t, err)
	b, err := svc.GetOrCreate(context.Background(), tenantB, "1000", "Cash Account", accounting.AccountTypeAsset)
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)
}
