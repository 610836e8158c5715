package coa

import (
	"time"

	"github.com/google/uuid"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
)

// ChildKind distinguishes nested sub-accounts from flat list-accounts.
type ChildKind string

const (
	ChildKindSub  ChildKind = "SUB"
	ChildKindList ChildKind = "LIST"
)

// Account models a chart of accounts node. Top-level accounts carry ledger
// identity; child rows (sub/list accounts) only act as a leaf-code index that
// resolves to their parent.
type Account struct {
	ID        int64
	TenantID  uuid.UUID
	Code      string
	Name      string
	Type      accounting.AccountType
	Component string
	ParentID  *int64
	ChildKind *ChildKind
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsLeafOnly reports whether the account is a child row without ledger identity.
func (a Account) IsLeafOnly() bool {
	return a.ParentID != nil
}
