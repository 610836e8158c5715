package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
)

// Row is one posted, immutable general ledger fact. Rows are only ever
// written by the poster; the single permitted mutation is the status flip to
// REVERSED when the parent journal entry is reversed. Balances are never
// rewritten retroactively.
type Row struct {
	ID           int64
	TenantID     uuid.UUID
	AccountID    int64
	AccountCode  string
	AccountName  string
	AccountType  accounting.AccountType
	Date         time.Time
	EntryID      int64
	EntryNumber  string
	Description  string
	Type         accounting.TransactionType
	ProjectID    *uuid.UUID
	Debit        float64
	Credit       float64
	Balance      float64
	Source       *accounting.SourceRef
	FiscalYear   int
	FiscalPeriod int
	Status       accounting.RowStatus
	CreatedAt    time.Time
}

// RowFilter narrows raw ledger row queries.
type RowFilter struct {
	AccountCode string
	Type        accounting.TransactionType
	ProjectID   *uuid.UUID
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// AccountActivity aggregates ACTIVE rows for one account over a window.
type AccountActivity struct {
	Code   string
	Name   string
	Type   accounting.AccountType
	Debit  float64
	Credit float64
}

// Net returns the uniform debit-minus-credit balance of the activity.
func (a AccountActivity) Net() float64 {
	return a.Debit - a.Credit
}
