package journal

import (
	"time"

	"github.com/google/uuid"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
	"github.com/groundwork-erp/groundwork-erp/internal/shared"
)

// Entry is the atomic accounting transaction.
type Entry struct {
	ID          int64
	TenantID    uuid.UUID
	Number      string
	Date        time.Time
	Type        accounting.TransactionType
	Description string
	Source      *accounting.SourceRef
	ProjectID   *uuid.UUID
	Lines       []Line
	TotalDebit  float64
	TotalCredit float64
	Status      accounting.EntryStatus
	PostedAt    *time.Time
	ReversalOf  *int64
	ReversedBy  *int64
	CreatedBy   string
	ApprovedBy  string
	ApprovedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Line is one row within a journal entry. Account code, name and category are
// snapshotted at creation and intentionally not kept in sync with later
// account renames.
type Line struct {
	ID          int64
	EntryID     int64
	AccountID   int64
	AccountCode string
	AccountName string
	AccountType accounting.AccountType
	Debit       float64
	Credit      float64
	Description string
	CreatedAt   time.Time
}

// CreateInput groups the fields required to create a journal entry.
type CreateInput struct {
	TenantID    uuid.UUID
	Date        time.Time
	Type        accounting.TransactionType
	Description string
	Source      *accounting.SourceRef
	ProjectID   *uuid.UUID
	Lines       []accounting.LineInput
	CreatedBy   string
	Draft       bool
}

// Validate checks the input before any write.
func (in CreateInput) Validate() error {
	if in.TenantID == uuid.Nil {
		return shared.NewValidationError("tenant id required")
	}
	if in.Date.IsZero() {
		return shared.NewValidationError("transaction date required")
	}
	return accounting.ValidateLines(in.Lines)
}

// UpdateInput carries the editable fields of a draft entry.
type UpdateInput struct {
	TenantID    uuid.UUID
	EntryID     int64
	Date        time.Time
	Type        accounting.TransactionType
	Description string
	ProjectID   *uuid.UUID
	Lines       []accounting.LineInput
	ActorID     string
}

// ListFilter narrows entry listings. Zero values are ignored.
type ListFilter struct {
	Type        accounting.TransactionType
	Status      accounting.EntryStatus
	SourceModel string
	From        *time.Time
	To          *time.Time
	Page        int
	PerPage     int
}
