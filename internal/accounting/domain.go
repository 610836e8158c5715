package accounting

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/groundwork-erp/groundwork-erp/internal/shared"
)

// AmountTolerance is the accepted float drift when comparing monetary totals.
const AmountTolerance = 0.01

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// FinancialComponent maps the category to its statement grouping label.
func (t AccountType) FinancialComponent() string {
	switch t {
	case AccountTypeAsset:
		return "Assets"
	case AccountTypeLiability:
		return "Liabilities"
	case AccountTypeEquity:
		return "Equity"
	case AccountTypeRevenue:
		return "Operating Income"
	case AccountTypeExpense:
		return "Operating Expenses"
	default:
		return "Other"
	}
}

// TransactionType tags a journal entry with its business origin.
type TransactionType string

const (
	TransactionTypeSale           TransactionType = "SALE"
	TransactionTypePurchase       TransactionType = "PURCHASE"
	TransactionTypePayment        TransactionType = "PAYMENT"
	TransactionTypeReceipt        TransactionType = "RECEIPT"
	TransactionTypeJournal        TransactionType = "JOURNAL"
	TransactionTypeOpeningBalance TransactionType = "OPENING_BALANCE"
	TransactionTypeAdjustment     TransactionType = "ADJUSTMENT"
	TransactionTypeBooking        TransactionType = "BOOKING"
)

// EntryStatus enumerates journal entry lifecycle values.
type EntryStatus string

const (
	EntryStatusDraft     EntryStatus = "DRAFT"
	EntryStatusPosted    EntryStatus = "POSTED"
	EntryStatusReversed  EntryStatus = "REVERSED"
	EntryStatusCancelled EntryStatus = "CANCELLED"
)

// RowStatus enumerates general ledger row states.
type RowStatus string

const (
	RowStatusActive    RowStatus = "ACTIVE"
	RowStatusReversed  RowStatus = "REVERSED"
	RowStatusCancelled RowStatus = "CANCELLED"
)

// SourceRef links a posting back to the originating business document.
type SourceRef struct {
	Model     string
	ID        uuid.UUID
	Reference string
}

// LineInput is one debit-or-credit leg of a posting request. Account code,
// name and type are snapshotted onto the stored line so later renames do not
// rewrite history.
type LineInput struct {
	AccountID   int64
	AccountCode string
	AccountName string
	AccountType AccountType
	Debit       float64
	Credit      float64
	Description string
}

// SumLines totals the debit and credit sides.
func SumLines(lines []LineInput) (debit, credit float64) {
	for _, line := range lines {
		debit += line.Debit
		credit += line.Credit
	}
	return debit, credit
}

// ValidateLines enforces the double-entry invariants: at least two lines,
// every line exactly one of debit/credit strictly positive, and the two
// sides balanced within AmountTolerance.
func ValidateLines(lines []LineInput) error {
	if len(lines) < 2 {
		return shared.NewValidationError("journal entry requires at least two lines")
	}
	for idx, line := range lines {
		if line.AccountCode == "" {
			return shared.NewValidationError(fmt.Sprintf("line %d missing account code", idx))
		}
		if line.Debit < 0 || line.Credit < 0 {
			return shared.NewValidationError(fmt.Sprintf("line %d has a negative amount", idx))
		}
		if line.Debit > 0 && line.Credit > 0 {
			return shared.NewValidationError(fmt.Sprintf("line %d has both debit and credit", idx))
		}
		if line.Debit == 0 && line.Credit == 0 {
			return shared.NewValidationError(fmt.Sprintf("line %d has neither debit nor credit", idx))
		}
	}
	debit, credit := SumLines(lines)
	if math.Abs(debit-credit) > AmountTolerance {
		return &shared.ValidationError{Reason: "journal entry is not balanced", TotalDebit: debit, TotalCredit: credit}
	}
	return nil
}

// FiscalPeriod derives the fiscal year and period (calendar month 1-12)
// from a transaction date.
func FiscalPeriod(date time.Time) (year int, period int) {
	return date.Year(), int(date.Month())
}

// EntryNumber formats the user-facing sequential identifier for a journal
// entry, scoped per tenant per calendar year.
func EntryNumber(year int, seq int64) string {
	return fmt.Sprintf("JE-%d-%06d", year, seq)
}
