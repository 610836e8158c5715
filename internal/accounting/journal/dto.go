package journal

import (
	"time"

	"github.com/google/uuid"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
	"github.com/groundwork-erp/groundwork-erp/internal/shared"
)

type lineRequest struct {
	AccountID   int64   `json:"account_id"`
	AccountCode string  `json:"account_code" validate:"required"`
	AccountName string  `json:"account_name"`
	AccountType string  `json:"account_type" validate:"omitempty,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	Debit       float64 `json:"debit" validate:"gte=0"`
	Credit      float64 `json:"credit" validate:"gte=0"`
	Description string  `json:"description"`
}

type createRequest struct {
	Date        string        `json:"date" validate:"required"`
	Type        string        `json:"type" validate:"omitempty,oneof=SALE PURCHASE PAYMENT RECEIPT JOURNAL OPENING_BALANCE ADJUSTMENT BOOKING"`
	Description string        `json:"description"`
	ProjectID   *uuid.UUID    `json:"project_id"`
	Lines       []lineRequest `json:"lines" validate:"required,min=2,dive"`
	Draft       bool          `json:"draft"`
}

type updateRequest struct {
	Date        string        `json:"date" validate:"required"`
	Type        string        `json:"type" validate:"omitempty,oneof=SALE PURCHASE PAYMENT RECEIPT JOURNAL OPENING_BALANCE ADJUSTMENT BOOKING"`
	Description string        `json:"description"`
	ProjectID   *uuid.UUID    `json:"project_id"`
	Lines       []lineRequest `json:"lines" validate:"required,min=2,dive"`
}

type reverseRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (r createRequest) toInput(tenantID uuid.UUID, actor string) (CreateInput, error) {
	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return CreateInput{}, shared.NewValidationError("date must be YYYY-MM-DD")
	}
	return CreateInput{
		TenantID:    tenantID,
		Date:        date,
		Type:        accounting.TransactionType(r.Type),
		Description: r.Description,
		ProjectID:   r.ProjectID,
		Lines:       toLineInputs(r.Lines),
		CreatedBy:   actor,
		Draft:       r.Draft,
	}, nil
}

func (r updateRequest) toInput(tenantID uuid.UUID, entryID int64, actor string) (UpdateInput, error) {
	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return UpdateInput{}, shared.NewValidationError("date must be YYYY-MM-DD")
	}
	return UpdateInput{
		TenantID:    tenantID,
		EntryID:     entryID,
		Date:        date,
		Type:        accounting.TransactionType(r.Type),
		Description: r.Description,
		ProjectID:   r.ProjectID,
		Lines:       toLineInputs(r.Lines),
		ActorID:     actor,
	}, nil
}

func toLineInputs(lines []lineRequest) []accounting.LineInput {
	out := make([]accounting.LineInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, accounting.LineInput{
			AccountID:   l.AccountID,
			AccountCode: l.AccountCode,
			AccountName: l.AccountName,
			AccountType: accounting.AccountType(l.AccountType),
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
		})
	}
	return out
}

type lineResponse struct {
	ID          int64   `json:"id"`
	AccountID   int64   `json:"account_id"`
	AccountCode string  `json:"account_code"`
	AccountName string  `json:"account_name"`
	AccountType string  `json:"account_type"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
	Description string  `json:"description"`
}

type entryResponse struct {
	ID          int64          `json:"id"`
	Number      string         `json:"number"`
	Date        string         `json:"date"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	ProjectID   *uuid.UUID     `json:"project_id,omitempty"`
	SourceModel string         `json:"source_model,omitempty"`
	SourceRef   string         `json:"source_reference,omitempty"`
	Lines       []lineResponse `json:"lines,omitempty"`
	TotalDebit  float64        `json:"total_debit"`
	TotalCredit float64        `json:"total_credit"`
	Status      string         `json:"status"`
	PostedAt    *time.Time     `json:"posted_at,omitempty"`
	ReversalOf  *int64         `json:"reversal_of,omitempty"`
	ReversedBy  *int64         `json:"reversed_by,omitempty"`
	CreatedBy   string         `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
}

type listResponse struct {
	Entries []entryResponse `json:"entries"`
	Total   int             `json:"total"`
}

func toEntryResponse(e *Entry) entryResponse {
	resp := entryResponse{
		ID:          e.ID,
		Number:      e.Number,
		Date:        e.Date.Format("2006-01-02"),
		Type:        string(e.Type),
		Description: e.Description,
		ProjectID:   e.ProjectID,
		TotalDebit:  e.TotalDebit,
		TotalCredit: e.TotalCredit,
		Status:      string(e.Status),
		PostedAt:    e.PostedAt,
		ReversalOf:  e.ReversalOf,
		ReversedBy:  e.ReversedBy,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
	}
	if e.Source != nil {
		resp.SourceModel = e.Source.Model
		resp.SourceRef = e.Source.Reference
	}
	for _, l := range e.Lines {
		resp.Lines = append(resp.Lines, lineResponse{
			ID:          l.ID,
			AccountID:   l.AccountID,
			AccountCode: l.AccountCode,
			AccountName: l.AccountName,
			AccountType: string(l.AccountType),
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
		})
	}
	return resp
}
