package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/ledger"
	"github.com/groundwork-erp/groundwork-erp/internal/shared"
)

// AuditPort records posting events for compliance. Failures are logged,
// never propagated.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CacheInvalidator bumps the tenant's ledger version after a posting so
// cached statements rebuild on next read.
type CacheInvalidator interface {
	Bump(ctx context.Context, tenantID uuid.UUID) error
}

// Service is the journal entry engine: it validates balanced entries,
// assigns sequential numbers, posts them to the general ledger and handles
// the draft and reversal lifecycles.
type Service struct {
	repo   Repository
	audit  AuditPort
	cache  CacheInvalidator
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the journal engine.
func NewService(repo Repository, audit AuditPort, cache CacheInvalidator, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, cache: cache, logger: logger, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create validates and persists a journal entry. Entries are posted
// immediately unless input.Draft is set; posting expands the entry into
// general ledger rows inside the same transaction, so entry and rows commit
// or roll back together.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Entry, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	entryType := input.Type
	if entryType == "" {
		entryType = accounting.TransactionTypeJournal
	}
	debit, credit := accounting.SumLines(input.Lines)
	now := s.now()

	var entry *Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		year := input.Date.Year()
		seq, err := tx.NextEntryNumber(ctx, input.TenantID, year)
		if err != nil {
			return err
		}
		e := &Entry{
			TenantID:    input.TenantID,
			Number:      accounting.EntryNumber(year, seq),
			Date:        input.Date,
			Type:        entryType,
			Description: input.Description,
			Source:      input.Source,
			ProjectID:   input.ProjectID,
			TotalDebit:  debit,
			TotalCredit: credit,
			Status:      accounting.EntryStatusPosted,
			CreatedBy:   input.CreatedBy,
		}
		if input.Draft {
			e.Status = accounting.EntryStatusDraft
		} else {
			e.PostedAt = &now
		}
		if err := tx.InsertEntry(ctx, e); err != nil {
			return err
		}
		lines := toLines(input.Lines)
		if err := tx.InsertLines(ctx, e.ID, lines); err != nil {
			return err
		}
		e.Lines = lines
		if !input.Draft {
			if _, err := ledger.PostEntry(ctx, tx, entryRef(e), postLines(lines)); err != nil {
				return err
			}
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterPosting(ctx, entry, "journal.post", map[string]any{
		"number": entry.Number,
		"type":   string(entry.Type),
	})
	return entry, nil
}

// Post transitions a draft entry to POSTED and expands it into the ledger.
func (s *Service) Post(ctx context.Context, tenantID uuid.UUID, entryID int64, actorID string) (*Entry, error) {
	now := s.now()
	var entry *Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryWithLines(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		if current.Status != accounting.EntryStatusDraft {
			return &shared.InvalidStateError{Entity: "journal entry", Current: string(current.Status), Required: string(accounting.EntryStatusDraft)}
		}
		if err := tx.UpdateEntryStatus(ctx, tenantID, entryID, accounting.EntryStatusPosted, &now, &actorID, nil); err != nil {
			return err
		}
		current.Status = accounting.EntryStatusPosted
		current.PostedAt = &now
		current.ApprovedBy = actorID
		current.ApprovedAt = &now
		if _, err := ledger.PostEntry(ctx, tx, entryRef(current), postLines(current.Lines)); err != nil {
			return err
		}
		entry = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterPosting(ctx, entry, "journal.post", map[string]any{"number": entry.Number})
	return entry, nil
}

// Reverse creates a reversing entry with debit and credit swapped per line,
// posts it, then flips the ledger rows of both the original and the reversal
// to REVERSED so active balances return to their values before the original
// posted. History is never edited: rows are added and status-flipped, never
// deleted, and the reversal entry keeps its lines for the paper trail.
func (s *Service) Reverse(ctx context.Context, tenantID uuid.UUID, entryID int64, actorID, reason string) (*Entry, error) {
	if reason == "" {
		return nil, shared.NewValidationError("reversal reason required")
	}
	now := s.now()
	var reversal *Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetEntryWithLines(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		if original.Status != accounting.EntryStatusPosted {
			return &shared.InvalidStateError{Entity: "journal entry", Current: string(original.Status), Required: string(accounting.EntryStatusPosted)}
		}
		year := original.Date.Year()
		seq, err := tx.NextEntryNumber(ctx, tenantID, year)
		if err != nil {
			return err
		}
		rev := &Entry{
			TenantID:    tenantID,
			Number:      accounting.EntryNumber(year, seq),
			Date:        original.Date,
			Type:        accounting.TransactionTypeAdjustment,
			Description: "Reversal: " + reason,
			Source:      original.Source,
			ProjectID:   original.ProjectID,
			TotalDebit:  original.TotalCredit,
			TotalCredit: original.TotalDebit,
			Status:      accounting.EntryStatusPosted,
			PostedAt:    &now,
			ReversalOf:  &original.ID,
			CreatedBy:   actorID,
		}
		if err := tx.InsertEntry(ctx, rev); err != nil {
			return err
		}
		lines := reverseLines(original.Lines)
		if err := tx.InsertLines(ctx, rev.ID, lines); err != nil {
			return err
		}
		rev.Lines = lines
		if _, err := ledger.PostEntry(ctx, tx, entryRef(rev), postLines(lines)); err != nil {
			return err
		}
		if err := tx.MarkRowsReversed(ctx, tenantID, original.ID); err != nil {
			return err
		}
		if err := tx.MarkRowsReversed(ctx, tenantID, rev.ID); err != nil {
			return err
		}
		if err := tx.UpdateEntryStatus(ctx, tenantID, original.ID, accounting.EntryStatusReversed, nil, nil, &rev.ID); err != nil {
			return err
		}
		reversal = rev
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterPosting(ctx, reversal, "journal.reverse", map[string]any{
		"number":   reversal.Number,
		"reversed": entryID,
		"reason":   reason,
	})
	return reversal, nil
}

// Update replaces the editable fields of a draft entry.
func (s *Service) Update(ctx context.Context, input UpdateInput) (*Entry, error) {
	if err := accounting.ValidateLines(input.Lines); err != nil {
		return nil, err
	}
	debit, credit := accounting.SumLines(input.Lines)
	var entry *Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryWithLines(ctx, input.TenantID, input.EntryID)
		if err != nil {
			return err
		}
		if current.Status != accounting.EntryStatusDraft {
			return &shared.InvalidStateError{Entity: "journal entry", Current: string(current.Status), Required: string(accounting.EntryStatusDraft)}
		}
		current.Date = input.Date
		if input.Type != "" {
			current.Type = input.Type
		}
		current.Description = input.Description
		current.ProjectID = input.ProjectID
		current.TotalDebit = debit
		current.TotalCredit = credit
		if err := tx.UpdateDraft(ctx, current); err != nil {
			return err
		}
		if err := tx.DeleteLines(ctx, current.ID); err != nil {
			return err
		}
		lines := toLines(input.Lines)
		if err := tx.InsertLines(ctx, current.ID, lines); err != nil {
			return err
		}
		current.Lines = lines
		entry = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete removes a draft entry. Posted entries are immutable; use Reverse.
func (s *Service) Delete(ctx context.Context, tenantID uuid.UUID, entryID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryWithLines(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		if current.Status != accounting.EntryStatusDraft {
			return &shared.InvalidStateError{Entity: "journal entry", Current: string(current.Status), Required: string(accounting.EntryStatusDraft)}
		}
		return tx.DeleteDraft(ctx, tenantID, entryID)
	})
}

// Get fetches an entry with its lines.
func (s *Service) Get(ctx context.Context, tenantID uuid.UUID, entryID int64) (*Entry, error) {
	return s.repo.Get(ctx, tenantID, entryID)
}

// List returns entries matching the filter plus the unpaged total.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]Entry, int, error) {
	return s.repo.List(ctx, tenantID, filter)
}

func (s *Service) afterPosting(ctx context.Context, entry *Entry, action string, meta map[string]any) {
	if s.cache != nil {
		if err := s.cache.Bump(ctx, entry.TenantID); err != nil && s.logger != nil {
			s.logger.Warn("ledger cache bump failed", slog.Any("error", err))
		}
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			TenantID: entry.TenantID,
			ActorID:  entry.CreatedBy,
			Action:   action,
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", entry.ID),
			Meta:     meta,
			At:       s.now(),
		})
		if err != nil && s.logger != nil {
			s.logger.Warn("audit record failed", slog.Any("error", err))
		}
	}
}

func toLines(inputs []accounting.LineInput) []Line {
	out := make([]Line, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, Line{
			AccountID:   in.AccountID,
			AccountCode: in.AccountCode,
			AccountName: in.AccountName,
			AccountType: in.AccountType,
			Debit:       in.Debit,
			Credit:      in.Credit,
			Description: in.Description,
		})
	}
	return out
}

func reverseLines(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		out = append(out, Line{
			AccountID:   line.AccountID,
			AccountCode: line.AccountCode,
			AccountName: line.AccountName,
			AccountType: line.AccountType,
			Debit:       line.Credit,
			Credit:      line.Debit,
			Description: line.Description,
		})
	}
	return out
}

func entryRef(e *Entry) ledger.EntryRef {
	return ledger.EntryRef{
		ID:          e.ID,
		TenantID:    e.TenantID,
		Number:      e.Number,
		Date:        e.Date,
		Type:        e.Type,
		Description: e.Description,
		ProjectID:   e.ProjectID,
		Source:      e.Source,
	}
}

func postLines(lines []Line) []ledger.PostLine {
	out := make([]ledger.PostLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, ledger.PostLine{
			AccountID:   line.AccountID,
			AccountCode: line.AccountCode,
			AccountName: line.AccountName,
			AccountType: line.AccountType,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
		})
	}
	return out
}
