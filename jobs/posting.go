package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting/adapters"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/journal"
	jobmetrics "github.com/groundwork-erp/groundwork-erp/internal/jobs"
	"github.com/groundwork-erp/groundwork-erp/internal/shared"
)

// Document kinds accepted by the posting outbox.
const (
	KindSale            = "sale"
	KindPurchase        = "purchase"
	KindPayment         = "payment"
	KindPlotBooking     = "plot_booking"
	KindPlotSale        = "plot_sale"
	KindReceipt         = "receipt"
	KindSupplierPayment = "supplier_payment"
)

// DocumentPoster is the slice of the adapter service the processor drives.
type DocumentPoster interface {
	RecordSale(ctx context.Context, doc adapters.SaleDocument, actor string) (*journal.Entry, error)
	RecordPurchase(ctx context.Context, doc adapters.PurchaseDocument, actor string) (*journal.Entry, error)
	RecordPayment(ctx context.Context, doc adapters.PaymentDocument, actor string) (*journal.Entry, error)
	RecordPlotBooking(ctx context.Context, doc adapters.PlotBookingDocument, actor string) (*journal.Entry, error)
	RecordPlotSale(ctx context.Context, doc adapters.PlotSaleDocument, actor string) (*journal.Entry, error)
	RecordReceipt(ctx context.Context, doc adapters.ReceiptDocument, actor string) (*journal.Entry, error)
	RecordSupplierPayment(ctx context.Context, doc adapters.SupplierPaymentDocument, actor string) (*journal.Entry, error)
}

// PostingProcessor consumes ledger:post tasks. A document that fails
// validation is marked failed and never retried; infrastructure errors are
// returned so Asynq retries with backoff while the row stays pending.
type PostingProcessor struct {
	outbox  OutboxRepository
	poster  DocumentPoster
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewPostingProcessor constructs the processor.
func NewPostingProcessor(outbox OutboxRepository, poster DocumentPoster, logger *slog.Logger, metrics *jobmetrics.Metrics) *PostingProcessor {
	return &PostingProcessor{outbox: outbox, poster: poster, logger: logger, metrics: metrics}
}

// HandleLedgerPost processes one outbox row.
func (p *PostingProcessor) HandleLedgerPost(ctx context.Context, t *asynq.Task) error {
	tracker := p.metrics.Track("ledger_post")
	var payload LedgerPostPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}
	item, err := p.outbox.Get(ctx, payload.OutboxID)
	if err != nil {
		return tracker.End(err)
	}
	if item.Status != OutboxPending {
		p.log().Info("outbox item already settled",
			slog.Int64("outbox_id", item.ID), slog.String("status", string(item.Status)))
		return tracker.End(nil)
	}

	entry, err := p.post(ctx, item)
	if err != nil {
		if shared.IsValidation(err) {
			p.log().Warn("document rejected by ledger",
				slog.Int64("outbox_id", item.ID), slog.String("kind", item.Kind), slog.Any("error", err))
			if markErr := p.outbox.MarkFailed(ctx, item.ID, err.Error()); markErr != nil {
				return tracker.End(markErr)
			}
			return tracker.End(nil)
		}
		return tracker.End(err)
	}

	var entryID *int64
	if entry != nil {
		entryID = &entry.ID
	}
	if err := p.outbox.MarkPosted(ctx, item.ID, entryID); err != nil {
		return tracker.End(err)
	}
	if entry != nil {
		p.log().Info("document posted to ledger",
			slog.Int64("outbox_id", item.ID), slog.String("kind", item.Kind), slog.String("entry", entry.Number))
	}
	return tracker.End(nil)
}

func (p *PostingProcessor) post(ctx context.Context, item *OutboxItem) (*journal.Entry, error) {
	switch item.Kind {
	case KindSale:
		var doc adapters.SaleDocument
		if err := json.Unmarshal(item.Payload, &doc); err != nil {
			return nil, shared.NewValidationError("malformed sale snapshot: " + err.Error())
		}
		return p.poster.RecordSale(ctx, doc, item.ActorID)
	case KindPurchase:
		var doc adapters.PurchaseDocument
		if err := json.Unmarshal(item.Payload, &doc); err != nil {
			return nil, shared.NewValidationError("malformed purchase snapshot: " + err.Error())
		}
		return p.poster.RecordPurchase(ctx, doc, item.ActorID)
	case KindPayment:
		var doc adapters.PaymentDocument
		if err := json.Unmarshal(item.Payload, &doc); err != nil {
			return nil, shared.NewValidationError("malformed payment snapshot: " + err.Error())
		}
		return p.poster.RecordPayment(ctx, doc, item.ActorID)
	case KindPlotBooking:
		var doc adapters.PlotBookingDocument
		if err := json.Unmarshal(item.Payload, &doc); err != nil {
			return nil, shared.NewValidationError("malformed booking snapshot: " + err.Error())
		}
		return p.poster.RecordPlotBooking(ctx, doc, item.ActorID)
	case KindPlotSale:
		var doc adapters.PlotSaleDocument
		if err := json.Unmarshal(item.Payload, &doc); err != nil {
			return nil, shared.NewValidationError("malformed plot sale snapshot: " + err.Error())
		}
		return p.poster.RecordPlotSale(ctx, doc, item.ActorID)
	case KindReceipt:
		var doc adapters.ReceiptDocument
		if err := json.Unmarshal(item.Payload, &doc); err != nil {
			return nil, shared.NewValidationError("malformed receipt snapshot: " + err.Error())
		}
		return p.poster.RecordReceipt(ctx, doc, item.ActorID)
	case KindSupplierPayment:
		var doc adapters.SupplierPaymentDocument
		if err := json.Unmarshal(item.Payload, &doc); err != nil {
			return nil, shared.NewValidationError("malformed supplier payment snapshot: " + err.Error())
		}
		return p.poster.RecordSupplierPayment(ctx, doc, item.ActorID)
	default:
		return nil, shared.NewValidationError(fmt.Sprintf("unknown document kind %q", item.Kind))
	}
}

func (p *PostingProcessor) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}

// ReEnqueuePending re-submits queue tasks for rows still pending, covering
// messages lost between the outbox insert and the broker.
func ReEnqueuePending(ctx context.Context, outbox OutboxRepository, client *Client, logger *slog.Logger) error {
	items, err := outbox.ListPending(ctx, 500)
	if err != nil {
		return err
	}
	for _, item := range items {
		if _, err := client.EnqueueLedgerPost(ctx, LedgerPostPayload{OutboxID: item.ID, TenantID: item.TenantID}); err != nil {
			if logger != nil {
				logger.Warn("re-enqueue outbox item", slog.Int64("outbox_id", item.ID), slog.Any("error", err))
			}
			return err
		}
	}
	if logger != nil && len(items) > 0 {
		logger.Info("re-enqueued pending outbox items", slog.Int("count", len(items)))
	}
	return nil
}
