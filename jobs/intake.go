package jobs

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting/adapters"
	"github.com/groundwork-erp/groundwork-erp/internal/shared"
)

// IntakeHandler accepts business document snapshots, stores them in the
// posting outbox and enqueues the ledger posting task. The HTTP request
// succeeds once the snapshot is durable; actual posting happens in the
// worker.
type IntakeHandler struct {
	outbox OutboxRepository
	client *Client
	logger *slog.Logger
}

// NewIntakeHandler constructs the intake handler.
func NewIntakeHandler(outbox OutboxRepository, client *Client, logger *slog.Logger) *IntakeHandler {
	return &IntakeHandler{outbox: outbox, client: client, logger: logger}
}

// MountRoutes registers the document intake route.
func (h *IntakeHandler) MountRoutes(r chi.Router) {
	r.Post("/documents/{kind}", h.submit)
	r.Get("/documents/{id}", h.status)
}

func (h *IntakeHandler) submit(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		shared.WriteJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "tenant required"})
		return
	}
	kind := chi.URLParam(r, "kind")

	payload, err := normaliseSnapshot(kind, tenantID, r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	item := &OutboxItem{
		TenantID: tenantID,
		Kind:     kind,
		Payload:  payload,
		ActorID:  shared.ActorFromContext(r.Context()),
	}
	if err := h.outbox.Insert(r.Context(), item); err != nil {
		h.logger.Error("insert outbox item", slog.Any("error", err), slog.String("kind", kind))
		shared.WriteError(w, err)
		return
	}
	if _, err := h.client.EnqueueLedgerPost(r.Context(), LedgerPostPayload{OutboxID: item.ID, TenantID: tenantID}); err != nil {
		// the pending sweep re-enqueues it; the snapshot is already durable
		h.logger.Warn("enqueue posting task", slog.Any("error", err), slog.Int64("outbox_id", item.ID))
	}
	shared.WriteJSON(w, http.StatusAccepted, map[string]any{
		"outbox_id": item.ID,
		"status":    string(OutboxPending),
	})
}

func (h *IntakeHandler) status(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		shared.WriteJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "tenant required"})
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "invalid outbox id"})
		return
	}
	item, err := h.outbox.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if item.TenantID != tenantID {
		shared.WriteError(w, shared.NotFoundf("outbox item %d", id))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"outbox_id":  item.ID,
		"kind":       item.Kind,
		"status":     string(item.Status),
		"attempts":   item.Attempts,
		"last_error": item.LastError,
		"entry_id":   item.EntryID,
	})
}

// normaliseSnapshot parses the request body into the document type for the
// kind, forces the tenant from the request context and re-serialises. A
// snapshot can never claim a different tenant than the caller.
func normaliseSnapshot(kind string, tenantID uuid.UUID, r *http.Request) (json.RawMessage, error) {
	switch kind {
	case KindSale:
		var doc adapters.SaleDocument
		if err := shared.DecodeJSON(r, &doc); err != nil {
			return nil, err
		}
		doc.TenantID = tenantID
		return json.Marshal(doc)
	case KindPurchase:
		var doc adapters.PurchaseDocument
		if err := shared.DecodeJSON(r, &doc); err != nil {
			return nil, err
		}
		doc.TenantID = tenantID
		return json.Marshal(doc)
	case KindPayment:
		var doc adapters.PaymentDocument
		if err := shared.DecodeJSON(r, &doc); err != nil {
			return nil, err
		}
		doc.TenantID = tenantID
		return json.Marshal(doc)
	case KindPlotBooking:
		var doc adapters.PlotBookingDocument
		if err := shared.DecodeJSON(r, &doc); err != nil {
			return nil, err
		}
		doc.TenantID = tenantID
		return json.Marshal(doc)
	case KindPlotSale:
		var doc adapters.PlotSaleDocument
		if err := shared.DecodeJSON(r, &doc); err != nil {
			return nil, err
		}
		doc.TenantID = tenantID
		return json.Marshal(doc)
	case KindReceipt:
		var doc adapters.ReceiptDocument
		if err := shared.DecodeJSON(r, &doc); err != nil {
			return nil, err
		}
		doc.TenantID = tenantID
		return json.Marshal(doc)
	case KindSupplierPayment:
		var doc adapters.SupplierPaymentDocument
		if err := shared.DecodeJSON(r, &doc); err != nil {
			return nil, err
		}
		doc.TenantID = tenantID
		return json.Marshal(doc)
	default:
		return nil, shared.NewValidationError("unknown document kind " + kind)
	}
}
