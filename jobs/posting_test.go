package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/adapters"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/journal"
	"github.com/groundwork-erp/groundwork-erp/internal/shared"
	_ "github.com/groundwork-erp/groundwork-erp/testing"
)

type memoryOutbox struct {
	items  map[int64]*OutboxItem
	nextID int64
}

func newMemoryOutbox() *memoryOutbox {
	return &memoryOutbox{items: map[int64]*OutboxItem{}}
}

func (m *memoryOutbox) Insert(ctx context.Context, item *OutboxItem) error {
	m.nextID++
	item.ID = m.nextID
	item.Status = OutboxPending
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	copied := *item
	m.items[item.ID] = &copied
	return nil
}

func (m *memoryOutbox) Get(ctx context.Context, id int64) (*OutboxItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, shared.NotFoundf("outbox item %d", id)
	}
	copied := *item
	return &copied, nil
}

func (m *memoryOutbox) MarkPosted(ctx context.Context, id int64, entryID *int64) error {
	item, ok := m.items[id]
	if !ok || item.Status != OutboxPending {
		return shared.NotFoundf("pending outbox item %d", id)
	}
	item.Status = OutboxPosted
	item.EntryID = entryID
	item.Attempts++
	return nil
}

func (m *memoryOutbox) MarkFailed(ctx context.Context, id int64, reason string) error {
	item, ok := m.items[id]
	if !ok {
		return shared.NotFoundf("outbox item %d", id)
	}
	item.Status = OutboxFailed
	item.LastError = reason
	item.Attempts++
	return nil
}

func (m *memoryOutbox) ListPending(ctx context.Context, limit int) ([]OutboxItem, error) {
	var out []OutboxItem
	for _, item := range m.items {
		if item.Status == OutboxPending {
			out = append(out, *item)
		}
	}
	return out, nil
}

type fakePoster struct {
	sales []adapters.SaleDocument
	err   error
}

func (f *fakePoster) RecordSale(ctx context.Context, doc adapters.SaleDocument, actor string) (*journal.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sales = append(f.sales, doc)
	return &journal.Entry{ID: 77, Number: accounting.EntryNumber(doc.Date.Year(), 77), Status: accounting.EntryStatusPosted}, nil
}

func (f *fakePoster) RecordPurchase(ctx context.Context, doc adapters.PurchaseDocument, actor string) (*journal.Entry, error) {
	return nil, f.err
}

func (f *fakePoster) RecordPayment(ctx context.Context, doc adapters.PaymentDocument, actor string) (*journal.Entry, error) {
	return nil, f.err
}

func (f *fakePoster) RecordPlotBooking(ctx context.Context, doc adapters.PlotBookingDocument, actor string) (*journal.Entry, error) {
	return nil, f.err
}

func (f *fakePoster) RecordPlotSale(ctx context.Context, doc adapters.PlotSaleDocument, actor string) (*journal.Entry, error) {
	return nil, nil
}

func (f *fakePoster) RecordReceipt(ctx context.Context, doc adapters.ReceiptDocument, actor string) (*journal.Entry, error) {
	return nil, f.err
}

func (f *fakePoster) RecordSupplierPayment(ctx context.Context, doc adapters.SupplierPaymentDocument, actor string) (*journal.Entry, error) {
	return nil, f.err
}

func enqueueSale(t *testing.T, outbox *memoryOutbox, tenant uuid.UUID) *OutboxItem {
	t.Helper()
	payload, err := json.Marshal(adapters.SaleDocument{
		TenantID:       tenant,
		ID:             uuid.New(),
		Reference:      "INV-100",
		Date:           time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		NetTotal:       500,
		AmountReceived: 500,
	})
	require.NoError(t, err)
	item := &OutboxItem{TenantID: tenant, Kind: KindSale, Payload: payload, ActorID: "user-1"}
	require.NoError(t, outbox.Insert(context.Background(), item))
	return item
}

func postTask(t *testing.T, item *OutboxItem) *asynq.Task {
	t.Helper()
	task, err := NewLedgerPostTask(LedgerPostPayload{OutboxID: item.ID, TenantID: item.TenantID})
	require.NoError(t, err)
	return task
}

func TestHandleLedgerPostPostsPendingItem(t *testing.T) {
	outbox := newMemoryOutbox()
	poster := &fakePoster{}
	processor := NewPostingProcessor(outbox, poster, nil, nil)
	tenant := uuid.New()
	item := enqueueSale(t, outbox, tenant)

	require.NoError(t, processor.HandleLedgerPost(context.Background(), postTask(t, item)))

	stored := outbox.items[item.ID]
	require.Equal(t, OutboxPosted, stored.Status)
	require.NotNil(t, stored.EntryID)
	require.Equal(t, int64(77), *stored.EntryID)
	require.Len(t, poster.sales, 1)
	require.Equal(t, tenant, poster.sales[0].TenantID)
}

func TestHandleLedgerPostSkipsSettledItem(t *testing.T) {
	outbox := newMemoryOutbox()
	poster := &fakePoster{}
	processor := NewPostingProcessor(outbox, poster, nil, nil)
	item := enqueueSale(t, outbox, uuid.New())
	entryID := int64(5)
	require.NoError(t, outbox.MarkPosted(context.Background(), item.ID, &entryID))

	require.NoError(t, processor.HandleLedgerPost(context.Background(), postTask(t, item)))
	require.Empty(t, poster.sales, "settled items must not post twice")
}

func TestHandleLedgerPostValidationFailureMarksFailed(t *testing.T) {
	outbox := newMemoryOutbox()
	poster := &fakePoster{err: shared.NewValidationError("sale net total must be positive")}
	processor := NewPostingProcessor(outbox, poster, nil, nil)
	item := enqueueSale(t, outbox, uuid.New())

	require.NoError(t, processor.HandleLedgerPost(context.Background(), postTask(t, item)))

	stored := outbox.items[item.ID]
	require.Equal(t, OutboxFailed, stored.Status)
	require.Contains(t, stored.LastError, "must be positive")
}

func TestHandleLedgerPostInfrastructureErrorRetries(t *testing.T) {
	outbox := newMemoryOutbox()
	poster := &fakePoster{err: shared.ErrInfrastructure}
	processor := NewPostingProcessor(outbox, poster, nil, nil)
	item := enqueueSale(t, outbox, uuid.New())

	err := processor.HandleLedgerPost(context.Background(), postTask(t, item))
	require.ErrorIs(t, err, shared.ErrInfrastructure)
	require.Equal(t, OutboxPending, outbox.items[item.ID].Status, "item stays pending for retry")
}

func TestHandleLedgerPostUnknownKindFails(t *testing.T) {
	outbox := newMemoryOutbox()
	processor := NewPostingProcessor(outbox, &fakePoster{}, nil, nil)
	item := &OutboxItem{TenantID: uuid.New(), Kind: "timesheet", Payload: json.RawMessage(`{}`)}
	require.NoError(t, outbox.Insert(context.Background(), item))

	require.NoError(t, processor.HandleLedgerPost(context.Background(), postTask(t, item)))
	require.Equal(t, OutboxFailed, outbox.items[item.ID].Status)
}

func TestHandleLedgerPostZeroAmountInstallmentPosts(t *testing.T) {
	outbox := newMemoryOutbox()
	processor := NewPostingProcessor(outbox, &fakePoster{}, nil, nil)
	payload, err := json.Marshal(adapters.PlotSaleDocument{TenantID: uuid.New(), ID: uuid.New(), Date: time.Now()})
	require.NoError(t, err)
	item := &OutboxItem{TenantID: uuid.New(), Kind: KindPlotSale, Payload: payload}
	require.NoError(t, outbox.Insert(context.Background(), item))

	require.NoError(t, processor.HandleLedgerPost(context.Background(), postTask(t, item)))
	stored := outbox.items[item.ID]
	require.Equal(t, OutboxPosted, stored.Status)
	require.Nil(t, stored.EntryID, "zero-amount installments settle without an entry")
}
