package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/coa"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/journal"
	"github.com/groundwork-erp/groundwork-erp/internal/shared"
)

// AccountResolver resolves account codes to chart of accounts entries,
// creating top-level accounts lazily.
type AccountResolver interface {
	GetOrCreate(ctx context.Context, tenantID uuid.UUID, code, name string, accountType accounting.AccountType) (*coa.Account, error)
}

// JournalCreator posts a balanced journal entry.
type JournalCreator interface {
	Create(ctx context.Context, in journal.CreateInput) (*journal.Entry, error)
}

// Service translates business documents into balanced journal entries. Each
// Record method is idempotent at the document level only insofar as callers
// invoke it once per document; the outbox worker guarantees that.
type Service struct {
	accounts AccountResolver
	journals JournalCreator
	logger   *slog.Logger
}

// NewService constructs the adapter service.
func NewService(accounts AccountResolver, journals JournalCreator, logger *slog.Logger) *Service {
	return &Service{accounts: accounts, journals: journals, logger: logger}
}

// RecordSale books a sale: debit cash/bank for the received portion, debit
// receivable for the balance, credit sales revenue for the full net total.
func (s *Service) RecordSale(ctx context.Context, doc SaleDocument, actor string) (*journal.Entry, error) {
	if doc.NetTotal <= 0 {
		return nil, shared.NewValidationError("sale net total must be positive")
	}
	var lines []accounting.LineInput
	if doc.AmountReceived > 0 {
		line, err := s.line(ctx, doc.TenantID, CodeCash, "Cash", accounting.AccountTypeAsset,
			doc.AmountReceived, 0, "Cash received for "+doc.Reference)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if balance := doc.Balance(); balance > 0 {
		line, err := s.line(ctx, doc.TenantID, CodeReceivable, "Accounts Receivable", accounting.AccountTypeAsset,
			balance, 0, fmt.Sprintf("Receivable from %s", doc.CustomerName))
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	revenue, err := s.line(ctx, doc.TenantID, CodeSalesRevenue, "Sales Revenue", accounting.AccountTypeRevenue,
		0, doc.NetTotal, "Revenue for "+doc.Reference)
	if err != nil {
		return nil, err
	}
	lines = append(lines, revenue)

	return s.create(ctx, doc.TenantID, journal.CreateInput{
		Date:        doc.Date,
		Type:        accounting.TransactionTypeSale,
		Description: fmt.Sprintf("Sale %s to %s", doc.Reference, doc.CustomerName),
		Source:      &accounting.SourceRef{Model: "sale", ID: doc.ID, Reference: doc.Reference},
		ProjectID:   doc.ProjectID,
		Lines:       lines,
	}, actor)
}

// RecordPurchase books a supplier purchase on credit: debit inventory, credit
// accounts payable.
func (s *Service) RecordPurchase(ctx context.Context, doc PurchaseDocument, actor string) (*journal.Entry, error) {
	if doc.NetAmount <= 0 {
		return nil, shared.NewValidationError("purchase net amount must be positive")
	}
	inventory, err := s.line(ctx, doc.TenantID, CodeInventory, "Inventory", accounting.AccountTypeAsset,
		doc.NetAmount, 0, "Goods received for "+doc.Reference)
	if err != nil {
		return nil, err
	}
	payable, err := s.line(ctx, doc.TenantID, CodePayable, "Accounts Payable", accounting.AccountTypeLiability,
		0, doc.NetAmount, fmt.Sprintf("Payable to %s", doc.SupplierName))
	if err != nil {
		return nil, err
	}
	return s.create(ctx, doc.TenantID, journal.CreateInput{
		Date:        doc.Date,
		Type:        accounting.TransactionTypePurchase,
		Description: fmt.Sprintf("Purchase %s from %s", doc.Reference, doc.SupplierName),
		Source:      &accounting.SourceRef{Model: "purchase", ID: doc.ID, Reference: doc.Reference},
		ProjectID:   doc.ProjectID,
		Lines:       []accounting.LineInput{inventory, payable},
	}, actor)
}

// RecordPayment books a payment voucher: one debit per expense line, a single
// credit against the funding cash or bank account. A voucher whose header
// total disagrees with its lines is rejected before anything posts.
func (s *Service) RecordPayment(ctx context.Context, doc PaymentDocument, actor string) (*journal.Entry, error) {
	if len(doc.Lines) == 0 {
		return nil, shared.NewValidationError("payment voucher has no lines")
	}
	var lines []accounting.LineInput
	var total float64
	for _, pl := range doc.Lines {
		code := pl.AccountCode
		name := pl.AccountName
		if code == "" {
			code = CodeGeneralExpense
			name = "General Expense"
		}
		line, err := s.line(ctx, doc.TenantID, code, name, accounting.AccountTypeExpense,
			pl.Amount, 0, pl.Description)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
		total += pl.Amount
	}
	if doc.TotalAmount > 0 && math.Abs(doc.TotalAmount-total) > accounting.AmountTolerance {
		return nil, shared.NewValidationError(fmt.Sprintf(
			"payment voucher total %.2f does not match line sum %.2f", doc.TotalAmount, total))
	}
	fundingCode := doc.AccountCode
	fundingName := doc.AccountName
	if fundingCode == "" {
		fundingCode = CodeCash
		fundingName = "Cash"
	}
	funding, err := s.line(ctx, doc.TenantID, fundingCode, fundingName, accounting.AccountTypeAsset,
		0, total, "Payment "+doc.Reference)
	if err != nil {
		return nil, err
	}
	lines = append(lines, funding)

	return s.create(ctx, doc.TenantID, journal.CreateInput{
		Date:        doc.Date,
		Type:        accounting.TransactionTypePayment,
		Description: "Payment voucher " + doc.Reference,
		Source:      &accounting.SourceRef{Model: "payment", ID: doc.ID, Reference: doc.Reference},
		ProjectID:   doc.ProjectID,
		Lines:       lines,
	}, actor)
}

// RecordPlotBooking books a plot booking: debit cash for the received amount,
// debit receivable for the due balance, credit property sales revenue.
func (s *Service) RecordPlotBooking(ctx context.Context, doc PlotBookingDocument, actor string) (*journal.Entry, error) {
	if doc.TotalAmount <= 0 {
		return nil, shared.NewValidationError("booking total must be positive")
	}
	var lines []accounting.LineInput
	if doc.AmountReceived > 0 {
		line, err := s.line(ctx, doc.TenantID, CodeCash, "Cash", accounting.AccountTypeAsset,
			doc.AmountReceived, 0, "Booking payment for "+doc.Reference)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if doc.BalanceDue > 0 {
		line, err := s.line(ctx, doc.TenantID, CodeReceivable, "Accounts Receivable", accounting.AccountTypeAsset,
			doc.BalanceDue, 0, fmt.Sprintf("Balance due from %s", doc.CustomerName))
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	revenue, err := s.line(ctx, doc.TenantID, CodePropertyRevenue, "Property Sales Revenue", accounting.AccountTypeRevenue,
		0, doc.TotalAmount, "Plot booking "+doc.Reference)
	if err != nil {
		return nil, err
	}
	lines = append(lines, revenue)

	return s.create(ctx, doc.TenantID, journal.CreateInput{
		Date:        doc.Date,
		Type:        accounting.TransactionTypeBooking,
		Description: fmt.Sprintf("Plot booking %s by %s", doc.Reference, doc.CustomerName),
		Source:      &accounting.SourceRef{Model: "plot_booking", ID: doc.ID, Reference: doc.Reference},
		ProjectID:   doc.ProjectID,
		Lines:       lines,
	}, actor)
}

// RecordPlotSale books a post-booking installment: debit cash, credit the
// receivable raised at booking time. Zero-amount installments post nothing.
func (s *Service) RecordPlotSale(ctx context.Context, doc PlotSaleDocument, actor string) (*journal.Entry, error) {
	if doc.AmountReceived <= 0 {
		return nil, nil
	}
	cash, err := s.line(ctx, doc.TenantID, CodeCash, "Cash", accounting.AccountTypeAsset,
		doc.AmountReceived, 0, "Installment for "+doc.Reference)
	if err != nil {
		return nil, err
	}
	receivable, err := s.line(ctx, doc.TenantID, CodeReceivable, "Accounts Receivable", accounting.AccountTypeAsset,
		0, doc.AmountReceived, fmt.Sprintf("Installment from %s", doc.CustomerName))
	if err != nil {
		return nil, err
	}
	return s.create(ctx, doc.TenantID, journal.CreateInput{
		Date:        doc.Date,
		Type:        accounting.TransactionTypeReceipt,
		Description: fmt.Sprintf("Plot sale installment %s from %s", doc.Reference, doc.CustomerName),
		Source:      &accounting.SourceRef{Model: "plot_sale", ID: doc.ID, Reference: doc.Reference},
		ProjectID:   doc.ProjectID,
		Lines:       []accounting.LineInput{cash, receivable},
	}, actor)
}

// RecordReceipt books a customer payment: debit cash or bank, credit the
// customer's receivable.
func (s *Service) RecordReceipt(ctx context.Context, doc ReceiptDocument, actor string) (*journal.Entry, error) {
	if doc.Amount <= 0 {
		return nil, shared.NewValidationError("receipt amount must be positive")
	}
	code, name := methodAccount(doc.Method)
	funds, err := s.line(ctx, doc.TenantID, code, name, accounting.AccountTypeAsset,
		doc.Amount, 0, "Receipt "+doc.Reference)
	if err != nil {
		return nil, err
	}
	receivable, err := s.line(ctx, doc.TenantID, CodeReceivable, "Accounts Receivable", accounting.AccountTypeAsset,
		0, doc.Amount, fmt.Sprintf("Payment from %s", doc.CustomerName))
	if err != nil {
		return nil, err
	}
	return s.create(ctx, doc.TenantID, journal.CreateInput{
		Date:        doc.Date,
		Type:        accounting.TransactionTypeReceipt,
		Description: fmt.Sprintf("Receipt %s from %s", doc.Reference, doc.CustomerName),
		Source:      &accounting.SourceRef{Model: "receipt", ID: doc.ID, Reference: doc.Reference},
		ProjectID:   doc.ProjectID,
		Lines:       []accounting.LineInput{funds, receivable},
	}, actor)
}

// RecordSupplierPayment books a payment to a vendor: debit accounts payable,
// credit cash or bank.
func (s *Service) RecordSupplierPayment(ctx context.Context, doc SupplierPaymentDocument, actor string) (*journal.Entry, error) {
	if doc.Amount <= 0 {
		return nil, shared.NewValidationError("supplier payment amount must be positive")
	}
	payable, err := s.line(ctx, doc.TenantID, CodePayable, "Accounts Payable", accounting.AccountTypeLiability,
		doc.Amount, 0, fmt.Sprintf("Payment to %s", doc.SupplierName))
	if err != nil {
		return nil, err
	}
	code, name := methodAccount(doc.Method)
	funds, err := s.line(ctx, doc.TenantID, code, name, accounting.AccountTypeAsset,
		0, doc.Amount, "Supplier payment "+doc.Reference)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, doc.TenantID, journal.CreateInput{
		Date:        doc.Date,
		Type:        accounting.TransactionTypePayment,
		Description: fmt.Sprintf("Supplier payment %s to %s", doc.Reference, doc.SupplierName),
		Source:      &accounting.SourceRef{Model: "supplier_payment", ID: doc.ID, Reference: doc.Reference},
		ProjectID:   doc.ProjectID,
		Lines:       []accounting.LineInput{payable, funds},
	}, actor)
}

func (s *Service) line(ctx context.Context, tenantID uuid.UUID, code, name string, accountType accounting.AccountType, debit, credit float64, description string) (accounting.LineInput, error) {
	account, err := s.accounts.GetOrCreate(ctx, tenantID, code, name, accountType)
	if err != nil {
		return accounting.LineInput{}, err
	}
	return accounting.LineInput{
		AccountID:   account.ID,
		AccountCode: account.Code,
		AccountName: account.Name,
		AccountType: account.Type,
		Debit:       debit,
		Credit:      credit,
		Description: description,
	}, nil
}

func (s *Service) create(ctx context.Context, tenantID uuid.UUID, in journal.CreateInput, actor string) (*journal.Entry, error) {
	in.TenantID = tenantID
	in.CreatedBy = actor
	entry, err := s.journals.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("document posted",
			slog.String("tenant", tenantID.String()),
			slog.String("entry", entry.Number),
			slog.String("type", string(in.Type)))
	}
	return entry, nil
}

func methodAccount(method PaymentMethod) (string, string) {
	if method == MethodBank {
		return CodeBank, "Bank"
	}
	return CodeCash, "Cash"
}
