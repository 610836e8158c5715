package adapters

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod selects the cash or bank side of receipts and payments.
type PaymentMethod string

const (
	MethodCash PaymentMethod = "CASH"
	MethodBank PaymentMethod = "BANK"
)

// Well-known default account codes. Accounts are created lazily on first
// reference, so none of these require chart of accounts pre-provisioning.
const (
	CodeCash            = "1000"
	CodeBank            = "1010"
	CodeReceivable      = "1100"
	CodeInventory       = "1200"
	CodePayable         = "2000"
	CodeSalesRevenue    = "4000"
	CodePropertyRevenue = "4100"
	CodeGeneralExpense  = "5000"
)

// SaleDocument is the snapshot of a sale relevant to the ledger.
type SaleDocument struct {
	TenantID       uuid.UUID
	ID             uuid.UUID
	Reference      string
	Date           time.Time
	CustomerName   string
	NetTotal       float64
	AmountReceived float64
	ProjectID      *uuid.UUID
}

// Balance is the unpaid remainder of the sale.
func (d SaleDocument) Balance() float64 {
	return d.NetTotal - d.AmountReceived
}

// PurchaseDocument is the snapshot of a supplier purchase.
type PurchaseDocument struct {
	TenantID     uuid.UUID
	ID           uuid.UUID
	Reference    string
	Date         time.Time
	SupplierName string
	NetAmount    float64
	ProjectID    *uuid.UUID
}

// PaymentLine is one expense leg of a bank or cash payment voucher.
type PaymentLine struct {
	AccountCode string
	AccountName string
	Amount      float64
	Description string
}

// PaymentDocument is the snapshot of a bank or cash payment voucher: N
// expense lines funded from one cash/bank account.
type PaymentDocument struct {
	TenantID    uuid.UUID
	ID          uuid.UUID
	Reference   string
	Date        time.Time
	AccountCode string
	AccountName string
	Lines       []PaymentLine
	TotalAmount float64
	ProjectID   *uuid.UUID
}

// PlotBookingDocument is the snapshot of a plot booking.
type PlotBookingDocument struct {
	TenantID       uuid.UUID
	ID             uuid.UUID
	Reference      string
	Date           time.Time
	CustomerName   string
	TotalAmount    float64
	AmountReceived float64
	BalanceDue     float64
	ProjectID      *uuid.UUID
}

// PlotSaleDocument is the snapshot of a post-booking plot sale installment.
type PlotSaleDocument struct {
	TenantID       uuid.UUID
	ID             uuid.UUID
	Reference      string
	Date           time.Time
	CustomerName   string
	AmountReceived float64
	ProjectID      *uuid.UUID
}

// ReceiptDocument is the snapshot of a customer payment receipt.
type ReceiptDocument struct {
	TenantID     uuid.UUID
	ID           uuid.UUID
	Reference    string
	Date         time.Time
	CustomerName string
	Amount       float64
	Method       PaymentMethod
	ProjectID    *uuid.UUID
}

// SupplierPaymentDocument is the snapshot of a payment to a vendor.
type SupplierPaymentDocument struct {
	TenantID     uuid.UUID
	ID           uuid.UUID
	Reference    string
	Date         time.Time
	SupplierName string
	Amount       float64
	Method       PaymentMethod
	ProjectID    *uuid.UUID
}
