package reports

import (
	"testing"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/ledger"
	_ "github.com/groundwork-erp/groundwork-erp/testing"
)

func TestBuildTrialBalanceSingleColumnPerAccount(t *testing.T) {
	activity := []ledger.AccountActivity{
		{Code: "1000", Name: "Cash Account", Type: accounting.AccountTypeAsset, Debit: 400, Credit: 0},
		{Code: "1100", Name: "Accounts Receivable", Type: accounting.AccountTypeAsset, Debit: 600, Credit: 0},
		{Code: "4000", Name: "Sales Revenue", Type: accounting.AccountTypeRevenue, Debit: 0, Credit: 1000},
		{Code: "9999", Name: "Dormant", Type: accounting.AccountTypeAsset, Debit: 50, Credit: 50},
	}

	tb := BuildTrialBalance(activity)
	if len(tb.Accounts) != 3 {
		t.Fatalf("expected 3 accounts (zero-net excluded), got %d", len(tb.Accounts))
	}
	for _, row := range tb.Accounts {
		if row.Debit != 0 && row.Credit != 0 {
			t.Fatalf("account %s appears in both columns", row.Code)
		}
	}
	if tb.TotalDebit != 1000 {
		t.Fatalf("unexpected total debit: %v", tb.TotalDebit)
	}
	if tb.TotalCredit != 1000 {
		t.Fatalf("unexpected total credit: %v", tb.TotalCredit)
	}
	if !tb.IsBalanced {
		t.Fatal("expected balanced trial balance")
	}
}

func TestBuildTrialBalanceDetectsImbalance(t *testing.T) {
	activity := []ledger.AccountActivity{
		{Code: "1000", Name: "Cash Account", Type: accounting.AccountTypeAsset, Debit: 100, Credit: 0},
		{Code: "4000", Name: "Sales Revenue", Type: accounting.AccountTypeRevenue, Debit: 0, Credit: 60},
	}
	tb := BuildTrialBalance(activity)
	if tb.IsBalanced {
		t.Fatal("expected unbalanced trial balance")
	}
}

func TestBuildBalanceSheetAbsolutesCreditNormalSections(t *testing.T) {
	activity := []ledger.AccountActivity{
		{Code: "1000", Name: "Cash Account", Type: accounting.AccountTypeAsset, Debit: 900, Credit: 100},
		{Code: "2000", Name: "Accounts Payable", Type: accounting.AccountTypeLiability, Debit: 0, Credit: 500},
		{Code: "3000", Name: "Owner Equity", Type: accounting.AccountTypeEquity, Debit: 0, Credit: 300},
		{Code: "4000", Name: "Sales Revenue", Type: accounting.AccountTypeRevenue, Debit: 0, Credit: 250},
	}

	bs := BuildBalanceSheet(activity)
	if bs.Assets.Total != 800 {
		t.Fatalf("expected assets 800 got %v", bs.Assets.Total)
	}
	if bs.Liabilities.Total != 500 {
		t.Fatalf("expected liabilities 500 got %v", bs.Liabilities.Total)
	}
	if bs.Equity.Total != 300 {
		t.Fatalf("expected equity 300 got %v", bs.Equity.Total)
	}
	if bs.TotalLiabilitiesAndEquity != 800 {
		t.Fatalf("expected L+E 800 got %v", bs.TotalLiabilitiesAndEquity)
	}
	if !bs.IsBalanced {
		t.Fatal("expected balanced balance sheet")
	}
	if len(bs.Assets.Accounts)+len(bs.Liabilities.Accounts)+len(bs.Equity.Accounts) != 3 {
		t.Fatal("revenue account leaked into balance sheet")
	}
}

func TestBuildProfitAndLoss(t *testing.T) {
	activity := []ledger.AccountActivity{
		{Code: "4000", Name: "Sales Revenue", Type: accounting.AccountTypeRevenue, Debit: 0, Credit: 1000},
		{Code: "5000", Name: "General Expense", Type: accounting.AccountTypeExpense, Debit: 400, Credit: 0},
		{Code: "1000", Name: "Cash Account", Type: accounting.AccountTypeAsset, Debit: 600, Credit: 0},
	}

	pl := BuildProfitAndLoss(activity)
	if pl.Revenue.Total != 1000 {
		t.Fatalf("expected revenue 1000 got %v", pl.Revenue.Total)
	}
	if pl.Expenses.Total != 400 {
		t.Fatalf("expected expenses 400 got %v", pl.Expenses.Total)
	}
	if pl.NetProfit != 600 {
		t.Fatalf("expected net profit 600 got %v", pl.NetProfit)
	}
	if pl.NetProfitMargin != 60 {
		t.Fatalf("expected margin 60 got %v", pl.NetProfitMargin)
	}
}

func TestBuildProfitAndLossZeroRevenue(t *testing.T) {
	activity := []ledger.AccountActivity{
		{Code: "5000", Name: "General Expense", Type: accounting.AccountTypeExpense, Debit: 400, Credit: 0},
	}
	pl := BuildProfitAndLoss(activity)
	if pl.NetProfit != -400 {
		t.Fatalf("expected net profit -400 got %v", pl.NetProfit)
	}
	if pl.NetProfitMargin != 0 {
		t.Fatalf("expected margin 0 got %v", pl.NetProfitMargin)
	}
}
