package reports

import (
	"math"
	"sort"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/ledger"
)

// BalanceSheetAccount summarises one account inside a section.
type BalanceSheetAccount struct {
	Code    string
	Name    string
	Balance float64
}

// BalanceSheetSection contains the accounts and total for a classification.
type BalanceSheetSection struct {
	Label    string
	Accounts []BalanceSheetAccount
	Total    float64
}

// BalanceSheet is the structured response for the balance sheet report.
type BalanceSheet struct {
	Assets                    BalanceSheetSection
	Liabilities               BalanceSheetSection
	Equity                    BalanceSheetSection
	TotalLiabilitiesAndEquity float64
	IsBalanced                bool
}

// BuildBalanceSheet restricts activity to balance sheet categories. Liability
// and equity balances are credit-normal, so their raw debit-minus-credit nets
// are reported as absolute values.
func BuildBalanceSheet(activity []ledger.AccountActivity) BalanceSheet {
	assets := BalanceSheetSection{Label: "Assets"}
	liabilities := BalanceSheetSection{Label: "Liabilities"}
	equity := BalanceSheetSection{Label: "Equity"}

	for _, acc := range activity {
		net := acc.Net()
		switch acc.Type {
		case accounting.AccountTypeAsset:
			row := BalanceSheetAccount{Code: acc.Code, Name: acc.Name, Balance: net}
			assets.Accounts = append(assets.Accounts, row)
			assets.Total += row.Balance
		case accounting.AccountTypeLiability:
			row := BalanceSheetAccount{Code: acc.Code, Name: acc.Name, Balance: math.Abs(net)}
			liabilities.Accounts = append(liabilities.Accounts, row)
			liabilities.Total += row.Balance
		case accounting.AccountTypeEquity:
			row := BalanceSheetAccount{Code: acc.Code, Name: acc.Name, Balance: math.Abs(net)}
			equity.Accounts = append(equity.Accounts, row)
			equity.Total += row.Balance
		}
	}

	sort.Slice(assets.Accounts, func(i, j int) bool { return assets.Accounts[i].Code < assets.Accounts[j].Code })
	sort.Slice(liabilities.Accounts, func(i, j int) bool { return liabilities.Accounts[i].Code < liabilities.Accounts[j].Code })
	sort.Slice(equity.Accounts, func(i, j int) bool { return equity.Accounts[i].Code < equity.Accounts[j].Code })

	total := liabilities.Total + equity.Total
	return BalanceSheet{
		Assets:                    assets,
		Liabilities:               liabilities,
		Equity:                    equity,
		TotalLiabilitiesAndEquity: total,
		IsBalanced:                math.Abs(assets.Total-total) < accounting.AmountTolerance,
	}
}
