package reports

import (
	"math"
	"sort"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/ledger"
)

// ProfitAndLossAccount represents a revenue or expense account summary.
type ProfitAndLossAccount struct {
	Code   string
	Name   string
	Amount float64
}

// ProfitAndLossSection groups accounts by nature.
type ProfitAndLossSection struct {
	Label    string
	Accounts []ProfitAndLossAccount
	Total    float64
}

// ProfitAndLoss contains the structured output for the report.
type ProfitAndLoss struct {
	Revenue         ProfitAndLossSection
	Expenses        ProfitAndLossSection
	NetProfit       float64
	NetProfitMargin float64
}

// BuildProfitAndLoss restricts activity to revenue and expense categories,
// reporting absolute amounts. Margin is a percentage of revenue, zero when
// there is no revenue.
func BuildProfitAndLoss(activity []ledger.AccountActivity) ProfitAndLoss {
	revenue := ProfitAndLossSection{Label: "Revenue"}
	expenses := ProfitAndLossSection{Label: "Expenses"}

	for _, acc := range activity {
		amount := math.Abs(acc.Net())
		row := ProfitAndLossAccount{Code: acc.Code, Name: acc.Name, Amount: amount}
		switch acc.Type {
		case accounting.AccountTypeRevenue:
			revenue.Accounts = append(revenue.Accounts, row)
			revenue.Total += amount
		case accounting.AccountTypeExpense:
			expenses.Accounts = append(expenses.Accounts, row)
			expenses.Total += amount
		}
	}

	sort.Slice(revenue.Accounts, func(i, j int) bool { return revenue.Accounts[i].Code < revenue.Accounts[j].Code })
	sort.Slice(expenses.Accounts, func(i, j int) bool { return expenses.Accounts[i].Code < expenses.Accounts[j].Code })

	result := ProfitAndLoss{
		Revenue:   revenue,
		Expenses:  expenses,
		NetProfit: revenue.Total - expenses.Total,
	}
	if revenue.Total != 0 {
		result.NetProfitMargin = result.NetProfit / revenue.Total * 100
	}
	return result
}
