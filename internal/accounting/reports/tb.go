package reports

import (
	"math"
	"sort"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/ledger"
)

// TrialBalanceRow places an account's net movement in exactly one column.
type TrialBalanceRow struct {
	Code   string
	Name   string
	Type   accounting.AccountType
	Debit  float64
	Credit float64
}

// TrialBalance is the structured trial balance response.
type TrialBalance struct {
	Accounts    []TrialBalanceRow
	TotalDebit  float64
	TotalCredit float64
	IsBalanced  bool
}

// BuildTrialBalance nets each account's activity into a debit-column value
// when positive or a credit-column value when negative. Accounts whose net
// movement rounds to zero are omitted.
func BuildTrialBalance(activity []ledger.AccountActivity) TrialBalance {
	result := TrialBalance{}
	for _, acc := range activity {
		net := acc.Net()
		if math.Abs(net) <= accounting.AmountTolerance {
			continue
		}
		row := TrialBalanceRow{Code: acc.Code, Name: acc.Name, Type: acc.Type}
		if net > 0 {
			row.Debit = net
		} else {
			row.Credit = -net
		}
		result.Accounts = append(result.Accounts, row)
		result.TotalDebit += row.Debit
		result.TotalCredit += row.Credit
	}
	sort.Slice(result.Accounts, func(i, j int) bool {
		return result.Accounts[i].Code < result.Accounts[j].Code
	})
	result.IsBalanced = math.Abs(result.TotalDebit-result.TotalCredit) < accounting.AmountTolerance
	return result
}
