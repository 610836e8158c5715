package export

import (
	"encoding/csv"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting/ledger"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/reports"
)

var printer = message.NewPrinter(language.English)

func formatFloat(v float64) string {
	return printer.Sprintf("%.2f", v)
}

// WriteTrialBalanceCSV serialises a trial balance to CSV.
func WriteTrialBalanceCSV(w io.Writer, tb reports.TrialBalance, asOf string) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Code", "Account", "Type", "Debit", "Credit"}); err != nil {
		return err
	}
	for _, row := range tb.Accounts {
		if err := writer.Write([]string{
			row.Code,
			row.Name,
			string(row.Type),
			formatFloat(row.Debit),
			formatFloat(row.Credit),
		}); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{"", "Total", asOf, formatFloat(tb.TotalDebit), formatFloat(tb.TotalCredit)}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// WriteBalanceSheetCSV serialises a balance sheet to CSV, one section at a time.
func WriteBalanceSheetCSV(w io.Writer, bs reports.BalanceSheet) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Section", "Code", "Account", "Balance"}); err != nil {
		return err
	}
	for _, section := range []reports.BalanceSheetSection{bs.Assets, bs.Liabilities, bs.Equity} {
		for _, acc := range section.Accounts {
			if err := writer.Write([]string{section.Label, acc.Code, acc.Name, formatFloat(acc.Balance)}); err != nil {
				return err
			}
		}
		if err := writer.Write([]string{section.Label, "", "Total", formatFloat(section.Total)}); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{"", "", "Total Liabilities and Equity", formatFloat(bs.TotalLiabilitiesAndEquity)}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// WriteProfitAndLossCSV serialises a P&L statement to CSV.
func WriteProfitAndLossCSV(w io.Writer, pl reports.ProfitAndLoss) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Section", "Code", "Account", "Amount"}); err != nil {
		return err
	}
	for _, section := range []reports.ProfitAndLossSection{pl.Revenue, pl.Expenses} {
		for _, acc := range section.Accounts {
			if err := writer.Write([]string{section.Label, acc.Code, acc.Name, formatFloat(acc.Amount)}); err != nil {
				return err
			}
		}
		if err := writer.Write([]string{section.Label, "", "Total", formatFloat(section.Total)}); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{"", "", "Net Profit", formatFloat(pl.NetProfit)}); err != nil {
		return err
	}
	if err := writer.Write([]string{"", "", "Net Profit Margin %", formatFloat(pl.NetProfitMargin)}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// WriteAccountLedgerCSV serialises an account statement with running balances.
func WriteAccountLedgerCSV(w io.Writer, statement *ledger.AccountLedger) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Date", "Entry", "Description", "Debit", "Credit", "Balance"}); err != nil {
		return err
	}
	if err := writer.Write([]string{"", "", "Opening Balance", "", "", formatFloat(statement.OpeningBalance)}); err != nil {
		return err
	}
	for _, line := range statement.Entries {
		if err := writer.Write([]string{
			line.Date.Format("2006-01-02"),
			line.EntryNumber,
			line.Description,
			formatFloat(line.Debit),
			formatFloat(line.Credit),
			formatFloat(line.RunningBalance),
		}); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{"", "", "Closing Balance", "", "", formatFloat(statement.ClosingBalance)}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}
