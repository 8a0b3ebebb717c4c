package sheets

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/smsledger/internal/model"
)

// CategoryTotal sums the transactions of one category.
type CategoryTotal struct {
	Debits   decimal.Decimal
	Credits  decimal.Decimal
	Category string
	Count    int
}

// Report is the ledger for one account over a date range. Ignored
// transactions are left out.
type Report struct {
	Start        time.Time
	End          time.Time
	Debits       decimal.Decimal
	Credits      decimal.Decimal
	Account      string
	Categories   []CategoryTotal
	Transactions []model.Transaction
}

// BuildReport summarizes txns. Categories are ordered by debits, largest
// first; transactions newest first.
func BuildReport(account string, start, end time.Time, txns []model.Transaction) Report {
	report := Report{Account: account, Start: start, End: end}
	totals := make(map[string]*CategoryTotal)

	for _, txn := range txns {
		if txn.Ignore {
			continue
		}
		report.Transactions = append(report.Transactions, txn)

		category := txn.Category
		if txn.IsUncategorized() {
			category = model.Uncategorized
		}
		total, ok := totals[category]
		if !ok {
			total = &CategoryTotal{Category: category}
			totals[category] = total
		}
		total.Count++

		if txn.Kind == model.KindCredit {
			total.Credits = total.Credits.Add(txn.Amount)
			report.Credits = report.Credits.Add(txn.Amount)
		} else {
			total.Debits = total.Debits.Add(txn.Amount)
			report.Debits = report.Debits.Add(txn.Amount)
		}
	}

	for _, total := range totals {
		report.Categories = append(report.Categories, *total)
	}
	sort.Slice(report.Categories, func(i, j int) bool {
		a, b := report.Categories[i], report.Categories[j]
		if cmp := a.Debits.Cmp(b.Debits); cmp != 0 {
			return cmp > 0
		}
		return a.Category < b.Category
	})
	sort.SliceStable(report.Transactions, func(i, j int) bool {
		return report.Transactions[i].Timestamp.After(report.Transactions[j].Timestamp)
	})

	return report
}

// Net is credits minus debits.
func (r Report) Net() decimal.Decimal {
	return r.Credits.Sub(r.Debits)
}

// Values lays the report out as spreadsheet rows.
func (r Report) Values() [][]any {
	values := make([][]any, 0, 14+len(r.Categories)+len(r.Transactions))

	values = append(values,
		[]any{
			"SMS Ledger",
			r.Account,
			fmt.Sprintf("%s to %s", r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly)),
		},
		[]any{},
		[]any{"Summary"},
		[]any{"Total Debits", r.Debits.StringFixed(2)},
		[]any{"Total Credits", r.Credits.StringFixed(2)},
		[]any{"Net", r.Net().StringFixed(2)},
		[]any{"Transactions", len(r.Transactions)},
		[]any{},
		[]any{"Category Breakdown"},
		[]any{"Category", "Count", "Debits", "Credits"},
	)

	for _, c := range r.Categories {
		values = append(values, []any{c.Category, c.Count, c.Debits.StringFixed(2), c.Credits.StringFixed(2)})
	}

	values = append(values,
		[]any{},
		[]any{"Transaction Details"},
		[]any{"Date", "Merchant", "Amount", "Kind", "Category", "Type", "Reason", "Email Checked"},
	)

	for _, txn := range r.Transactions {
		values = append(values, []any{
			txn.Timestamp.Format(time.DateOnly),
			txn.Merchant,
			txn.Amount.StringFixed(2),
			string(txn.Kind),
			txn.Category,
			txn.Type,
			txn.Reason,
			emailStatus(txn),
		})
	}

	return values
}

func emailStatus(txn model.Transaction) string {
	switch {
	case txn.MultipleMails:
		return "multiple"
	case txn.EmailChecked:
		return "yes"
	}
	return ""
}
