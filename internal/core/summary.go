package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Type   TransactionType
	Amount Money
}

// Summary is the derived balance view over a set of transactions.
type Summary struct {
	Income     Money
	Expense    Money
	Balance    Money
	ByCategory []CategoryAmount
}

// Summarize totals income and expense and aggregates amounts per category,
// keeping first-seen category order.
func Summarize(txs []Transaction) Summary {
	income, expense := decimal.Zero, decimal.Zero
	index := map[string]int{}
	var by []CategoryAmount

	for _, t := range txs {
		switch t.Type {
		case Income:
			income = income.Add(t.Amount.Decimal)
		case Expense:
			expense = expense.Add(t.Amount.Decimal)
		default:
			continue
		}
		key := string(t.Type) + "/" + t.Category
		i, ok := index[key]
		if !ok {
			i = len(by)
			index[key] = i
			by = append(by, CategoryAmount{Name: t.Category, Type: t.Type})
		}
		by[i].Amount = Money{Decimal: by[i].Amount.Add(t.Amount.Decimal)}
	}

	return Summary{
		Income:     Money{Decimal: income},
		Expense:    Money{Decimal: expense},
		Balance:    Money{Decimal: income.Sub(expense)},
		ByCategory: by,
	}
}
