package table

import "wallet/internal/core"

// Column ids of the transactions table, also used in the sort query
// parameter.
const (
	ColDate     = "date"
	ColType     = "type"
	ColCategory = "category"
	ColComment  = "comment"
	ColSum      = "sum"
	ColBalance  = "balance"
)

// TransactionColumns is the home tab layout.
func TransactionColumns() []Column[core.Transaction] {
	return []Column[core.Transaction]{
		{ID: ColDate, Header: "Date", Sortable: true, Accessor: func(t core.Transaction) any { return t.Date }},
		{ID: ColType, Header: "Type", Sortable: true, Accessor: func(t core.Transaction) any { return string(t.Type) }},
		{ID: ColCategory, Header: "Category", Sortable: true, Accessor: func(t core.Transaction) any { return t.Category }},
		{ID: ColComment, Header: "Comment", Sortable: true, Accessor: func(t core.Transaction) any { return t.Comment }},
		{ID: ColSum, Header: "Sum", Sortable: true, Accessor: func(t core.Transaction) any { return t.Amount }},
		{ID: ColBalance, Header: "Balance", Sortable: true, Accessor: func(t core.Transaction) any { return t.Balance }},
	}
}
