package http

import (
	"net/url"
	"strconv"
	"strings"

	"wallet/internal/core"
	"wallet/internal/table"
)

// tableQuery is the table state carried in the home page URL.
// Page is 1-based.
type tableQuery struct {
	Page int
	Size int
	Sort string
	Desc bool
}

func parseTableQuery(q url.Values, defaultSize int) tableQuery {
	tq := tableQuery{Page: 1, Size: defaultSize}
	if v, err := strconv.Atoi(strings.TrimSpace(q.Get("page"))); err == nil && v > 0 {
		tq.Page = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(q.Get("size"))); err == nil {
		tq.Size = v
	}
	tq.Sort = strings.TrimSpace(q.Get("sort"))
	if tq.Sort != "" {
		tq.Desc, _ = strconv.ParseBool(q.Get("desc"))
	}
	return tq
}

// URL renders the query back into a home page link. Defaults are omitted.
func (tq tableQuery) URL() string {
	v := url.Values{}
	if tq.Page > 1 {
		v.Set("page", strconv.Itoa(tq.Page))
	}
	if tq.Size > 0 {
		v.Set("size", strconv.Itoa(tq.Size))
	}
	if tq.Sort != "" {
		v.Set("sort", tq.Sort)
		if tq.Desc {
			v.Set("desc", "1")
		}
	}
	if len(v) == 0 {
		return "/"
	}
	return "/?" + v.Encode()
}

// buildTransactionTable applies tq to txs. Invalid sizes or sort columns
// from the URL fall back to the defaults instead of failing the page.
func buildTransactionTable(txs []core.Transaction, tq tableQuery, defaultSize int) *table.RowModel[core.Transaction] {
	cols := table.TransactionColumns()
	cfg := table.Config{
		InitialPageSize: tq.Size,
		SortBy:          tq.Sort,
		SortDesc:        tq.Desc,
		PageIndex:       tq.Page - 1,
	}
	if m, err := table.Build(txs, cols, cfg); err == nil {
		return m
	}
	cfg.InitialPageSize = defaultSize
	if m, err := table.Build(txs, cols, cfg); err == nil {
		return m
	}
	cfg.SortBy, cfg.SortDesc = "", false
	if m, err := table.Build(txs, cols, cfg); err == nil {
		return m
	}
	m, _ := table.Build(txs, cols, table.Config{PageIndex: cfg.PageIndex})
	return m
}
