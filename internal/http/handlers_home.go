package http

import (
	"net/http"
	"time"

	"wallet/internal/forms"
	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/notify"
	"wallet/internal/store"
	"wallet/internal/table"
	"wallet/internal/validation"
)

const (
	modalTransaction = "transaction"
	modalCategory    = "category"
	modalLogout      = "logout"
)

// homeState is what a handler adds on top of the store when rendering
// the home page: an open modal and its form.
type homeState struct {
	Modal           string
	CategoryForm    forms.Form
	TransactionForm forms.TransactionForm
	FieldErrors     validation.FieldErrors
	Flash           *notify.Notification
}

type homeView struct {
	homeState
	User       core.User
	Balance    string
	Income     string
	Expense    string
	Loading    bool
	Error      string
	Categories []core.Category
	Table      tableView
	Today      string
}

type tableView struct {
	Empty      bool
	Headers    []headerView
	Rows       []rowView
	PageNumber int
	PageCount  int
	CanPrev    bool
	CanNext    bool
	PrevURL    string
	NextURL    string
	Sizes      []sizeOption
	Sort       string
	Desc       bool
}

type headerView struct {
	Label   string
	SortURL string
	Arrow   string
}

type rowView struct {
	ID       string
	Type     string
	Sign     string
	Date     string
	Category string
	Comment  string
	Sum      string
	Balance  string
}

type sizeOption struct {
	Value    int
	Selected bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.refresh(r)
	s.renderHome(w, r, homeState{}, http.StatusOK)
}

// refresh reloads the session's data. Failures are recorded in the store
// and shown on the page with the previous data.
func (s *Server) refresh(r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := sess.Store.Refresh(sess.Context(r.Context())); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Refresh failed", log.FieldOperation, log.OpList, log.FieldError, err.Error())
	}
}

func (s *Server) renderHome(w http.ResponseWriter, r *http.Request, hs homeState, status int) {
	sess := sessionFrom(r.Context())
	if hs.Flash == nil {
		hs.Flash = sess.PopFlash()
	}
	st := sess.Store.State()
	sum := core.Summarize(st.Transactions)

	tq := parseTableQuery(r.URL.Query(), s.defaultPageSize)
	model := buildTransactionTable(st.Transactions, tq, s.defaultPageSize)
	log.FromContext(r.Context()).DebugContext(r.Context(), "Rendering home",
		log.NewFields().WithPage(model.PageIndex(), model.PageSize(), tq.Sort).ToSlice()...)

	errMsg := st.Err(store.ResourceTransactions)
	if errMsg == "" {
		errMsg = st.Err(store.ResourceCategories)
	}

	s.render(w, r, "home.html", status, homeView{
		homeState:  hs,
		User:       sess.User,
		Balance:    sum.Balance.Format(),
		Income:     sum.Income.Format(),
		Expense:    sum.Expense.Format(),
		Loading:    st.Loading(store.ResourceTransactions),
		Error:      errMsg,
		Categories: st.Categories,
		Table:      newTableView(model),
		Today:      time.Now().Format(core.DateLayout),
	})
}

// newTableView turns the row model into links and display strings.
// Every link carries the full table state so navigation is stateless.
func newTableView(m *table.RowModel[core.Transaction]) tableView {
	sortBy, dir := m.SortBy()
	current := tableQuery{Page: m.PageIndex() + 1, Size: m.PageSize(), Sort: sortBy, Desc: dir == table.Desc}

	v := tableView{
		Empty:      m.Len() == 0,
		PageNumber: m.PageIndex() + 1,
		PageCount:  m.PageCount(),
		CanPrev:    m.CanPreviousPage(),
		CanNext:    m.CanNextPage(),
		Sort:       current.Sort,
		Desc:       current.Desc,
	}

	prev, next := current, current
	prev.Page--
	next.Page++
	v.PrevURL, v.NextURL = prev.URL(), next.URL()

	for _, col := range m.Columns() {
		h := headerView{Label: col.Header}
		if col.ID == sortBy {
			switch dir {
			case table.Asc:
				h.Arrow = "▲"
			case table.Desc:
				h.Arrow = "▼"
			}
		}
		if col.Sortable {
			link := tableQuery{Page: 1, Size: current.Size}
			if nd := m.NextSort(col.ID); nd != table.Unsorted {
				link.Sort, link.Desc = col.ID, nd == table.Desc
			}
			h.SortURL = link.URL()
		}
		v.Headers = append(v.Headers, h)
	}

	for _, tx := range m.Page() {
		v.Rows = append(v.Rows, rowView{
			ID:       tx.ID,
			Type:     string(tx.Type),
			Sign:     tx.Type.Sign(),
			Date:     tx.Date.String(),
			Category: tx.Category,
			Comment:  tx.Comment,
			Sum:      tx.Amount.Format(),
			Balance:  tx.Balance.Format(),
		})
	}

	for _, size := range m.PageOptions() {
		v.Sizes = append(v.Sizes, sizeOption{Value: size, Selected: size == m.PageSize()})
	}
	return v
}
