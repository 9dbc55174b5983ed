// Package table is a headless row model: it sorts and paginates rows of
// any type and leaves rendering to the caller.
package table

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"wallet/internal/core"
)

var (
	ErrUnknownColumn   = errors.New("unknown column")
	ErrNotSortable     = errors.New("column is not sortable")
	ErrInvalidPageSize = errors.New("page size not in options")
	ErrNoColumns       = errors.New("no columns")
	ErrDuplicateColumn = errors.New("duplicate column id")
)

// DefaultPageSizeOptions are the page sizes offered by the pager.
var DefaultPageSizeOptions = []int{5, 10, 15, 20}

// Column describes one field of a row. Accessor must return a value of a
// comparable kind (string, integer, float, bool, time.Time, core.Date,
// decimal.Decimal, core.Money) if the column is sortable.
type Column[T any] struct {
	ID       string
	Header   string
	Accessor func(T) any
	Sortable bool
}

// Direction of the active sort.
type Direction int

const (
	Unsorted Direction = iota
	Asc
	Desc
)

func (d Direction) String() string {
	switch d {
	case Asc:
		return "asc"
	case Desc:
		return "desc"
	default:
		return ""
	}
}

// Config is the initial state. Zero values fall back to defaults.
type Config struct {
	InitialPageSize int
	PageSizeOptions []int
	SortBy          string
	SortDesc        bool
	PageIndex       int
}

// RowModel holds the sorted view of the rows and the pagination state.
// It is not safe for concurrent use.
type RowModel[T any] struct {
	columns   []Column[T]
	rows      []T
	sorted    []T
	options   []int
	pageSize  int
	pageIndex int
	sortBy    string
	sortDir   Direction
}

// Build validates cfg against columns and returns a model positioned on
// the requested page (clamped) with the requested sort applied.
func Build[T any](rows []T, columns []Column[T], cfg Config) (*RowModel[T], error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c.ID] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.ID)
		}
		seen[c.ID] = true
	}

	options := cfg.PageSizeOptions
	if len(options) == 0 {
		options = DefaultPageSizeOptions
	}
	for _, o := range options {
		if o < 1 {
			return nil, fmt.Errorf("%w: option %d", ErrInvalidPageSize, o)
		}
	}
	size := cfg.InitialPageSize
	if size == 0 {
		size = options[0]
	}
	if !slices.Contains(options, size) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
	}

	m := &RowModel[T]{
		columns:  slices.Clone(columns),
		rows:     slices.Clone(rows),
		options:  slices.Clone(options),
		pageSize: size,
	}
	m.sorted = m.rows

	if cfg.SortBy != "" {
		dir := Asc
		if cfg.SortDesc {
			dir = Desc
		}
		if err := m.SetSort(cfg.SortBy, dir); err != nil {
			return nil, err
		}
	}
	m.GotoPage(cfg.PageIndex)
	return m, nil
}

// Columns returns the column definitions in display order.
func (m *RowModel[T]) Columns() []Column[T] { return m.columns }

// Rows returns every row in the current sort order.
func (m *RowModel[T]) Rows() []T { return m.sorted }

// Len is the total number of rows.
func (m *RowModel[T]) Len() int { return len(m.rows) }

// SortBy returns the active sort column and direction.
func (m *RowModel[T]) SortBy() (string, Direction) {
	return m.sortBy, m.sortDir
}

// ToggleSortBy advances id through unsorted, ascending, descending and
// back to unsorted. Sorting by a new column starts at ascending and
// clears any other sort.
func (m *RowModel[T]) ToggleSortBy(id string) error {
	return m.SetSort(id, m.NextSort(id))
}

// NextSort is the direction ToggleSortBy(id) would apply. Views use it
// to build sort links.
func (m *RowModel[T]) NextSort(id string) Direction {
	if id != m.sortBy {
		return Asc
	}
	switch m.sortDir {
	case Asc:
		return Desc
	case Desc:
		return Unsorted
	default:
		return Asc
	}
}

// SetSort sorts by column id in direction dir. Unsorted restores the
// original row order.
func (m *RowModel[T]) SetSort(id string, dir Direction) error {
	col, err := m.column(id)
	if err != nil {
		return err
	}
	if !col.Sortable {
		return fmt.Errorf("%w: %q", ErrNotSortable, id)
	}

	if dir == Unsorted {
		m.sortBy, m.sortDir = "", Unsorted
		m.sorted = m.rows
		return nil
	}

	sorted := slices.Clone(m.rows)
	slices.SortStableFunc(sorted, func(a, b T) int {
		c := Compare(col.Accessor(a), col.Accessor(b))
		if dir == Desc {
			return -c
		}
		return c
	})
	m.sortBy, m.sortDir = id, dir
	m.sorted = sorted
	return nil
}

func (m *RowModel[T]) column(id string) (Column[T], error) {
	for _, c := range m.columns {
		if c.ID == id {
			return c, nil
		}
	}
	return Column[T]{}, fmt.Errorf("%w: %q", ErrUnknownColumn, id)
}

// Page returns the rows on the current page. It holds at most PageSize
// rows and is empty only when there are no rows at all.
func (m *RowModel[T]) Page() []T {
	start := m.pageIndex * m.pageSize
	if start >= len(m.sorted) {
		return nil
	}
	end := min(start+m.pageSize, len(m.sorted))
	return m.sorted[start:end]
}

func (m *RowModel[T]) PageIndex() int { return m.pageIndex }

func (m *RowModel[T]) PageSize() int { return m.pageSize }

// PageOptions returns the selectable page sizes.
func (m *RowModel[T]) PageOptions() []int { return slices.Clone(m.options) }

// PageCount is ceil(rows/pageSize), and 1 for an empty table.
func (m *RowModel[T]) PageCount() int {
	if len(m.rows) == 0 {
		return 1
	}
	return (len(m.rows) + m.pageSize - 1) / m.pageSize
}

func (m *RowModel[T]) CanPreviousPage() bool { return m.pageIndex > 0 }

func (m *RowModel[T]) CanNextPage() bool { return m.pageIndex < m.PageCount()-1 }

// PreviousPage is a no-op on the first page.
func (m *RowModel[T]) PreviousPage() {
	if m.CanPreviousPage() {
		m.pageIndex--
	}
}

// NextPage is a no-op on the last page.
func (m *RowModel[T]) NextPage() {
	if m.CanNextPage() {
		m.pageIndex++
	}
}

// GotoPage moves to page i, clamped to [0, PageCount-1].
func (m *RowModel[T]) GotoPage(i int) {
	m.pageIndex = max(0, min(i, m.PageCount()-1))
}

// SetPageSize changes the page size and returns to the first page.
func (m *RowModel[T]) SetPageSize(size int) error {
	if !slices.Contains(m.options, size) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
	}
	m.pageSize = size
	m.pageIndex = 0
	return nil
}

// Compare orders two accessor values. Values of different or unsupported
// kinds compare by their formatted text; nil sorts first.
func Compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(x, y)
		}
	case int:
		if y, ok := b.(int); ok {
			return cmp.Compare(x, y)
		}
	case int64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, y)
		}
	case uint64:
		if y, ok := b.(uint64); ok {
			return cmp.Compare(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case core.Date:
		if y, ok := b.(core.Date); ok {
			return x.Time.Compare(y.Time)
		}
	case decimal.Decimal:
		if y, ok := b.(decimal.Decimal); ok {
			return x.Cmp(y)
		}
	case core.Money:
		if y, ok := b.(core.Money); ok {
			return x.Cmp(y.Decimal)
		}
	case fmt.Stringer:
		if y, ok := b.(fmt.Stringer); ok {
			return cmp.Compare(x.String(), y.String())
		}
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
