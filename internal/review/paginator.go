package review

import (
	"fmt"

	"github.com/beelab/dancereview/internal/errors"
)

// Grid limits.
const (
	MinRows        = 1
	MaxRows        = 5
	MinColumns     = 1
	MaxColumns     = 10
	DefaultRows    = 2
	DefaultColumns = 5
)

// Grid is the rows x columns layout of one page.
type Grid struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

// DefaultGrid returns the 2x5 grid.
func DefaultGrid() Grid {
	return Grid{Rows: DefaultRows, Columns: DefaultColumns}
}

// Validate checks the grid against the supported limits.
func (g Grid) Validate() error {
	if g.Rows < MinRows || g.Rows > MaxRows {
		return errors.ValidationError(fmt.Sprintf("rows must be between %d and %d, got %d", MinRows, MaxRows, g.Rows))
	}
	if g.Columns < MinColumns || g.Columns > MaxColumns {
		return errors.ValidationError(fmt.Sprintf("columns must be between %d and %d, got %d", MinColumns, MaxColumns, g.Columns))
	}
	return nil
}

// PageSize is the number of items a full page holds.
func (g Grid) PageSize() int {
	return g.Rows * g.Columns
}

// Cell is a 0-indexed grid position.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Place lays out n items row-major. The last row may be partial.
func (g Grid) Place(n int) []Cell {
	cells := make([]Cell, n)
	for i := range n {
		cells[i] = Cell{Row: i / g.Columns, Col: i % g.Columns}
	}
	return cells
}

// Paginator splits a working subset of Total items into fixed-size pages.
// Pages are 1-indexed.
type Paginator struct {
	Total int
	Size  int
}

// NewPaginator returns a paginator for total items on grid g.
func NewPaginator(total int, g Grid) Paginator {
	return Paginator{Total: total, Size: g.PageSize()}
}

// PageCount is ceil(Total / Size); zero for an empty subset.
func (p Paginator) PageCount() int {
	if p.Size <= 0 {
		return 0
	}
	return (p.Total + p.Size - 1) / p.Size
}

// Contains reports whether page exists.
func (p Paginator) Contains(page int) bool {
	return page >= 1 && page <= p.PageCount()
}

// Bounds returns the half-open index range [start, end) of page.
func (p Paginator) Bounds(page int) (start, end int, err error) {
	if !p.Contains(page) {
		return 0, 0, errors.New(fmt.Errorf("page %d out of range 1..%d", page, p.PageCount())).
			Component("review").
			Category(errors.CategoryValidation).
			Context("page", page).
			Context("page_count", p.PageCount()).
			Build()
	}
	start = (page - 1) * p.Size
	end = min(start+p.Size, p.Total)
	return start, end, nil
}

// PageOf returns the page that holds the item at index i.
func (p Paginator) PageOf(i int) int {
	return i/p.Size + 1
}

// PageSlice returns the items of page.
func PageSlice[T any](items []T, p Paginator, page int) ([]T, error) {
	start, end, err := p.Bounds(page)
	if err != nil {
		return nil, err
	}
	return items[start:end], nil
}
