package knowledge

import (
	"fmt"
	"slices"
	"strings"
)

// Cell is a grid coordinate. Row is the vertical index, Col the horizontal one.
type Cell struct {
	Row int
	Col int
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// InBounds reports whether the cell lies on a height x width grid.
func (c Cell) InBounds(height, width int) bool {
	return c.Row >= 0 && c.Row < height && c.Col >= 0 && c.Col < width
}

// Neighbors returns the 8-connected neighborhood of c clipped to the grid,
// excluding c itself, in row-major order.
func (c Cell) Neighbors(height, width int) []Cell {
	out := make([]Cell, 0, 8)
	for r := c.Row - 1; r <= c.Row+1; r++ {
		for col := c.Col - 1; col <= c.Col+1; col++ {
			n := Cell{Row: r, Col: col}
			if n == c || !n.InBounds(height, width) {
				continue
			}
			out = append(out, n)
		}
	}
	return out
}

func compareCells(a, b Cell) int {
	if a.Row != b.Row {
		return a.Row - b.Row
	}
	return a.Col - b.Col
}

// CellSet is an unordered set of cells.
type CellSet map[Cell]struct{}

// NewCellSet builds a set from the given cells.
func NewCellSet(cells ...Cell) CellSet {
	s := make(CellSet, len(cells))
	for _, c := range cells {
		s[c] = struct{}{}
	}
	return s
}

func (s CellSet) Has(c Cell) bool {
	_, ok := s[c]
	return ok
}

func (s CellSet) Add(c Cell) {
	s[c] = struct{}{}
}

func (s CellSet) Remove(c Cell) {
	delete(s, c)
}

func (s CellSet) Clone() CellSet {
	out := make(CellSet, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	return out
}

// Intersect returns the cells present in both s and other.
func (s CellSet) Intersect(other CellSet) CellSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(CellSet)
	for c := range small {
		if large.Has(c) {
			out[c] = struct{}{}
		}
	}
	return out
}

// Minus returns the cells of s that appear in none of the others.
func (s CellSet) Minus(others ...CellSet) CellSet {
	out := make(CellSet, len(s))
next:
	for c := range s {
		for _, o := range others {
			if o.Has(c) {
				continue next
			}
		}
		out[c] = struct{}{}
	}
	return out
}

// SubsetOf reports whether every cell of s is in other.
func (s CellSet) SubsetOf(other CellSet) bool {
	if len(s) > len(other) {
		return false
	}
	for c := range s {
		if !other.Has(c) {
			return false
		}
	}
	return true
}

func (s CellSet) Equal(other CellSet) bool {
	return len(s) == len(other) && s.SubsetOf(other)
}

// Sorted returns the cells in row-major order.
func (s CellSet) Sorted() []Cell {
	out := make([]Cell, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	slices.SortFunc(out, compareCells)
	return out
}

func (s CellSet) String() string {
	cells := s.Sorted()
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = c.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
