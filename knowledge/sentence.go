package knowledge

import (
	"fmt"
	"strconv"
	"strings"
)

// Sentence is the statement "exactly Count of Cells are mines".
//
// Cells and count only change through MarkMine and MarkSafe. The mines and
// safes learned by this sentence are kept separately from the knowledge base's
// global sets and only grow when the sentence itself is marked.
type Sentence struct {
	cells CellSet
	count int

	mines CellSet
	safes CellSet
}

// NewSentence copies cells into a new sentence. The count is not checked here;
// Validate does that once the sentence has been simplified.
func NewSentence(cells []Cell, count int) *Sentence {
	return newSentenceFromSet(NewCellSet(cells...), count)
}

func newSentenceFromSet(cells CellSet, count int) *Sentence {
	return &Sentence{
		cells: cells,
		count: count,
		mines: make(CellSet),
		safes: make(CellSet),
	}
}

// Cells returns the unresolved cells in row-major order.
func (s *Sentence) Cells() []Cell { return s.cells.Sorted() }

func (s *Sentence) Count() int { return s.count }

func (s *Sentence) Len() int { return len(s.cells) }

func (s *Sentence) IsEmpty() bool { return len(s.cells) == 0 }

func (s *Sentence) Contains(c Cell) bool { return s.cells.Has(c) }

// AllMines reports whether every remaining cell must be a mine.
func (s *Sentence) AllMines() bool {
	return len(s.cells) > 0 && s.count == len(s.cells)
}

// AllSafe reports whether every remaining cell must be safe.
func (s *Sentence) AllSafe() bool {
	return len(s.cells) > 0 && s.count == 0
}

// KnownMines returns the cells this sentence has been told are mines.
func (s *Sentence) KnownMines() []Cell { return s.mines.Sorted() }

// KnownSafes returns the cells this sentence has been told are safe.
func (s *Sentence) KnownSafes() []Cell { return s.safes.Sorted() }

// MarkMine removes c from the sentence, if present, and lowers the count.
func (s *Sentence) MarkMine(c Cell) {
	if s.cells.Has(c) {
		s.cells.Remove(c)
		s.count--
	}
	s.mines.Add(c)
}

// MarkSafe removes c from the sentence, if present.
func (s *Sentence) MarkSafe(c Cell) {
	if s.cells.Has(c) {
		s.cells.Remove(c)
	}
	s.safes.Add(c)
}

// Equal compares cell sets and counts; learned sets are ignored.
func (s *Sentence) Equal(other *Sentence) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.count == other.count && s.cells.Equal(other.cells)
}

// Key is a canonical encoding of cells and count. Two sentences share a key
// exactly when they are Equal.
func (s *Sentence) Key() string {
	var b strings.Builder
	for _, c := range s.cells.Sorted() {
		b.WriteString(strconv.Itoa(c.Row))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(c.Col))
		b.WriteByte(';')
	}
	b.WriteByte('=')
	b.WriteString(strconv.Itoa(s.count))
	return b.String()
}

// Validate checks 0 <= count <= |cells|.
func (s *Sentence) Validate() error {
	if s.count < 0 || s.count > len(s.cells) {
		return &InvariantError{
			Op:     "validate sentence",
			Detail: fmt.Sprintf("count %d outside 0..%d in %s", s.count, len(s.cells), s),
		}
	}
	return nil
}

// Clone returns a deep copy including the learned sets.
func (s *Sentence) Clone() *Sentence {
	return &Sentence{
		cells: s.cells.Clone(),
		count: s.count,
		mines: s.mines.Clone(),
		safes: s.safes.Clone(),
	}
}

func (s *Sentence) String() string {
	return fmt.Sprintf("%s = %d", s.cells, s.count)
}
