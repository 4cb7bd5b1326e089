package game

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// ErrBadLayout is returned by NewBoardFromLayout for ragged or empty input.
var ErrBadLayout = errors.New("bad board layout")

// NewBoard places mineCount mines at random on a width x height board. A nil
// rng falls back to a time-seeded source.
func NewBoard(width, height, mineCount int, rng *rand.Rand) *Board {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if mineCount > width*height {
		mineCount = width * height
	}

	board := newEmptyBoard(width, height)
	board.placeMines(mineCount, rng)
	board.calculateNeighbors()

	return board
}

// NewBoardFromLayout builds a board from rows of text, '*' marking a mine
// and any other byte an empty square.
func NewBoardFromLayout(rows []string) (*Board, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrBadLayout)
	}
	width := len(rows[0])
	board := newEmptyBoard(width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrBadLayout, y, len(row), width)
		}
		for x := 0; x < width; x++ {
			if row[x] == '*' {
				board.Cells[y][x].IsMine = true
				board.MineCount++
			}
		}
	}
	board.calculateNeighbors()
	return board, nil
}

func newEmptyBoard(width, height int) *Board {
	cells := make([][]Cell, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]Cell, width)
	}
	return &Board{
		Width:  width,
		Height: height,
		Cells:  cells,
	}
}

// placeMines scatters count mines on distinct squares.
func (b *Board) placeMines(count int, rng *rand.Rand) {
	for b.MineCount < count {
		x := rng.Intn(b.Width)
		y := rng.Intn(b.Height)

		if !b.Cells[y][x].IsMine {
			b.Cells[y][x].IsMine = true
			b.MineCount++
		}
	}
}

// calculateNeighbors fills NeighborCount for every safe square.
func (b *Board) calculateNeighbors() {
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if b.Cells[y][x].IsMine {
				continue
			}
			count := 0
			b.forEachNeighbor(x, y, func(nx, ny int) {
				if b.Cells[ny][nx].IsMine {
					count++
				}
			})
			b.Cells[y][x].NeighborCount = count
		}
	}
}

func (b *Board) forEachNeighbor(x, y int, fn func(nx, ny int)) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if b.InBounds(nx, ny) {
				fn(nx, ny)
			}
		}
	}
}

func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && x < b.Width && y >= 0 && y < b.Height
}

// IsMine is the ground truth. Solvers must not consult it.
func (b *Board) IsMine(x, y int) bool {
	return b.InBounds(x, y) && b.Cells[y][x].IsMine
}

// NearbyMines returns the number of mines around (x, y), not counting the
// square itself.
func (b *Board) NearbyMines(x, y int) int {
	if !b.InBounds(x, y) {
		return 0
	}
	if !b.Cells[y][x].IsMine {
		return b.Cells[y][x].NeighborCount
	}
	count := 0
	b.forEachNeighbor(x, y, func(nx, ny int) {
		if b.Cells[ny][nx].IsMine {
			count++
		}
	})
	return count
}

func (b *Board) IsRevealed(x, y int) bool {
	return b.InBounds(x, y) && b.Cells[y][x].IsRevealed
}

func (b *Board) IsFlagged(x, y int) bool {
	return b.InBounds(x, y) && b.Cells[y][x].IsFlagged
}

// Mines lists the mine positions in row-major order.
func (b *Board) Mines() []Point {
	out := make([]Point, 0, b.MineCount)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if b.Cells[y][x].IsMine {
				out = append(out, Point{X: x, Y: y})
			}
		}
	}
	return out
}

// String renders the board as the player sees it.
// Hidden squares are "-", flags "F", opened mines "*", zeros ".".
func (b *Board) String() string {
	var sb strings.Builder
	sb.WriteString("   ")
	for x := 0; x < b.Width; x++ {
		fmt.Fprintf(&sb, "%d ", x%10)
	}
	sb.WriteByte('\n')

	for y := 0; y < b.Height; y++ {
		fmt.Fprintf(&sb, "%d: ", y%10)
		for x := 0; x < b.Width; x++ {
			cell := b.Cells[y][x]

			switch {
			case cell.IsRevealed && cell.IsMine:
				sb.WriteString("* ")
			case cell.IsRevealed && cell.NeighborCount == 0:
				sb.WriteString(". ")
			case cell.IsRevealed:
				fmt.Fprintf(&sb, "%d ", cell.NeighborCount)
			case cell.IsFlagged:
				sb.WriteString("F ")
			default:
				sb.WriteString("- ")
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// DebugPrint writes String to stdout.
func (b *Board) DebugPrint() {
	fmt.Print(b.String())
}

// Open reveals (x, y).
// It returns false when a mine was opened and true otherwise.
func (b *Board) Open(x, y int) bool {
	// 1. out of range
	if !b.InBounds(x, y) {
		return true
	}

	cell := &b.Cells[y][x]

	// 2. already open or flagged
	if cell.IsRevealed || cell.IsFlagged {
		return true
	}

	// 3. open
	cell.IsRevealed = true

	// 4. mine
	if cell.IsMine {
		return false
	}

	// 5. flood fill through zeros
	if cell.NeighborCount == 0 {
		b.forEachNeighbor(x, y, func(nx, ny int) {
			b.Open(nx, ny)
		})
	}

	return true
}

// ToggleFlag flips the flag on a hidden square.
func (b *Board) ToggleFlag(x, y int) {
	if !b.InBounds(x, y) {
		return
	}
	cell := &b.Cells[y][x]

	if cell.IsRevealed {
		return
	}

	cell.IsFlagged = !cell.IsFlagged
}

// GetFlagCount returns the number of flags on the board.
func (b *Board) GetFlagCount() int {
	count := 0
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if b.Cells[y][x].IsFlagged {
				count++
			}
		}
	}
	return count
}

// CheckClear reports whether every safe square has been opened.
func (b *Board) CheckClear() bool {
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			c := b.Cells[y][x]
			if !c.IsMine && !c.IsRevealed {
				return false
			}
		}
	}
	return true
}

// FlaggedAllMines reports whether the flags sit exactly on the mines.
func (b *Board) FlaggedAllMines() bool {
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			c := b.Cells[y][x]
			if c.IsMine != c.IsFlagged {
				return false
			}
		}
	}
	return true
}
