package viewmodel

import (
	"encoding/json"

	"github.com/google/uuid"

	"sweeplogic/game"
	"sweeplogic/knowledge"
	"sweeplogic/solver"
)

type CellView struct {
	State     string `json:"state"`               // hidden, opened or flagged
	Count     int    `json:"count"`               // clue of an opened square
	IsMine    bool   `json:"is_mine"`             // only shown once the game is over
	Knowledge string `json:"knowledge,omitempty"` // safe or mine, as deduced
}

type GameView struct {
	ID             string       `json:"id"`
	Cells          [][]CellView `json:"cells"`
	MinesRemaining int          `json:"mines_remaining"`
	KnownMines     int          `json:"known_mines"`
	KnownSafes     int          `json:"known_safes"`
	Sentences      int          `json:"sentences"`
	IsGameOver     bool         `json:"is_game_over"`
	IsGameClear    bool         `json:"is_game_clear"`
}

// NewGameID returns a fresh identifier for a game.
func NewGameID() string {
	return uuid.NewString()
}

// NewGameView snapshots the board with the knowledge base's conclusions laid
// over it. kb may be nil.
func NewGameView(id string, b *game.Board, kb *knowledge.KnowledgeBase) GameView {
	if b == nil {
		return GameView{ID: id}
	}

	h := b.Height
	w := b.Width

	isClear := b.CheckClear() || b.FlaggedAllMines()
	isGameOver := false

	grid := make([][]CellView, h)
	for y := 0; y < h; y++ {
		grid[y] = make([]CellView, w)
		for x := 0; x < w; x++ {
			c := b.Cells[y][x]
			v := CellView{}

			switch {
			case c.IsRevealed:
				v.State = "opened"
				v.IsMine = c.IsMine
				v.Count = c.NeighborCount
				if c.IsMine {
					isGameOver = true
				}
			case c.IsFlagged:
				v.State = "flagged"
			default:
				v.State = "hidden"
			}

			if kb != nil {
				cell := knowledge.Cell{Row: y, Col: x}
				switch {
				case kb.IsMine(cell):
					v.Knowledge = "mine"
				case kb.IsSafe(cell):
					v.Knowledge = "safe"
				}
			}
			grid[y][x] = v
		}
	}

	if isGameOver || isClear {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if b.Cells[y][x].IsMine {
					grid[y][x].IsMine = true
				}
			}
		}
	}

	view := GameView{
		ID:             id,
		Cells:          grid,
		MinesRemaining: b.MineCount - b.GetFlagCount(),
		IsGameOver:     isGameOver,
		IsGameClear:    isClear && !isGameOver,
	}
	if kb != nil {
		view.KnownMines = len(kb.KnownMines())
		view.KnownSafes = len(kb.KnownSafes())
		view.Sentences = kb.SentenceCount()
	}
	return view
}

// JSON encodes the view. An encoding failure yields "{}".
func (v GameView) JSON() string {
	bytes, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(bytes)
}

// Step is one line of a game trace.
type Step struct {
	Game       string `json:"game"`
	N          int    `json:"n"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Type       string `json:"type"`
	Strategy   string `json:"strategy"`
	Guess      bool   `json:"guess"`
	Outcome    string `json:"outcome"`
	KnownMines int    `json:"known_mines"`
	KnownSafes int    `json:"known_safes"`
	Sentences  int    `json:"sentences"`
}

func NewStep(id string, n int, m *solver.Move, o solver.Outcome, kb *knowledge.KnowledgeBase) Step {
	s := Step{
		Game:     id,
		N:        n,
		X:        m.X,
		Y:        m.Y,
		Type:     m.Type.String(),
		Strategy: m.Strategy,
		Guess:    m.IsGuess,
		Outcome:  o.String(),
	}
	if kb != nil {
		s.KnownMines = len(kb.KnownMines())
		s.KnownSafes = len(kb.KnownSafes())
		s.Sentences = kb.SentenceCount()
	}
	return s
}
