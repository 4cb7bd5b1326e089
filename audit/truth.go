// Package audit checks a knowledge base from the outside. CheckTruth compares
// its conclusions with the real board through a small Datalog program;
// Entailed enumerates the layouts its observations allow. Both are debugging
// aids and never influence move choice.
package audit

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	"github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"

	"sweeplogic/game"
	"sweeplogic/knowledge"
)

const truthProgram = `
Decl known_mine(Row, Col) bound [/number, /number].
Decl known_safe(Row, Col) bound [/number, /number].
Decl moved(Row, Col) bound [/number, /number].
Decl truth_mine(Row, Col) bound [/number, /number].

false_mine(R, C) :- known_mine(R, C), !truth_mine(R, C).
false_safe(R, C) :- known_safe(R, C), truth_mine(R, C).
overlap(R, C) :- known_mine(R, C), known_safe(R, C).
moved_mine(R, C) :- moved(R, C), truth_mine(R, C).
`

// loadTruthProgram parses and analyzes truthProgram on first use. The
// result is only read during evaluation.
var loadTruthProgram = sync.OnceValues(func() (*analysis.ProgramInfo, error) {
	unit, err := parse.Unit(strings.NewReader(truthProgram))
	if err != nil {
		return nil, fmt.Errorf("parse audit program: %w", err)
	}
	programInfo, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("analyze audit program: %w", err)
	}
	return programInfo, nil
})

// Report lists every disagreement between the knowledge base and the board.
type Report struct {
	FalseMines []knowledge.Cell `json:"false_mines,omitempty"`
	FalseSafes []knowledge.Cell `json:"false_safes,omitempty"`
	Overlap    []knowledge.Cell `json:"overlap,omitempty"`
	MovedMines []knowledge.Cell `json:"moved_mines,omitempty"`
}

func (r Report) Clean() bool {
	return len(r.FalseMines) == 0 && len(r.FalseSafes) == 0 && len(r.Overlap) == 0 && len(r.MovedMines) == 0
}

func (r Report) String() string {
	if r.Clean() {
		return "clean"
	}
	var parts []string
	add := func(name string, cells []knowledge.Cell) {
		if len(cells) > 0 {
			parts = append(parts, fmt.Sprintf("%s=%v", name, cells))
		}
	}
	add("false_mines", r.FalseMines)
	add("false_safes", r.FalseSafes)
	add("overlap", r.Overlap)
	add("moved_mines", r.MovedMines)
	return strings.Join(parts, " ")
}

// CheckTruth loads the knowledge base and the board's mines as facts and
// derives the disagreements.
func CheckTruth(kb *knowledge.KnowledgeBase, b *game.Board) (Report, error) {
	programInfo, err := loadTruthProgram()
	if err != nil {
		return Report{}, err
	}

	store := factstore.NewSimpleInMemoryStore()
	addCells(store, "known_mine", kb.KnownMines())
	addCells(store, "known_safe", kb.KnownSafes())
	addCells(store, "moved", kb.MovesMade())
	for _, p := range b.Mines() {
		addCells(store, "truth_mine", []knowledge.Cell{{Row: p.Y, Col: p.X}})
	}

	if _, err := engine.EvalProgramWithStats(programInfo, store); err != nil {
		return Report{}, fmt.Errorf("evaluate audit program: %w", err)
	}

	var report Report
	for _, q := range []struct {
		pred string
		dst  *[]knowledge.Cell
	}{
		{"false_mine", &report.FalseMines},
		{"false_safe", &report.FalseSafes},
		{"overlap", &report.Overlap},
		{"moved_mine", &report.MovedMines},
	} {
		cells, err := queryCells(store, q.pred)
		if err != nil {
			return Report{}, err
		}
		*q.dst = cells
	}
	return report, nil
}

func addCells(store factstore.FactStore, pred string, cells []knowledge.Cell) {
	for _, c := range cells {
		store.Add(ast.NewAtom(pred, ast.Number(int64(c.Row)), ast.Number(int64(c.Col))))
	}
}

func queryCells(store factstore.FactStore, pred string) ([]knowledge.Cell, error) {
	sym := ast.PredicateSym{Symbol: pred, Arity: 2}
	out := make(knowledge.CellSet)
	err := store.GetFacts(ast.NewQuery(sym), func(a ast.Atom) error {
		row, err := number(a.Args[0])
		if err != nil {
			return err
		}
		col, err := number(a.Args[1])
		if err != nil {
			return err
		}
		out.Add(knowledge.Cell{Row: row, Col: col})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", pred, err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out.Sorted(), nil
}

func number(term ast.BaseTerm) (int, error) {
	c, ok := term.(ast.Constant)
	if !ok || c.Type != ast.NumberType {
		return 0, fmt.Errorf("expected number, got %v", term)
	}
	return int(c.NumValue), nil
}
