package knowledge

import (
	"slices"
)

// ChooseSafeMove returns a known safe cell that has not been played yet,
// preferring the lowest row then column. It does not modify the knowledge
// base.
func (kb *KnowledgeBase) ChooseSafeMove() (Cell, bool) {
	var best Cell
	found := false
	for c := range kb.safes {
		if kb.movesMade.Has(c) {
			continue
		}
		if !found || compareCells(c, best) < 0 {
			best, found = c, true
		}
	}
	return best, found
}

// ChooseFlagMove returns the lowest known mine for which flagged reports
// false.
func (kb *KnowledgeBase) ChooseFlagMove(flagged func(Cell) bool) (Cell, bool) {
	var best Cell
	found := false
	for c := range kb.mines {
		if flagged != nil && flagged(c) {
			continue
		}
		if !found || compareCells(c, best) < 0 {
			best, found = c, true
		}
	}
	return best, found
}

// ChooseRandomMove picks uniformly among cells that were not played and are
// not known mines.
func (kb *KnowledgeBase) ChooseRandomMove() (Cell, error) {
	candidates := make([]Cell, 0, kb.height*kb.width)
	for r := 0; r < kb.height; r++ {
		for c := 0; c < kb.width; c++ {
			cell := Cell{Row: r, Col: c}
			if kb.movesMade.Has(cell) || kb.mines.Has(cell) {
				continue
			}
			candidates = append(candidates, cell)
		}
	}
	if len(candidates) == 0 {
		return Cell{}, ErrNoMoveAvailable
	}
	return candidates[kb.rng.Intn(len(candidates))], nil
}

func (kb *KnowledgeBase) IsMine(c Cell) bool { return kb.mines.Has(c) }

func (kb *KnowledgeBase) IsSafe(c Cell) bool { return kb.safes.Has(c) }

func (kb *KnowledgeBase) IsMoveMade(c Cell) bool { return kb.movesMade.Has(c) }

// KnownMines returns the globally known mines in row-major order.
func (kb *KnowledgeBase) KnownMines() []Cell { return kb.mines.Sorted() }

// KnownSafes returns the globally known safe cells in row-major order.
func (kb *KnowledgeBase) KnownSafes() []Cell { return kb.safes.Sorted() }

func (kb *KnowledgeBase) MovesMade() []Cell { return kb.movesMade.Sorted() }

// Sentences returns copies of the held sentences in insertion order.
func (kb *KnowledgeBase) Sentences() []*Sentence {
	out := make([]*Sentence, len(kb.sentences))
	for i, s := range kb.sentences {
		out[i] = s.Clone()
	}
	return out
}

// SentenceCount is len(Sentences()) without the copies.
func (kb *KnowledgeBase) SentenceCount() int { return len(kb.sentences) }

func (kb *KnowledgeBase) Observations() []Observation {
	return slices.Clone(kb.observations)
}

func (kb *KnowledgeBase) Stats() Stats { return kb.stats }
