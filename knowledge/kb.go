// Package knowledge holds the minesweeper inference core: sentences over sets
// of cells, the knowledge base that owns them, and the rules that turn clue
// counts into certain mines and certain safe cells.
package knowledge

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Observation is one revealed clue: cell was opened and Count of its
// neighbors are mines.
type Observation struct {
	Cell  Cell
	Count int
}

// Stats counts the work done by a knowledge base.
type Stats struct {
	Observations     int `json:"observations"`
	FactsLearned     int `json:"facts_learned"`
	SentencesDerived int `json:"sentences_derived"`
	Rounds           int `json:"rounds"`
}

type fact struct {
	cell Cell
	mine bool
}

// Option configures a KnowledgeBase.
type Option func(*KnowledgeBase)

// WithLogger sets the logger used for inference tracing.
func WithLogger(l *zap.Logger) Option {
	return func(kb *KnowledgeBase) {
		if l != nil {
			kb.logger = l
		}
	}
}

// WithRand sets the source used by ChooseRandomMove.
func WithRand(r *rand.Rand) Option {
	return func(kb *KnowledgeBase) {
		if r != nil {
			kb.rng = r
		}
	}
}

// KnowledgeBase is the belief state of one game. It is not safe for
// concurrent use.
type KnowledgeBase struct {
	height int
	width  int

	movesMade CellSet
	safes     CellSet
	mines     CellSet

	sentences []*Sentence
	keys      map[string]struct{}
	combined  map[[2]string]struct{}
	pending   []fact

	observations []Observation
	stats        Stats

	logger *zap.Logger
	rng    *rand.Rand
}

// New creates an empty knowledge base for a height x width grid.
func New(height, width int, opts ...Option) *KnowledgeBase {
	kb := &KnowledgeBase{
		height:    height,
		width:     width,
		movesMade: make(CellSet),
		safes:     make(CellSet),
		mines:     make(CellSet),
		keys:      make(map[string]struct{}),
		combined:  make(map[[2]string]struct{}),
		logger:    zap.NewNop(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(kb)
	}
	return kb
}

func (kb *KnowledgeBase) Height() int { return kb.height }

func (kb *KnowledgeBase) Width() int { return kb.width }

// RecordObservation adds the clue that cell is safe and count of its
// neighbors are mines, then propagates until nothing new can be derived.
func (kb *KnowledgeBase) RecordObservation(c Cell, count int) error {
	if !c.InBounds(kb.height, kb.width) {
		return fmt.Errorf("%w: %s outside %dx%d grid", ErrInvalidObservation, c, kb.height, kb.width)
	}
	neighbors := c.Neighbors(kb.height, kb.width)
	if count < 0 || count > len(neighbors) {
		return fmt.Errorf("%w: count %d at %s with %d neighbors", ErrInvalidObservation, count, c, len(neighbors))
	}
	if kb.movesMade.Has(c) {
		kb.logger.Debug("observation already recorded", zap.Stringer("cell", c))
		return nil
	}

	// a known mine must not leave a half-recorded observation behind
	if err := kb.markSafe(c); err != nil {
		return err
	}

	kb.logger.Debug("observation", zap.Stringer("cell", c), zap.Int("count", count))
	kb.stats.Observations++
	kb.observations = append(kb.observations, Observation{Cell: c, Count: count})
	kb.movesMade.Add(c)

	if err := kb.admit(NewSentence(neighbors, count)); err != nil {
		return err
	}
	if err := kb.propagate(); err != nil {
		return err
	}

	kb.logger.Debug("knowledge updated",
		zap.Int("sentences", len(kb.sentences)),
		zap.Int("safes", len(kb.safes)),
		zap.Int("mines", len(kb.mines)),
	)
	return nil
}

// MarkMine records an externally known mine and propagates.
func (kb *KnowledgeBase) MarkMine(c Cell) error {
	return kb.assert(c, true)
}

// MarkSafe records an externally known safe cell and propagates.
func (kb *KnowledgeBase) MarkSafe(c Cell) error {
	return kb.assert(c, false)
}

func (kb *KnowledgeBase) assert(c Cell, mine bool) error {
	if !c.InBounds(kb.height, kb.width) {
		return fmt.Errorf("%w: %s outside %dx%d grid", ErrInvalidObservation, c, kb.height, kb.width)
	}
	kb.pending = append(kb.pending, fact{cell: c, mine: mine})
	return kb.propagate()
}

// Simplify removes the globally known mines and safes from s. The second
// result is false when nothing informative is left, in which case the
// sentence must be discarded. A sentence with nothing to remove is returned
// as is.
func (kb *KnowledgeBase) Simplify(s *Sentence) (*Sentence, bool) {
	mines := s.cells.Intersect(kb.mines)
	safes := s.cells.Intersect(kb.safes)
	if len(mines) == 0 && len(safes) == 0 {
		return s, !s.IsEmpty()
	}

	out := newSentenceFromSet(s.cells.Minus(mines, safes), s.count-len(mines))
	if out.IsEmpty() {
		return nil, false
	}
	return out, true
}

// inferTrivial resolves all-mine and all-safe sentences. Cells are marked on
// the sentence immediately and queued as global facts.
func (kb *KnowledgeBase) inferTrivial(s *Sentence) (bool, error) {
	if err := s.Validate(); err != nil {
		return false, err
	}

	switch {
	case s.AllMines():
		kb.logger.Debug("all mines", zap.Stringer("sentence", s))
		for _, c := range s.Cells() {
			s.MarkMine(c)
			kb.pending = append(kb.pending, fact{cell: c, mine: true})
		}
	case s.AllSafe():
		kb.logger.Debug("all safe", zap.Stringer("sentence", s))
		for _, c := range s.Cells() {
			s.MarkSafe(c)
			kb.pending = append(kb.pending, fact{cell: c, mine: false})
		}
	default:
		return false, nil
	}
	return true, nil
}

// admit runs a fresh sentence through simplification and trivial inference,
// combines it with every held sentence and stores it with whatever it
// produced.
func (kb *KnowledgeBase) admit(s *Sentence) error {
	s, ok := kb.Simplify(s)
	if !ok {
		return nil
	}
	if _, err := kb.inferTrivial(s); err != nil {
		return err
	}
	if s.IsEmpty() {
		return nil
	}

	var derived []*Sentence
	for _, held := range kb.sentences {
		other, ok := kb.Simplify(held)
		if !ok {
			continue
		}
		d, err := combine(s, other)
		if err != nil {
			return err
		}
		if d != nil {
			derived = append(derived, d)
		}
	}

	kb.insert(s)
	for _, d := range derived {
		if kb.insert(d) {
			kb.stats.SentencesDerived++
			kb.logger.Debug("derived sentence", zap.Stringer("sentence", d))
		}
	}
	return nil
}

func (kb *KnowledgeBase) insert(s *Sentence) bool {
	if s.IsEmpty() {
		return false
	}
	k := s.Key()
	if _, dup := kb.keys[k]; dup {
		return false
	}
	kb.keys[k] = struct{}{}
	kb.sentences = append(kb.sentences, s)
	return true
}

// propagate runs to a fixed point: apply queued facts, resolve trivial
// sentences, and only when that yields nothing new try one round of subset
// combination over all pairs. It stops once a combination round adds no
// sentence.
func (kb *KnowledgeBase) propagate() error {
	for {
		kb.stats.Rounds++
		if err := kb.drainFacts(); err != nil {
			return err
		}

		inferred, err := kb.sweep()
		if err != nil {
			return err
		}
		if inferred {
			continue
		}

		added, err := kb.combineRound()
		if err != nil {
			return err
		}
		if added == 0 {
			return nil
		}
	}
}

func (kb *KnowledgeBase) drainFacts() error {
	for len(kb.pending) > 0 {
		f := kb.pending[0]
		kb.pending = kb.pending[1:]

		var err error
		if f.mine {
			err = kb.markMine(f.cell)
		} else {
			err = kb.markSafe(f.cell)
		}
		if err != nil {
			return err
		}
	}
	kb.pending = nil
	return nil
}

// markMine adds c to the global mines and removes it from every sentence.
func (kb *KnowledgeBase) markMine(c Cell) error {
	if kb.safes.Has(c) {
		return &InvariantError{Op: "mark mine", Detail: fmt.Sprintf("%s is already known safe", c)}
	}
	if !kb.mines.Has(c) {
		kb.mines.Add(c)
		kb.stats.FactsLearned++
		kb.logger.Debug("learned mine", zap.Stringer("cell", c))
	}
	for _, s := range kb.sentences {
		s.MarkMine(c)
	}
	return nil
}

// markSafe adds c to the global safes and removes it from every sentence.
func (kb *KnowledgeBase) markSafe(c Cell) error {
	if kb.mines.Has(c) {
		return &InvariantError{Op: "mark safe", Detail: fmt.Sprintf("%s is already known mine", c)}
	}
	if !kb.safes.Has(c) {
		kb.safes.Add(c)
		kb.stats.FactsLearned++
		kb.logger.Debug("learned safe", zap.Stringer("cell", c))
	}
	for _, s := range kb.sentences {
		s.MarkSafe(c)
	}
	return nil
}

// sweep normalizes every held sentence and resolves the trivial ones. It
// reports whether any fact was queued.
func (kb *KnowledgeBase) sweep() (bool, error) {
	inferred := false
	for i, s := range kb.sentences {
		simplified, ok := kb.Simplify(s)
		if !ok {
			kb.sentences[i] = nil
			continue
		}
		kb.sentences[i] = simplified

		found, err := kb.inferTrivial(simplified)
		if err != nil {
			return false, err
		}
		inferred = inferred || found
	}
	kb.compact()
	return inferred, nil
}

// compact drops emptied and duplicate sentences and rebuilds the key index.
func (kb *KnowledgeBase) compact() {
	kept := kb.sentences[:0]
	keys := make(map[string]struct{}, len(kb.sentences))
	for _, s := range kb.sentences {
		if s == nil || s.IsEmpty() {
			continue
		}
		k := s.Key()
		if _, dup := keys[k]; dup {
			continue
		}
		keys[k] = struct{}{}
		kept = append(kept, s)
	}
	clear(kb.sentences[len(kept):])
	kb.sentences = kept
	kb.keys = keys
}
