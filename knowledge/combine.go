package knowledge

import (
	"fmt"

	"go.uber.org/zap"
)

// combine applies the subset rule to a pair of simplified sentences. When
// one cell set strictly contains the other, the mines of the larger set are
// the mines of the smaller plus the mines of the difference, so the
// difference carries the difference of the counts. It returns nil when the
// pair yields nothing.
func combine(a, b *Sentence) (*Sentence, error) {
	if a.Equal(b) {
		return nil, nil
	}
	if a.cells.Equal(b.cells) {
		return nil, &InvariantError{
			Op:     "combine",
			Detail: fmt.Sprintf("%s and %s disagree on the same cells", a, b),
		}
	}

	switch {
	case b.cells.SubsetOf(a.cells):
		return newSentenceFromSet(a.cells.Minus(b.cells), a.count-b.count), nil
	case a.cells.SubsetOf(b.cells):
		return newSentenceFromSet(b.cells.Minus(a.cells), b.count-a.count), nil
	}
	return nil, nil
}

// combineRound tests every pair of held sentences once and inserts what the
// subset rule produces. Pairs are remembered by content, so a pair is only
// retried after one side has been shrunk by a new fact.
func (kb *KnowledgeBase) combineRound() (int, error) {
	held := kb.sentences
	keys := make([]string, len(held))
	for i, s := range held {
		keys[i] = s.Key()
	}

	var derived []*Sentence
	for i := 0; i < len(held); i++ {
		for j := i + 1; j < len(held); j++ {
			pair := [2]string{keys[i], keys[j]}
			if pair[1] < pair[0] {
				pair[0], pair[1] = pair[1], pair[0]
			}
			if _, seen := kb.combined[pair]; seen {
				continue
			}
			kb.combined[pair] = struct{}{}

			d, err := combine(held[i], held[j])
			if err != nil {
				return 0, err
			}
			if d != nil {
				derived = append(derived, d)
			}
		}
	}

	added := 0
	for _, d := range derived {
		if kb.insert(d) {
			added++
			kb.logger.Debug("derived sentence", zap.Stringer("sentence", d))
		}
	}
	kb.stats.SentencesDerived += added
	return added, nil
}
