package knowledge

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// truth is a fixed mine layout used to answer observations in tests.
type truth struct {
	height, width int
	mines         CellSet
}

func newTruth(height, width int, mines ...Cell) *truth {
	return &truth{height: height, width: width, mines: NewCellSet(mines...)}
}

func randomTruth(rng *rand.Rand, height, width, count int) *truth {
	tr := newTruth(height, width)
	for len(tr.mines) < count {
		tr.mines.Add(Cell{Row: rng.Intn(height), Col: rng.Intn(width)})
	}
	return tr
}

func (tr *truth) count(c Cell) int {
	n := 0
	for _, nb := range c.Neighbors(tr.height, tr.width) {
		if tr.mines.Has(nb) {
			n++
		}
	}
	return n
}

func (tr *truth) observe(t *testing.T, kb *KnowledgeBase, c Cell) {
	t.Helper()
	require.False(t, tr.mines.Has(c), "observed a mine at %s", c)
	require.NoError(t, kb.RecordObservation(c, tr.count(c)))
}

// checkConsistent asserts every invariant the knowledge base promises
// against the real layout.
func checkConsistent(t *testing.T, kb *KnowledgeBase, tr *truth) {
	t.Helper()
	for _, c := range kb.KnownMines() {
		assert.True(t, tr.mines.Has(c), "false mine %s", c)
		assert.False(t, kb.IsSafe(c), "%s is both mine and safe", c)
	}
	for _, c := range kb.KnownSafes() {
		assert.False(t, tr.mines.Has(c), "false safe %s", c)
	}
	for _, s := range kb.Sentences() {
		require.NoError(t, s.Validate())
		assert.False(t, s.IsEmpty())
		actual := 0
		for _, c := range s.Cells() {
			assert.False(t, kb.IsSafe(c) || kb.IsMine(c), "%s still holds known cell %s", s, c)
			if tr.mines.Has(c) {
				actual++
			}
		}
		assert.Equal(t, actual, s.Count(), "sentence %s disagrees with the board", s)
	}
}

func TestSubsetCombinationInfersSafe(t *testing.T) {
	kb := New(3, 3)
	require.NoError(t, kb.admit(NewSentence(cells(0, 0, 0, 1), 1)))
	require.NoError(t, kb.admit(NewSentence(cells(0, 0, 0, 1, 0, 2), 1)))
	require.NoError(t, kb.propagate())

	assert.True(t, kb.IsSafe(Cell{0, 2}))
	assert.False(t, kb.IsMine(Cell{0, 0}))
	assert.False(t, kb.IsSafe(Cell{0, 0}))

	move, ok := kb.ChooseSafeMove()
	require.True(t, ok)
	assert.Equal(t, Cell{0, 2}, move)
}

func TestCombine(t *testing.T) {
	small := NewSentence(cells(0, 0, 0, 1), 1)
	large := NewSentence(cells(0, 0, 0, 1, 0, 2), 1)

	for _, pair := range [][2]*Sentence{{large, small}, {small, large}} {
		d, err := combine(pair[0], pair[1])
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.True(t, d.Equal(NewSentence(cells(0, 2), 0)), "got %s", d)
	}

	d, err := combine(small, NewSentence(cells(0, 1, 0, 0), 1))
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = combine(small, NewSentence(cells(0, 1, 1, 1), 1))
	require.NoError(t, err)
	assert.Nil(t, d, "overlapping sets without containment give nothing")

	_, err = combine(small, NewSentence(cells(0, 0, 0, 1), 2))
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestSimplify(t *testing.T) {
	kb := New(3, 3)
	require.NoError(t, kb.MarkMine(Cell{0, 0}))
	require.NoError(t, kb.MarkSafe(Cell{0, 1}))

	in := NewSentence(cells(0, 0, 0, 1, 0, 2, 1, 0), 2)
	out, ok := kb.Simplify(in)
	require.True(t, ok)
	assert.Equal(t, cells(0, 2, 1, 0), out.Cells())
	assert.Equal(t, 1, out.Count())
	assert.Equal(t, 4, in.Len(), "input is left untouched")

	again, ok := kb.Simplify(out)
	require.True(t, ok)
	assert.Same(t, out, again)

	_, ok = kb.Simplify(NewSentence(cells(0, 0, 0, 1), 1))
	assert.False(t, ok, "a sentence left without cells is discarded")
}

func TestRecordObservationRejectsImpossibleInput(t *testing.T) {
	kb := New(3, 3)

	err := kb.RecordObservation(Cell{3, 0}, 0)
	assert.ErrorIs(t, err, ErrInvalidObservation)

	err = kb.RecordObservation(Cell{0, 0}, 4)
	assert.ErrorIs(t, err, ErrInvalidObservation)

	err = kb.RecordObservation(Cell{1, 1}, -1)
	assert.ErrorIs(t, err, ErrInvalidObservation)

	assert.Empty(t, kb.MovesMade())
}

func TestRecordObservationTwiceIsNoop(t *testing.T) {
	kb := New(3, 3)
	require.NoError(t, kb.RecordObservation(Cell{1, 1}, 2))
	require.NoError(t, kb.RecordObservation(Cell{1, 1}, 2))

	assert.Equal(t, 1, kb.Stats().Observations)
	assert.Len(t, kb.Sentences(), 1)
}

func TestClassificationIsPermanent(t *testing.T) {
	kb := New(2, 2)
	require.NoError(t, kb.MarkMine(Cell{0, 0}))

	err := kb.MarkSafe(Cell{0, 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariantViolation))
	assert.True(t, kb.IsMine(Cell{0, 0}))
	assert.False(t, kb.IsSafe(Cell{0, 0}))
}

func TestRecordObservationOnKnownMineLeavesNoTrace(t *testing.T) {
	kb := New(3, 3)
	require.NoError(t, kb.MarkMine(Cell{1, 1}))

	err := kb.RecordObservation(Cell{1, 1}, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariantViolation))

	assert.Empty(t, kb.Observations())
	assert.Empty(t, kb.MovesMade())
	assert.False(t, kb.IsMoveMade(Cell{1, 1}))
	assert.Zero(t, kb.Stats().Observations)
	assert.Equal(t, []Cell{{1, 1}}, kb.KnownMines())
}

func TestSentenceCount(t *testing.T) {
	kb := New(3, 3)
	assert.Zero(t, kb.SentenceCount())

	require.NoError(t, kb.RecordObservation(Cell{1, 1}, 2))
	assert.Equal(t, 1, kb.SentenceCount())
	assert.Equal(t, len(kb.Sentences()), kb.SentenceCount())
}

func TestDuplicateSentencesAreStoredOnce(t *testing.T) {
	kb := New(3, 3)
	require.NoError(t, kb.admit(NewSentence(cells(0, 0, 0, 1), 1)))
	require.NoError(t, kb.admit(NewSentence(cells(0, 1, 0, 0), 1)))
	require.NoError(t, kb.propagate())
	assert.Len(t, kb.Sentences(), 1)
}

func TestThreeByThreeScenario(t *testing.T) {
	tr := newTruth(3, 3, Cell{0, 0})
	kb := New(3, 3, WithRand(rand.New(rand.NewSource(1))))

	tr.observe(t, kb, Cell{2, 2})
	for _, c := range cells(1, 1, 1, 2, 2, 1) {
		assert.True(t, kb.IsSafe(c), "%s should be safe", c)
	}

	tr.observe(t, kb, Cell{1, 1})
	checkConsistent(t, kb, tr)

	for {
		move, ok := kb.ChooseSafeMove()
		if !ok {
			break
		}
		assert.False(t, kb.IsMoveMade(move))
		assert.False(t, kb.IsMine(move))
		tr.observe(t, kb, move)
		checkConsistent(t, kb, tr)
	}

	assert.Equal(t, cells(0, 0), kb.KnownMines())
	assert.Len(t, kb.KnownSafes(), 8)

	_, err := kb.ChooseRandomMove()
	assert.ErrorIs(t, err, ErrNoMoveAvailable)
}

func TestMoveSelectionOnExhaustedBoard(t *testing.T) {
	kb := New(1, 2)
	require.NoError(t, kb.RecordObservation(Cell{0, 0}, 1))

	assert.Equal(t, cells(0, 1), kb.KnownMines())

	_, ok := kb.ChooseSafeMove()
	assert.False(t, ok)

	_, err := kb.ChooseRandomMove()
	assert.ErrorIs(t, err, ErrNoMoveAvailable)

	flag, ok := kb.ChooseFlagMove(nil)
	require.True(t, ok)
	assert.Equal(t, Cell{0, 1}, flag)

	_, ok = kb.ChooseFlagMove(func(Cell) bool { return true })
	assert.False(t, ok)
}

func TestChooseSafeMoveDoesNotMutate(t *testing.T) {
	kb := New(3, 3)
	require.NoError(t, kb.RecordObservation(Cell{0, 0}, 0))

	first, ok := kb.ChooseSafeMove()
	require.True(t, ok)
	second, ok := kb.ChooseSafeMove()
	require.True(t, ok)

	assert.Equal(t, first, second)
	assert.Equal(t, cells(0, 0), kb.MovesMade())
}

func TestChooseRandomMoveAvoidsPlayedAndMines(t *testing.T) {
	kb := New(2, 3, WithRand(rand.New(rand.NewSource(7))))
	require.NoError(t, kb.MarkMine(Cell{0, 2}))
	require.NoError(t, kb.RecordObservation(Cell{1, 0}, 0))

	for i := 0; i < 50; i++ {
		c, err := kb.ChooseRandomMove()
		require.NoError(t, err)
		assert.True(t, c.InBounds(2, 3))
		assert.NotEqual(t, Cell{0, 2}, c)
		assert.NotEqual(t, Cell{1, 0}, c)
	}
}

func TestRandomGamesStaySound(t *testing.T) {
	for seed := int64(1); seed <= 40; seed++ {
		rng := rand.New(rand.NewSource(seed))
		tr := randomTruth(rng, 8, 8, 10)
		kb := New(8, 8, WithRand(rng))

		for {
			move, ok := kb.ChooseSafeMove()
			if ok {
				require.False(t, tr.mines.Has(move), "seed %d: logic chose mine %s", seed, move)
			} else {
				var err error
				move, err = kb.ChooseRandomMove()
				if errors.Is(err, ErrNoMoveAvailable) {
					break
				}
				require.NoError(t, err)
				if tr.mines.Has(move) {
					break
				}
			}
			tr.observe(t, kb, move)
			checkConsistent(t, kb, tr)
		}
	}
}
