package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoardPlacesExactMineCount(t *testing.T) {
	for seed := int64(0); seed < 10; seed++ {
		b := NewBoard(9, 7, 10, rand.New(rand.NewSource(seed)))
		assert.Equal(t, 9, b.Width)
		assert.Equal(t, 7, b.Height)
		assert.Equal(t, 10, b.MineCount)
		assert.Len(t, b.Mines(), 10)
	}
}

func TestNewBoardCapsMines(t *testing.T) {
	b := NewBoard(2, 2, 9, rand.New(rand.NewSource(1)))
	assert.Equal(t, 4, b.MineCount)
}

func TestNewBoardFromLayout(t *testing.T) {
	b, err := NewBoardFromLayout([]string{
		"*..",
		"...",
		"..*",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, b.MineCount)
	assert.True(t, b.IsMine(0, 0))
	assert.True(t, b.IsMine(2, 2))
	assert.Equal(t, 2, b.NearbyMines(1, 1))
	assert.Equal(t, 1, b.NearbyMines(1, 0))
	assert.Equal(t, 0, b.NearbyMines(2, 0))
	assert.Equal(t, 0, b.NearbyMines(0, 0), "mines count their neighbors too")

	_, err = NewBoardFromLayout([]string{"..", "."})
	assert.ErrorIs(t, err, ErrBadLayout)
	_, err = NewBoardFromLayout(nil)
	assert.ErrorIs(t, err, ErrBadLayout)
}

func TestOpenFloodFill(t *testing.T) {
	b, err := NewBoardFromLayout([]string{
		"....",
		"....",
		"...*",
	})
	require.NoError(t, err)

	require.True(t, b.Open(0, 0))
	assert.True(t, b.IsRevealed(1, 1))
	assert.True(t, b.IsRevealed(2, 1))
	assert.False(t, b.IsRevealed(3, 2))
	assert.True(t, b.CheckClear())
	assert.False(t, b.FlaggedAllMines())

	b.ToggleFlag(3, 2)
	assert.True(t, b.FlaggedAllMines())
	assert.Equal(t, 1, b.GetFlagCount())
}

func TestOpenMine(t *testing.T) {
	b, err := NewBoardFromLayout([]string{"*."})
	require.NoError(t, err)

	assert.False(t, b.Open(0, 0))
	assert.True(t, b.Open(5, 5), "out of range is ignored")
}

func TestToggleFlag(t *testing.T) {
	b, err := NewBoardFromLayout([]string{"*.", ".."})
	require.NoError(t, err)

	b.ToggleFlag(0, 0)
	assert.True(t, b.IsFlagged(0, 0))
	assert.True(t, b.Open(0, 0), "flagged squares do not open")
	assert.False(t, b.IsRevealed(0, 0))

	b.ToggleFlag(0, 0)
	assert.False(t, b.IsFlagged(0, 0))

	b.Open(1, 1)
	b.ToggleFlag(1, 1)
	assert.False(t, b.IsFlagged(1, 1), "opened squares cannot be flagged")
}

func TestString(t *testing.T) {
	b, err := NewBoardFromLayout([]string{"*.", ".."})
	require.NoError(t, err)
	b.Open(1, 1)
	b.ToggleFlag(0, 0)

	want := "   0 1 \n" +
		"0: F - \n" +
		"1: - 1 \n"
	assert.Equal(t, want, b.String())
}
