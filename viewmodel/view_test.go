package viewmodel

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweeplogic/game"
	"sweeplogic/knowledge"
	"sweeplogic/solver"
)

func TestNewGameViewOverlay(t *testing.T) {
	b, err := game.NewBoardFromLayout([]string{
		"*..",
		"...",
	})
	require.NoError(t, err)

	kb := knowledge.New(2, 3)
	b.Open(2, 1)
	require.NoError(t, kb.RecordObservation(knowledge.Cell{Row: 1, Col: 2}, 0))

	v := NewGameView("g1", b, kb)
	assert.Equal(t, "g1", v.ID)
	assert.False(t, v.IsGameOver)
	assert.Equal(t, 1, v.MinesRemaining)

	assert.Equal(t, "opened", v.Cells[1][2].State)
	assert.Equal(t, "safe", v.Cells[1][2].Knowledge)
	assert.Equal(t, "safe", v.Cells[0][1].Knowledge)
	assert.Equal(t, "hidden", v.Cells[0][0].State)
	assert.Empty(t, v.Cells[0][0].Knowledge)
	assert.False(t, v.Cells[0][0].IsMine, "mines stay hidden while playing")
	assert.Equal(t, 4, v.KnownSafes)
}

func TestNewGameViewGameOver(t *testing.T) {
	b, err := game.NewBoardFromLayout([]string{"*."})
	require.NoError(t, err)
	b.Open(0, 0)

	v := NewGameView("g2", b, nil)
	assert.True(t, v.IsGameOver)
	assert.False(t, v.IsGameClear)
	assert.True(t, v.Cells[0][0].IsMine)

	var decoded GameView
	require.NoError(t, json.Unmarshal([]byte(v.JSON()), &decoded))
	assert.Equal(t, v, decoded)
}

func TestNewGameViewNilBoard(t *testing.T) {
	v := NewGameView("g3", nil, nil)
	assert.Nil(t, v.Cells)
}

func TestNewStep(t *testing.T) {
	kb := knowledge.New(2, 2)
	m := &solver.Move{X: 1, Y: 0, Type: solver.MoveFlag, Strategy: solver.StrategyLogic, Confidence: 1}

	s := NewStep("g", 3, m, solver.OutcomeFlagged, kb)
	assert.Equal(t, Step{Game: "g", N: 3, X: 1, Y: 0, Type: "flag", Strategy: "Logic", Outcome: "flagged"}, s)
}

func TestNewGameID(t *testing.T) {
	id := NewGameID()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, NewGameID())
}
