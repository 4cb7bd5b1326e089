package solver

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"sweeplogic/game"
	"sweeplogic/knowledge"
)

type MoveType int

const (
	MoveOpen MoveType = iota
	MoveFlag
)

func (t MoveType) String() string {
	switch t {
	case MoveOpen:
		return "open"
	case MoveFlag:
		return "flag"
	default:
		return fmt.Sprintf("MoveType(%d)", int(t))
	}
}

const (
	StrategyLogic  = "Logic"
	StrategyRandom = "Random"
)

type Move struct {
	X, Y       int
	Type       MoveType
	IsGuess    bool    // no certain move was available
	Strategy   string  // StrategyLogic or StrategyRandom
	Confidence float64 // 1.0 for deduced moves, 0.0 for guesses
}

func (m *Move) Cell() knowledge.Cell {
	return knowledge.Cell{Row: m.Y, Col: m.X}
}

// Outcome is what applying a move did to the board.
type Outcome int

const (
	OutcomeSafe Outcome = iota
	OutcomeFlagged
	OutcomeMine
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSafe:
		return "safe"
	case OutcomeFlagged:
		return "flagged"
	case OutcomeMine:
		return "mine"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// StepFunc is called after every applied move. A non-nil error stops Play.
type StepFunc func(n int, m *Move, o Outcome) error

// Result summarizes one finished game.
type Result struct {
	Won     bool            `json:"won"`
	Lost    bool            `json:"lost"`
	Moves   int             `json:"moves"`
	Guesses int             `json:"guesses"`
	Flags   int             `json:"flags"`
	Stats   knowledge.Stats `json:"stats"`
}

type Option func(*Solver)

func WithLogger(l *zap.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRand seeds the random fallback move.
func WithRand(r *rand.Rand) Option {
	return func(s *Solver) { s.rng = r }
}

func WithStepFunc(fn StepFunc) Option {
	return func(s *Solver) { s.onStep = fn }
}

// Solver drives a knowledge base against a board: it asks for moves, plays
// them and feeds the revealed counts back.
type Solver struct {
	Board *game.Board
	KB    *knowledge.KnowledgeBase

	logger *zap.Logger
	rng    *rand.Rand
	onStep StepFunc
}

func New(b *game.Board, opts ...Option) *Solver {
	s := &Solver{Board: b, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.KB = knowledge.New(b.Height, b.Width,
		knowledge.WithLogger(s.logger.Named("knowledge")),
		knowledge.WithRand(s.rng),
	)
	return s
}

// NextMove prefers a deduced safe square, then flags a deduced mine, and only
// guesses when neither exists. It returns knowledge.ErrNoMoveAvailable once
// every square is opened or a known mine.
func (s *Solver) NextMove() (*Move, error) {
	// 1. certainly safe
	if c, ok := s.KB.ChooseSafeMove(); ok {
		return &Move{X: c.Col, Y: c.Row, Type: MoveOpen, Strategy: StrategyLogic, Confidence: 1.0}, nil
	}

	// 2. certainly a mine
	if c, ok := s.KB.ChooseFlagMove(s.flagged); ok {
		return &Move{X: c.Col, Y: c.Row, Type: MoveFlag, Strategy: StrategyLogic, Confidence: 1.0}, nil
	}

	// 3. guess
	c, err := s.KB.ChooseRandomMove()
	if err != nil {
		return nil, err
	}
	return &Move{X: c.Col, Y: c.Row, Type: MoveOpen, IsGuess: true, Strategy: StrategyRandom}, nil
}

func (s *Solver) flagged(c knowledge.Cell) bool {
	return s.Board.IsFlagged(c.Col, c.Row)
}

// Apply plays m on the board. Every square the board opened, including the
// ones uncovered by flood fill, is reported to the knowledge base.
func (s *Solver) Apply(m *Move) (Outcome, error) {
	if !s.Board.InBounds(m.X, m.Y) {
		return OutcomeSafe, fmt.Errorf("move %s at (%d,%d) is off the board", m.Type, m.X, m.Y)
	}

	switch m.Type {
	case MoveFlag:
		if !s.Board.IsFlagged(m.X, m.Y) {
			s.Board.ToggleFlag(m.X, m.Y)
		}
		return OutcomeFlagged, nil
	case MoveOpen:
		if !s.Board.Open(m.X, m.Y) {
			return OutcomeMine, nil
		}
		if err := s.observe(m.X, m.Y); err != nil {
			return OutcomeSafe, err
		}
		if err := s.observeRevealed(); err != nil {
			return OutcomeSafe, err
		}
		return OutcomeSafe, nil
	default:
		return OutcomeSafe, fmt.Errorf("unknown move type %s", m.Type)
	}
}

func (s *Solver) observe(x, y int) error {
	c := knowledge.Cell{Row: y, Col: x}
	if err := s.KB.RecordObservation(c, s.Board.NearbyMines(x, y)); err != nil {
		return fmt.Errorf("observe %s: %w", c, err)
	}
	return nil
}

func (s *Solver) observeRevealed() error {
	for y := 0; y < s.Board.Height; y++ {
		for x := 0; x < s.Board.Width; x++ {
			if !s.Board.IsRevealed(x, y) || s.KB.IsMoveMade(knowledge.Cell{Row: y, Col: x}) {
				continue
			}
			if err := s.observe(x, y); err != nil {
				return err
			}
		}
	}
	return nil
}

// Play runs the game to the end: every safe square opened, every mine
// flagged, a mine opened by a guess, or no move left.
func (s *Solver) Play(ctx context.Context) (res Result, err error) {
	defer func() { res.Stats = s.KB.Stats() }()

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		if s.Board.CheckClear() || s.Board.FlaggedAllMines() {
			res.Won = true
			break
		}

		move, err := s.NextMove()
		if errors.Is(err, knowledge.ErrNoMoveAvailable) {
			res.Won = s.Board.CheckClear()
			break
		}
		if err != nil {
			return res, err
		}

		outcome, err := s.Apply(move)
		if err != nil {
			return res, err
		}
		res.Moves++
		if move.IsGuess {
			res.Guesses++
		}
		if outcome == OutcomeFlagged {
			res.Flags++
		}

		s.logger.Debug("move",
			zap.Int("n", res.Moves),
			zap.Int("x", move.X),
			zap.Int("y", move.Y),
			zap.Stringer("type", move.Type),
			zap.String("strategy", move.Strategy),
			zap.Stringer("outcome", outcome),
		)

		if s.onStep != nil {
			if stepErr := s.onStep(res.Moves, move, outcome); stepErr != nil {
				return res, stepErr
			}
		}

		if outcome == OutcomeMine {
			res.Lost = true
			break
		}
	}

	s.logger.Info("game over",
		zap.Bool("won", res.Won),
		zap.Int("moves", res.Moves),
		zap.Int("guesses", res.Guesses),
	)
	return res, nil
}
