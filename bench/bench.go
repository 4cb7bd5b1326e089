// Package bench plays many independent games and aggregates how the
// knowledge base fared.
package bench

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sweeplogic/audit"
	"sweeplogic/config"
	"sweeplogic/game"
	"sweeplogic/solver"
	"sweeplogic/viewmodel"
)

// GameResult is the record of one benchmark game.
type GameResult struct {
	ID      string        `json:"id"`
	Seed    int64         `json:"seed"`
	Result  solver.Result `json:"result"`
	Audit   string        `json:"audit,omitempty"`   // empty when no audit ran
	Aborted string        `json:"aborted,omitempty"` // error that stopped the game
}

type Summary struct {
	BaseSeed int64 `json:"base_seed"`
	Games    int   `json:"games"`
	Wins     int   `json:"wins"`
	Losses   int   `json:"losses"`
	Aborted  int   `json:"aborted"`
	Moves    int   `json:"moves"`
	Guesses  int   `json:"guesses"`
	Derived  int   `json:"derived"`

	// AuditFailures counts games whose audit was not clean.
	AuditFailures int `json:"audit_failures"`

	Rows []GameResult `json:"-"`
}

func (s Summary) WinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Games)
}

func (s Summary) String() string {
	return fmt.Sprintf("games=%d wins=%d losses=%d aborted=%d win_rate=%.3f guesses=%d derived=%d audit_failures=%d",
		s.Games, s.Wins, s.Losses, s.Aborted, s.WinRate(), s.Guesses, s.Derived, s.AuditFailures)
}

// Run plays cfg.Bench.Games games, at most cfg.Bench.Workers at a time. Game
// i is seeded with base+i, where base is cfg.Board.Seed or the clock when
// that is zero. A game that fails is logged and counted as aborted; only
// cancellation of ctx fails the run.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	base := cfg.Board.Seed
	if base == 0 {
		base = time.Now().UnixNano()
	}

	rows := make([]GameResult, cfg.Bench.Games)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Bench.Workers, 1))

	for i := range rows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row, err := playOne(ctx, cfg, base+int64(i), logger)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("bench: %w", err)
	}

	sum := Summary{BaseSeed: base, Games: len(rows), Rows: rows}
	for _, r := range rows {
		switch {
		case r.Aborted != "":
			sum.Aborted++
		case r.Result.Won:
			sum.Wins++
		case r.Result.Lost:
			sum.Losses++
		}
		if r.Audit != "" && r.Audit != "clean" {
			sum.AuditFailures++
		}
		sum.Moves += r.Result.Moves
		sum.Guesses += r.Result.Guesses
		sum.Derived += r.Result.Stats.SentencesDerived
	}

	logger.Info("bench finished",
		zap.Int("games", sum.Games),
		zap.Int("wins", sum.Wins),
		zap.Int("aborted", sum.Aborted),
		zap.Float64("win_rate", sum.WinRate()),
	)
	return sum, nil
}

// playOne owns its board, solver and rng. It returns an error only for
// cancellation.
func playOne(ctx context.Context, cfg *config.Config, seed int64, logger *zap.Logger) (GameResult, error) {
	id := viewmodel.NewGameID()
	log := logger.With(zap.String("game", id), zap.Int64("seed", seed))

	rng := rand.New(rand.NewSource(seed))
	b := game.NewBoard(cfg.Board.Width, cfg.Board.Height, cfg.Board.Mines, rng)
	s := solver.New(b, solver.WithRand(rng), solver.WithLogger(log))

	row := GameResult{ID: id, Seed: seed}
	res, err := s.Play(ctx)
	row.Result = res
	if err != nil {
		if ctx.Err() != nil {
			return row, ctx.Err()
		}
		log.Warn("game aborted", zap.Error(err))
		row.Aborted = err.Error()
		return row, nil
	}

	if cfg.Audit.Truth {
		report, err := audit.CheckTruth(s.KB, b)
		if err != nil {
			log.Warn("truth audit failed", zap.Error(err))
			row.Audit = err.Error()
			return row, nil
		}
		row.Audit = report.String()
	}
	if cfg.Audit.Entailment {
		report := audit.Entailed(s.KB, cfg.Audit.SegmentLimit)
		if !report.Sound() {
			row.Audit = fmt.Sprintf("unsound=%v contradictions=%d", report.Unsound, report.Contradictions)
		} else if row.Audit == "" {
			row.Audit = "clean"
		}
	}
	return row, nil
}

var csvHeader = []string{
	"id", "seed", "won", "lost", "moves", "guesses", "flags",
	"observations", "facts", "derived", "rounds", "audit", "aborted",
}

// WriteCSV writes one row per game, in seed order.
func (s Summary) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range s.Rows {
		st := r.Result.Stats
		record := []string{
			r.ID,
			strconv.FormatInt(r.Seed, 10),
			strconv.FormatBool(r.Result.Won),
			strconv.FormatBool(r.Result.Lost),
			strconv.Itoa(r.Result.Moves),
			strconv.Itoa(r.Result.Guesses),
			strconv.Itoa(r.Result.Flags),
			strconv.Itoa(st.Observations),
			strconv.Itoa(st.FactsLearned),
			strconv.Itoa(st.SentencesDerived),
			strconv.Itoa(st.Rounds),
			r.Audit,
			r.Aborted,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
