package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sweeplogic/audit"
	"sweeplogic/bench"
	"sweeplogic/config"
	"sweeplogic/game"
	"sweeplogic/logging"
	"sweeplogic/solver"
	"sweeplogic/viewmodel"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "sweep",
		Short: "Play Minesweeper with a propositional knowledge base",
		Long: `sweep plays Minesweeper by pure deduction. Every opened square adds a
sentence "these neighbors hide exactly n mines"; sentences are simplified
and combined by subset difference until nothing new follows. It guesses only
when no square is known to be safe.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg

			logger, err := logging.New(cfg.Logging, a.verbose)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultPath, "config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newPlayCmd(a), newBenchCmd(a), newConfigCmd(a))
	return root
}

type playOptions struct {
	width, height, mines int
	seed                 int64
	trace                bool
	audit                bool
	json                 bool
}

func newPlayCmd(a *app) *cobra.Command {
	var opts playOptions

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play one game and print the final board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("width") {
				a.cfg.Board.Width = opts.width
			}
			if flags.Changed("height") {
				a.cfg.Board.Height = opts.height
			}
			if flags.Changed("mines") {
				a.cfg.Board.Mines = opts.mines
			}
			if flags.Changed("seed") {
				a.cfg.Board.Seed = opts.seed
			}
			if opts.audit {
				a.cfg.Audit.Truth = true
				a.cfg.Audit.Entailment = true
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return runPlay(cmd.Context(), a, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&opts.width, "width", 9, "board width")
	cmd.Flags().IntVar(&opts.height, "height", 9, "board height")
	cmd.Flags().IntVar(&opts.mines, "mines", 10, "number of mines")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed (0 = clock)")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "print every move as a JSON line")
	cmd.Flags().BoolVar(&opts.audit, "audit", false, "check the knowledge base against the board after every move")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the final board as JSON")
	return cmd
}

var errAuditFailed = errors.New("audit failed")

func runPlay(ctx context.Context, a *app, opts playOptions, out io.Writer) error {
	cfg := a.cfg
	seed := cfg.Board.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	id := viewmodel.NewGameID()
	log := a.logger.With(zap.String("game", id), zap.Int64("seed", seed))
	rng := rand.New(rand.NewSource(seed))
	b := game.NewBoard(cfg.Board.Width, cfg.Board.Height, cfg.Board.Mines, rng)

	enc := json.NewEncoder(out)
	var s *solver.Solver
	step := func(n int, m *solver.Move, o solver.Outcome) error {
		if opts.trace {
			if err := enc.Encode(viewmodel.NewStep(id, n, m, o, s.KB)); err != nil {
				return fmt.Errorf("write trace: %w", err)
			}
		}
		if cfg.Audit.Truth {
			report, err := audit.CheckTruth(s.KB, b)
			if err != nil {
				return err
			}
			if !report.Clean() {
				return fmt.Errorf("%w after move %d: %s", errAuditFailed, n, report)
			}
		}
		return nil
	}
	s = solver.New(b, solver.WithRand(rng), solver.WithLogger(log), solver.WithStepFunc(step))

	res, err := s.Play(ctx)
	if err != nil {
		return fmt.Errorf("game %s: %w", id, err)
	}

	if opts.json {
		fmt.Fprintln(out, viewmodel.NewGameView(id, b, s.KB).JSON())
	} else {
		fmt.Fprint(out, b.String())
	}

	verdict := "lost"
	if res.Won {
		verdict = "won"
	}
	fmt.Fprintf(out, "%s in %d moves (%d guesses), seed %d\n", verdict, res.Moves, res.Guesses, seed)
	fmt.Fprintf(out, "knowledge: %d observations, %d facts, %d derived sentences\n",
		res.Stats.Observations, res.Stats.FactsLearned, res.Stats.SentencesDerived)

	if cfg.Audit.Entailment {
		report := audit.Entailed(s.KB, cfg.Audit.SegmentLimit)
		fmt.Fprintf(out, "entailment: %d segments, %d skipped, %d missed\n",
			report.Segments, report.Skipped, len(report.Missed))
		if !report.Sound() {
			return fmt.Errorf("%w: unforced conclusions %v", errAuditFailed, report.Unsound)
		}
	}
	return nil
}

func newBenchCmd(a *app) *cobra.Command {
	var (
		games, workers int
		csvPath        string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Play many games concurrently and summarize the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("games") {
				a.cfg.Bench.Games = games
			}
			if cmd.Flags().Changed("workers") {
				a.cfg.Bench.Workers = workers
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			sum, err := bench.Run(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sum)

			if csvPath == "" {
				return nil
			}
			f, err := os.Create(csvPath)
			if err != nil {
				return fmt.Errorf("create csv: %w", err)
			}
			defer f.Close()
			if err := sum.WriteCSV(f); err != nil {
				return err
			}
			a.logger.Info("wrote csv", zap.String("path", csvPath), zap.Int("rows", len(sum.Rows)))
			return nil
		},
	}

	cmd.Flags().IntVar(&games, "games", 100, "number of games")
	cmd.Flags().IntVar(&workers, "workers", 4, "games played at once")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write per-game rows to this CSV file")
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	})
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
