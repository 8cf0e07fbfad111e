package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chesskit/tactician/internal/eco"
	"github.com/chesskit/tactician/internal/generate"
	"github.com/chesskit/tactician/internal/httpapi"
	"github.com/chesskit/tactician/internal/logx"
	"github.com/chesskit/tactician/internal/scorer"
	"github.com/chesskit/tactician/internal/store"
)

func main() {
	var (
		// Server
		addr = flag.String("addr", ":8017", "listen address")

		// Scoring
		stockfishPath = flag.String("stockfish", "", "path to a UCI engine; empty = capture/check heuristic")
		evalDepth     = flag.Int("eval-depth", 12, "engine search depth per position")
		quietChance   = flag.Float64("quiet-chance", 0.1, "probability of keeping a quiet position")
		seed          = flag.Int64("seed", 1, "seed for quiet-position selection and explanation text")

		// Generation
		maxPuzzles = flag.Int("max-puzzles", 5, "maximum puzzles per game")
		workers    = flag.Int("workers", 0, "scoring workers (0 = NumCPU)")

		// ECO settings
		ecoDir = flag.String("eco-dir", "", "directory containing ECO .tsv files (empty = disabled)")

		// Snapshot
		snapshotPath = flag.String("snapshot", "", "puzzle snapshot to load on start (.json.zst)")
	)
	flag.Parse()

	if envPath := os.Getenv("STOCKFISH_PATH"); envPath != "" && *stockfishPath == "" {
		*stockfishPath = envPath
	}

	logger := logx.NewLogger()

	st := store.NewMemoryStore()
	if *snapshotPath != "" {
		f, err := os.Open(*snapshotPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("open snapshot")
		}
		n, err := st.Import(f)
		f.Close()
		if err != nil {
			logger.Fatal().Err(err).Msg("load snapshot")
		}
		logger.Info().Int("puzzles", n).Str("path", *snapshotPath).Msg("snapshot loaded")
	}

	var sc scorer.Scorer
	if *stockfishPath != "" {
		eng, err := scorer.NewEngine(scorer.EngineConfig{Path: *stockfishPath, Depth: *evalDepth})
		if err != nil {
			logger.Fatal().Err(err).Msg("start engine scorer")
		}
		defer eng.Close()
		sc = eng
		logger.Info().Str("engine", *stockfishPath).Int("depth", *evalDepth).Msg("engine scorer enabled")
	} else {
		sc = scorer.NewHeuristic(scorer.HeuristicConfig{QuietChance: *quietChance, Seed: *seed})
		logger.Info().Float64("quiet_chance", *quietChance).Msg("heuristic scorer enabled")
	}

	var ecoDB *eco.Database
	if *ecoDir != "" {
		ecoDB = eco.NewDatabase()
		if err := ecoDB.LoadDir(*ecoDir); err != nil {
			logger.Warn().Err(err).Str("dir", *ecoDir).Msg("failed to load ECO database")
			ecoDB = nil
		} else {
			logger.Info().Int("openings", ecoDB.Count()).Msg("ECO database loaded")
		}
	}

	pipe := generate.NewPipeline(generate.Config{
		MaxPuzzles: *maxPuzzles,
		Workers:    *workers,
		Seed:       *seed,
		Logger:     logger.With().Str("component", "pipeline").Logger(),
		ECO:        ecoDB,
	}, sc, st)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         *addr,
		Handler:      httpapi.NewRouter(logger, st, pipe),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("api server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http server shutdown error")
	}
	logger.Info().Int("puzzles", st.Len()).Msg("shutdown complete")
}
