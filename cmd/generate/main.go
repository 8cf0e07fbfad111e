// Command generate batch-processes PGN files into a puzzle snapshot.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/chesskit/tactician/internal/eco"
	"github.com/chesskit/tactician/internal/gamesource"
	"github.com/chesskit/tactician/internal/generate"
	"github.com/chesskit/tactician/internal/logx"
	"github.com/chesskit/tactician/internal/scorer"
	"github.com/chesskit/tactician/internal/store"
)

func main() {
	var (
		pgnPath       = flag.String("pgn", "", "PGN file or directory (.pgn or .pgn.zst)")
		outPath       = flag.String("out", "puzzles.json.zst", "output snapshot path")
		userID        = flag.String("user", "", "user to attach generated puzzles to")
		maxPuzzles    = flag.Int("max-puzzles", 5, "maximum puzzles per game")
		seed          = flag.Int64("seed", 1, "seed for quiet-position selection and explanation text")
		quietChance   = flag.Float64("quiet-chance", 0.1, "probability of keeping a quiet position")
		stockfishPath = flag.String("stockfish", "", "path to a UCI engine; empty = heuristic")
		evalDepth     = flag.Int("eval-depth", 12, "engine search depth per position")
		ecoDir        = flag.String("eco-dir", "", "directory containing ECO .tsv files")
	)
	flag.Parse()

	logger := logx.NewLogger()
	if *pgnPath == "" {
		logger.Fatal().Msg("-pgn is required")
	}

	files, err := pgnFiles(*pgnPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("list PGN files")
	}
	if len(files) == 0 {
		logger.Fatal().Str("path", *pgnPath).Msg("no PGN files found")
	}

	var sc scorer.Scorer
	if *stockfishPath != "" {
		eng, err := scorer.NewEngine(scorer.EngineConfig{Path: *stockfishPath, Depth: *evalDepth})
		if err != nil {
			logger.Fatal().Err(err).Msg("start engine scorer")
		}
		defer eng.Close()
		sc = eng
	} else {
		sc = scorer.NewHeuristic(scorer.HeuristicConfig{QuietChance: *quietChance, Seed: *seed})
	}

	var ecoDB *eco.Database
	if *ecoDir != "" {
		ecoDB = eco.NewDatabase()
		if err := ecoDB.LoadDir(*ecoDir); err != nil {
			logger.Warn().Err(err).Msg("failed to load ECO database")
			ecoDB = nil
		}
	}

	st := store.NewMemoryStore()
	pipe := generate.NewPipeline(generate.Config{
		MaxPuzzles: *maxPuzzles,
		Seed:       *seed,
		Logger:     logger.With().Str("component", "pipeline").Logger(),
		ECO:        ecoDB,
	}, sc, st)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	var games, puzzles int
	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		r, err := gamesource.Open(path)
		if err != nil {
			logger.Error().Err(err).Str("file", path).Msg("open failed")
			continue
		}
		parsed, err := gamesource.ReadGames(r)
		r.Close()
		if err != nil {
			logger.Warn().Err(err).Str("file", path).Msg("partial read")
		}
		for _, g := range parsed {
			out, err := pipe.Run(ctx, g, *userID)
			if err != nil {
				logger.Warn().Err(err).Str("game", g.ID).Msg("generation aborted")
				break
			}
			games++
			puzzles += len(out)
		}
		logger.Info().Str("file", filepath.Base(path)).Int("games", len(parsed)).Msg("file processed")
	}

	f, err := os.Create(*outPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("create output")
	}
	if err := st.Export(f); err != nil {
		logger.Fatal().Err(err).Msg("write snapshot")
	}
	if err := f.Close(); err != nil {
		logger.Fatal().Err(err).Msg("close output")
	}

	logger.Info().
		Int("games", games).
		Int("puzzles", puzzles).
		Dur("elapsed", time.Since(start)).
		Str("out", *outPath).
		Msg("generation complete")
}

func pgnFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !gamesource.IsPGNFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
