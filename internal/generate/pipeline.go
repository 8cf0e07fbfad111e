package generate

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/chesskit/tactician/internal/board"
	"github.com/chesskit/tactician/internal/eco"
	"github.com/chesskit/tactician/internal/gamesource"
	"github.com/chesskit/tactician/internal/puzzle"
	"github.com/chesskit/tactician/internal/scorer"
	"github.com/chesskit/tactician/internal/store"
)

// Config configures a generation pipeline.
type Config struct {
	MaxPuzzles int            // Per game; default 5
	Workers    int            // Scoring workers; default runtime.NumCPU()
	Seed       int64          // Drives explanation templates
	Logger     zerolog.Logger // Logger
	ECO        *eco.Database  // Optional opening labels
}

// Pipeline replays one game at a time, scores each position, selects
// and assembles puzzles, and persists only fully validated records.
type Pipeline struct {
	cfg       Config
	scorer    scorer.Scorer
	store     *store.MemoryStore
	assembler *Assembler
	log       zerolog.Logger
}

// NewPipeline creates a pipeline writing to st.
func NewPipeline(cfg Config, sc scorer.Scorer, st *store.MemoryStore) *Pipeline {
	if cfg.MaxPuzzles == 0 {
		cfg.MaxPuzzles = 5
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Pipeline{
		cfg:       cfg,
		scorer:    sc,
		store:     st,
		assembler: NewAssembler(cfg.Seed),
		log:       cfg.Logger,
	}
}

// Run generates and stores puzzles for one game. A ReplayError in the
// source move list truncates the position sequence at that ply; an
// AssemblyError drops the candidate. Neither fails the run. The context
// is checked at every per-position boundary; cancellation never leaves
// a partial record behind.
func (p *Pipeline) Run(ctx context.Context, g gamesource.Game, userID string) ([]puzzle.Puzzle, error) {
	snaps, err := board.Replay("", g.Moves)
	if err != nil {
		var re *board.ReplayError
		if !errors.As(err, &re) {
			return nil, err
		}
		p.log.Warn().Str("game", g.ID).Int("ply", re.Ply).Str("san", re.SAN).
			Msg("illegal move in source game, truncating")
	}
	if len(snaps) <= 1 {
		return nil, nil
	}

	assessments, err := p.scoreAll(ctx, snaps)
	if err != nil {
		return nil, err
	}

	candidates := Select(snaps, assessments, p.cfg.MaxPuzzles)

	var opening string
	if p.cfg.ECO != nil {
		if o := p.cfg.ECO.LookupLine(g.Moves); o != nil {
			opening = o.Name
		}
	}

	out := make([]puzzle.Puzzle, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		pz, err := p.assembler.Assemble(c, snaps)
		if err != nil {
			p.log.Debug().Err(err).Str("game", g.ID).Int("ply", c.Snapshot.Ply).
				Msg("candidate dropped")
			continue
		}

		key, keyErr := store.PositionKey(pz.StartFEN)
		if keyErr == nil && p.store.HasPosition(key) {
			p.log.Debug().Str("game", g.ID).Int("ply", c.Snapshot.Ply).
				Msg("duplicate position, skipping")
			continue
		}

		pz.UserID = userID
		pz.Opening = opening
		pz.Context.GameID = g.ID
		pz.Context.White = g.White
		pz.Context.Black = g.Black
		pz.Context.Result = g.Result
		pz.Context.Platform = g.Platform

		if keyErr == nil {
			pz = p.store.CreateIndexed(pz, key)
		} else {
			pz = p.store.Create(pz)
		}
		out = append(out, pz)
	}

	p.log.Info().Str("game", g.ID).Int("positions", len(snaps)-1).
		Int("candidates", len(candidates)).Int("puzzles", len(out)).
		Msg("game processed")
	return out, nil
}

// scoreAll scores every snapshot in parallel. Results rejoin into a
// slice indexed by ply so downstream ordering never depends on worker
// completion order.
func (p *Pipeline) scoreAll(ctx context.Context, snaps []board.Snapshot) ([]*scorer.Assessment, error) {
	assessments := make([]*scorer.Assessment, len(snaps))

	idxChan := make(chan int, len(snaps))
	errChan := make(chan error, p.cfg.Workers)

	var wg sync.WaitGroup
	for w := 0; w < p.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idxChan {
				if ctx.Err() != nil {
					return
				}
				a, err := p.scorer.Score(snaps[i])
				if err != nil {
					select {
					case errChan <- err:
					default:
					}
					return
				}
				assessments[i] = a
			}
		}()
	}

	// Ply 0 has no producing move and is never a puzzle source.
	for i := 1; i < len(snaps); i++ {
		idxChan <- i
	}
	close(idxChan)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case err := <-errChan:
		return nil, err
	default:
	}
	return assessments, nil
}
