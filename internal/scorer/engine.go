package scorer

import (
	"fmt"
	"sync"

	"github.com/freeeve/uci"
	"github.com/notnil/chess"

	"github.com/chesskit/tactician/internal/board"
)

// EngineConfig configures the UCI-backed scorer.
type EngineConfig struct {
	// Path to the UCI engine executable (e.g. Stockfish).
	Path string
	// Depth of the search per position. Defaults to 12.
	Depth int
	// HashMB is the engine hash size. Defaults to 128.
	HashMB int
}

// Engine scores positions with a UCI engine behind the same contract as
// the heuristic. Eval is reported in pawn units from the side to move;
// forced mates map to +/-10.
type Engine struct {
	mu    sync.Mutex
	eng   *uci.Engine
	depth int
}

// NewEngine starts the UCI engine process.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Depth == 0 {
		cfg.Depth = 12
	}
	if cfg.HashMB == 0 {
		cfg.HashMB = 128
	}
	eng, err := uci.NewEngine(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("scorer: start engine %q: %w", cfg.Path, err)
	}
	if err := eng.SetOptions(uci.Options{
		MultiPV: 1,
		Hash:    cfg.HashMB,
		Ponder:  false,
	}); err != nil {
		eng.Close()
		return nil, fmt.Errorf("scorer: engine options: %w", err)
	}
	return &Engine{eng: eng, depth: cfg.Depth}, nil
}

// Close stops the engine process.
func (s *Engine) Close() {
	s.eng.Close()
}

// Score implements Scorer. The engine process handles one search at a
// time, so calls are serialized.
func (s *Engine) Score(snap board.Snapshot) (*Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.eng.SetFEN(snap.FEN); err != nil {
		return nil, fmt.Errorf("scorer: set position: %w", err)
	}
	res, err := s.eng.GoDepth(s.depth)
	if err != nil {
		return nil, fmt.Errorf("scorer: search: %w", err)
	}
	if len(res.Results) == 0 || len(res.Results[0].BestMoves) == 0 {
		return nil, nil
	}
	r := res.Results[0]

	eval := float64(r.Score) / 100
	if r.Mate {
		eval = 10
		if r.Score < 0 {
			eval = -10
		}
	}

	line, err := sanLine(snap.FEN, r.BestMoves, 3)
	if err != nil || len(line) == 0 {
		return nil, err
	}

	a := &Assessment{
		Eval:     eval,
		BestMove: line[0],
		Strength: Weak,
	}
	if len(line) > 1 {
		a.Continuation = line[1:]
	}
	switch {
	case eval >= 5 || eval <= -5:
		a.Strength = Strong
	case eval >= 3 || eval <= -3:
		a.Strength = Medium
	}
	return a, nil
}

// sanLine converts a UCI best-move line to SAN, stopping at the first
// move that no longer applies.
func sanLine(fen string, ucis []string, max int) ([]string, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("scorer: parse FEN: %w", err)
	}
	pos := chess.NewGame(opt).Position()

	line := make([]string, 0, max)
	for _, u := range ucis {
		if len(line) == max {
			break
		}
		mv, err := chess.UCINotation{}.Decode(pos, u)
		if err != nil {
			break
		}
		line = append(line, chess.AlgebraicNotation{}.Encode(pos, mv))
		next := pos.Update(mv)
		if next == nil {
			break
		}
		pos = next
	}
	return line, nil
}

var _ Scorer = (*Heuristic)(nil)
var _ Scorer = (*Engine)(nil)
