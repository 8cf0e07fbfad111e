package scorer

import (
	"math/rand"

	"github.com/chesskit/tactician/internal/board"
)

// HeuristicConfig configures the capture/check heuristic.
type HeuristicConfig struct {
	// QuietChance is the probability that a quiet position (no capture,
	// no check) still gets a low-value assessment. Keeps puzzle density
	// from starving on quiet games. 0 disables.
	QuietChance float64
	// Seed fixes the quiet-position selection. The RNG is re-derived per
	// ply so results do not depend on scoring order.
	Seed int64
}

// Heuristic is the default Scorer: captures valued at half the captured
// piece's material value, then checks, then the quiet-position knob.
// Not a search; see the engine-backed Scorer for real evaluation.
type Heuristic struct {
	cfg HeuristicConfig
}

// NewHeuristic creates a heuristic scorer.
func NewHeuristic(cfg HeuristicConfig) *Heuristic {
	return &Heuristic{cfg: cfg}
}

func (h *Heuristic) rng(ply int) *rand.Rand {
	return rand.New(rand.NewSource(h.cfg.Seed ^ int64(ply)*0x9e3779b9))
}

// Score implements Scorer.
func (h *Heuristic) Score(snap board.Snapshot) (*Assessment, error) {
	moves, err := board.LegalMoves(snap.FEN)
	if err != nil {
		return nil, err
	}
	if len(moves) == 0 {
		return nil, nil
	}

	var best *board.Move
	for i := range moves {
		m := &moves[i]
		if !m.IsCapture {
			continue
		}
		if best == nil || m.CapturedValue > best.CapturedValue {
			best = m
		}
	}
	if best != nil {
		return &Assessment{
			Eval:         0.5 * float64(best.CapturedValue),
			BestMove:     best.SAN,
			Continuation: h.continuation(snap, best),
			Strength:     strengthFor(best.CapturedValue),
		}, nil
	}

	for i := range moves {
		if moves[i].IsCheck {
			return &Assessment{
				Eval:     0.5,
				BestMove: moves[i].SAN,
				Strength: Weak,
			}, nil
		}
	}

	if h.cfg.QuietChance > 0 {
		rng := h.rng(snap.Ply)
		if rng.Float64() < h.cfg.QuietChance {
			return &Assessment{
				Eval:     0.5,
				BestMove: moves[rng.Intn(len(moves))].SAN,
				Strength: Weak,
			}, nil
		}
	}
	return nil, nil
}

// continuation builds a two-ply PV stub: the opponent's best recapture
// (or first legal reply) followed by our best capture or check. Returns
// nil unless both plies exist, so solution lines always end on the
// solver's side.
func (h *Heuristic) continuation(snap board.Snapshot, best *board.Move) []string {
	after, err := board.ApplyMove(snap, best.From, best.To, best.Promotion)
	if err != nil {
		return nil
	}
	replies, err := board.LegalMoves(after.FEN)
	if err != nil || len(replies) == 0 {
		return nil
	}
	reply := &replies[0]
	for i := range replies {
		if replies[i].IsCapture && (!reply.IsCapture || replies[i].CapturedValue > reply.CapturedValue) {
			reply = &replies[i]
		}
	}

	afterReply, err := board.ApplyMove(after, reply.From, reply.To, reply.Promotion)
	if err != nil {
		return nil
	}
	ours, err := board.LegalMoves(afterReply.FEN)
	if err != nil {
		return nil
	}
	var followup *board.Move
	for i := range ours {
		m := &ours[i]
		if !m.IsCapture && !m.IsCheck {
			continue
		}
		if followup == nil || m.CapturedValue > followup.CapturedValue {
			followup = m
		}
	}
	if followup == nil {
		return nil
	}
	return []string{reply.SAN, followup.SAN}
}
