// Package scorer evaluates positions for tactical significance. The
// heuristic backend ships by default; an engine-backed implementation
// sits behind the same interface and is selected by configuration.
package scorer

import "github.com/chesskit/tactician/internal/board"

// Strength is a qualitative tag derived from an evaluation's magnitude.
type Strength string

const (
	Weak   Strength = "weak"
	Medium Strength = "medium"
	Strong Strength = "strong"
)

// Assessment is the tactical verdict for one position snapshot. Eval is
// signed, positive favoring the side to move. Continuation is a short
// principal-variation stub following BestMove. Never mutated after
// creation.
type Assessment struct {
	Eval         float64  `json:"eval"`
	BestMove     string   `json:"best_move"`
	Continuation []string `json:"continuation,omitempty"`
	Strength     Strength `json:"strength"`
}

// Scorer scores one snapshot. A nil Assessment with nil error means the
// position holds no tactic worth a puzzle.
type Scorer interface {
	Score(snap board.Snapshot) (*Assessment, error)
}

func strengthFor(value int) Strength {
	switch {
	case value >= 5:
		return Strong
	case value >= 3:
		return Medium
	default:
		return Weak
	}
}
