package generate

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/chesskit/tactician/internal/board"
)

// explainer generates the human-readable clue text on each puzzle.
// Template variants are picked with a seed-derived RNG keyed by ply, so
// output is deterministic for a fixed seed regardless of assembly order.
type explainer struct {
	seed int64
}

func newExplainer(seed int64) *explainer {
	return &explainer{seed: seed}
}

func phase(ply int) string {
	switch {
	case ply < 10:
		return "opening"
	case ply < 30:
		return "middlegame"
	default:
		return "endgame"
	}
}

var captureTemplates = []string{
	"%s to move. A %s move in the %s wins material here.",
	"In this %[3]s position, %[1]s has a %[2]s capture that pays off immediately.",
	"Find the %[2]s capture that gives %[1]s the upper hand in the %[3]s.",
}

var quietTemplates = []string{
	"%s to move. Look for the strongest %s move in this %s position.",
	"A precise %[2]s move keeps %[1]s on top in the %[3]s.",
	"Find the %[2]s move that presses %[1]s's advantage in the %[3]s.",
}

// explain builds the clue for one candidate, keyed by the mover's
// color, the recommended move's piece and capture flag, and the game
// phase. The piece is resolved by matching the recommended move against
// the legal moves of the scored position.
func (e *explainer) explain(c Candidate) string {
	side := board.SideToMove(c.Snapshot.FEN)
	piece := "piece"
	capture := false
	want := board.NormalizeSAN(c.Assessment.BestMove)
	if moves, err := board.LegalMoves(c.Snapshot.FEN); err == nil {
		for i := range moves {
			if board.NormalizeSAN(moves[i].SAN) == want {
				piece = moves[i].Piece
				capture = moves[i].IsCapture
				break
			}
		}
	}

	rng := rand.New(rand.NewSource(e.seed ^ int64(c.Snapshot.Ply)*0x51d3))
	templates := quietTemplates
	if capture {
		templates = captureTemplates
	}
	text := fmt.Sprintf(templates[rng.Intn(len(templates))], titleCase(side), piece, phase(c.Snapshot.Ply))
	return text
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
