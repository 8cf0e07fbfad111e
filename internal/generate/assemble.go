package generate

import (
	"fmt"

	"github.com/chesskit/tactician/internal/board"
	"github.com/chesskit/tactician/internal/puzzle"
)

// maxContinuation caps the follow-up line after the recommended move.
const maxContinuation = 2

// rewindPlies is how far the starting position is stepped back from the
// scored position. The bridging game moves are prepended to the
// solution so replay from the start stays legal.
const rewindPlies = 2

// AssemblyError reports a candidate whose puzzle could not be built.
// The candidate is dropped; generation continues.
type AssemblyError struct {
	Ply    int
	Reason string
	Err    error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assemble: ply %d: %s: %v", e.Ply, e.Reason, e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }

// Assembler packages selected candidates into puzzle records.
type Assembler struct {
	explainer *explainer
}

// NewAssembler creates an assembler whose explanation templates are
// chosen deterministically for the given seed.
func NewAssembler(seed int64) *Assembler {
	return &Assembler{explainer: newExplainer(seed)}
}

// Assemble builds the puzzle for one candidate. snaps is the full
// snapshot sequence of the source game (snaps[i] is the position after
// i plies). The solution list is replayed from the starting position
// before the record is emitted; failures return *AssemblyError.
func (a *Assembler) Assemble(c Candidate, snaps []board.Snapshot) (puzzle.Puzzle, error) {
	ply := c.Snapshot.Ply
	if ply >= len(snaps) || snaps[ply].FEN != c.Snapshot.FEN {
		return puzzle.Puzzle{}, &AssemblyError{Ply: ply, Reason: "scored snapshot not in sequence", Err: fmt.Errorf("ply out of range")}
	}

	rewind := rewindPlies
	if ply < rewind {
		rewind = ply
	}
	start := snaps[ply-rewind]

	solution := make([]string, 0, rewind+1+maxContinuation)
	for i := ply - rewind + 1; i <= ply; i++ {
		solution = append(solution, snaps[i].MoveSAN)
	}
	solution = append(solution, c.Assessment.BestMove)
	cont := c.Assessment.Continuation
	if len(cont) > maxContinuation {
		cont = cont[:maxContinuation]
	}
	solution = append(solution, cont...)

	// Legality gate: a puzzle whose solution does not replay is never
	// emitted.
	if _, err := board.Replay(start.FEN, solution); err != nil {
		return puzzle.Puzzle{}, &AssemblyError{Ply: ply, Reason: "solution failed replay", Err: err}
	}

	playedMove := ""
	if ply+1 < len(snaps) {
		playedMove = snaps[ply+1].MoveSAN
	}

	p := puzzle.Puzzle{
		StartFEN:   start.FEN,
		Solution:   solution,
		Theme:      c.Theme,
		Difficulty: c.Difficulty,
		Context: puzzle.GameContext{
			MoveNumber: ply/2 + 1,
			PlayedMove: playedMove,
			Color:      board.SideToMove(c.Snapshot.FEN),
		},
	}
	p.Explanation = a.explainer.explain(c)
	return p, nil
}
