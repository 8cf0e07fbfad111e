// Package solve is the client-resident puzzle solving engine: a
// deterministic state machine that validates move attempts against a
// puzzle's solution line, drives scripted opponent replies, and grades
// the completed session.
package solve

import (
	"fmt"
	"sync"
	"time"

	"github.com/chesskit/tactician/internal/board"
	"github.com/chesskit/tactician/internal/puzzle"
)

// State is the engine's position in the solving flow.
type State string

const (
	StateAwaitingMove     State = "awaiting_move"
	StateOpponentReplying State = "opponent_replying"
	StateCompleted        State = "completed"
)

// Outcome classifies one move attempt.
type Outcome string

const (
	OutcomeCorrect Outcome = "correct"
	OutcomeIllegal Outcome = "illegal"
	OutcomeWrong   Outcome = "wrong"
)

// Recovery is the user's choice after a wrong move.
type Recovery string

const (
	// RecoveryRestart replays the puzzle from its starting position.
	RecoveryRestart Recovery = "restart"
	// RecoveryContinue discards the wrong move and resumes at the last
	// confirmed ply.
	RecoveryContinue Recovery = "continue"
)

// AttemptResult reports the effect of one move attempt. Board is the
// reconstructed position encoding after the attempt settled.
type AttemptResult struct {
	Accepted bool    `json:"accepted"`
	Outcome  Outcome `json:"outcome"`
	State    State   `json:"state"`
	Reason   string  `json:"reason,omitempty"`
	Expected string  `json:"expected,omitempty"`
	Reply    string  `json:"reply,omitempty"`
	Ply      int     `json:"ply"`
	Board    string  `json:"board"`
}

// Attempt is one entry in the session's move history.
type Attempt struct {
	From    string  `json:"from"`
	To      string  `json:"to"`
	SAN     string  `json:"san,omitempty"`
	Outcome Outcome `json:"outcome"`
}

// Config configures an Engine.
type Config struct {
	// Scheduler sequences the scripted opponent reply and the rating
	// step. Defaults to Immediate.
	Scheduler Scheduler
	// ReplyDelay is the named opponent-reply delay passed to the
	// scheduler. Zero is fine with Immediate.
	ReplyDelay time.Duration
	// OnEvent, when set, observes scheduled steps (reply played, rating
	// ready) for rendering.
	OnEvent func(Event)
}

// Event is a scheduled step the UI shell may render.
type Event struct {
	Name  string `json:"name"`
	SAN   string `json:"san,omitempty"`
	Stars int    `json:"stars,omitempty"`
}

// Engine runs one solving session for one puzzle. Single-threaded per
// session; the lock only guards against a Timed scheduler firing the
// scripted reply concurrently with a user call.
type Engine struct {
	mu  sync.Mutex
	pz  puzzle.Puzzle
	cfg Config

	state    State
	ply      int // confirmed solution prefix length
	history  []Attempt
	failed   int
	hint     bool
	revealed bool
	review   int
}

// NewEngine starts a fresh session for p. Any prior session state is
// the caller's to discard; engines are never shared across puzzles.
func NewEngine(p puzzle.Puzzle, cfg Config) (*Engine, error) {
	if len(p.Solution) == 0 {
		return nil, fmt.Errorf("solve: puzzle %s has no solution line", p.ID)
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = Immediate{}
	}
	// Defect signal, not a user error: an emitted puzzle must replay.
	if _, err := board.Replay(p.StartFEN, p.Solution); err != nil {
		return nil, fmt.Errorf("solve: puzzle %s failed solution replay: %w", p.ID, err)
	}
	return &Engine{pz: p.Clone(), cfg: cfg, state: StateAwaitingMove}, nil
}

// reconstruct replays the starting position plus the confirmed solution
// prefix. Never caches a board across calls, so navigation stays
// idempotent.
func (e *Engine) reconstruct(plies int) board.Snapshot {
	snaps, err := board.Replay(e.pz.StartFEN, e.pz.Solution[:plies])
	if err != nil {
		// Replay of a validated prefix cannot fail; treat as defect.
		panic(fmt.Sprintf("solve: confirmed prefix failed replay: %v", err))
	}
	return snaps[len(snaps)-1]
}

// Board returns the current reconstructed position encoding.
func (e *Engine) Board() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reconstruct(e.ply).FEN
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Ply returns the confirmed solution prefix length.
func (e *Engine) Ply() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ply
}

// FailedAttempts returns the failed-attempt counter. It persists across
// wrong-move recoveries within the session.
func (e *Engine) FailedAttempts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failed
}

// History returns the session's attempt history.
func (e *Engine) History() []Attempt {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Attempt(nil), e.history...)
}

// AttemptMove validates a user's move against the reconstructed board
// and the expected solution move at the current ply.
func (e *Engine) AttemptMove(from, to, promo string) (AttemptResult, error) {
	e.mu.Lock()

	if e.state != StateAwaitingMove {
		e.mu.Unlock()
		return AttemptResult{}, fmt.Errorf("solve: not awaiting a move (state %s)", e.state)
	}

	cur := e.reconstruct(e.ply)
	expected := e.pz.Solution[e.ply]

	next, err := board.ApplyMove(cur, from, to, promo)
	if err != nil {
		e.failed++
		e.history = append(e.history, Attempt{From: from, To: to, Outcome: OutcomeIllegal})
		res := AttemptResult{
			Outcome:  OutcomeIllegal,
			State:    e.state,
			Reason:   fmt.Sprintf("%s-%s is not a legal move", from, to),
			Expected: expected,
			Ply:      e.ply,
			Board:    cur.FEN,
		}
		e.mu.Unlock()
		return res, nil
	}

	if board.NormalizeSAN(next.MoveSAN) != board.NormalizeSAN(expected) {
		e.failed++
		e.history = append(e.history, Attempt{From: from, To: to, SAN: next.MoveSAN, Outcome: OutcomeWrong})
		res := AttemptResult{
			Outcome: OutcomeWrong,
			State:   e.state,
			Reason:  fmt.Sprintf("%s is legal but not the solution move", next.MoveSAN),
			Ply:     e.ply,
			Board:   cur.FEN,
		}
		e.mu.Unlock()
		return res, nil
	}

	e.ply++
	e.history = append(e.history, Attempt{From: from, To: to, SAN: next.MoveSAN, Outcome: OutcomeCorrect})

	confirmed := next.MoveSAN
	e.cfg.Scheduler.Schedule(DelayShowMove, 0, func() {
		e.notify(Event{Name: DelayShowMove, SAN: confirmed})
	})

	if e.ply == len(e.pz.Solution) {
		e.complete()
		res := AttemptResult{
			Accepted: true,
			Outcome:  OutcomeCorrect,
			State:    e.state,
			Ply:      e.ply,
			Board:    next.FEN,
		}
		e.mu.Unlock()
		return res, nil
	}

	e.state = StateOpponentReplying
	reply := e.pz.Solution[e.ply]
	e.mu.Unlock()

	// Scheduled outside the lock: with the Immediate scheduler the
	// scripted reply settles before we read back the result state.
	e.cfg.Scheduler.Schedule(DelayOpponentReply, e.cfg.ReplyDelay, e.playScriptedReply)

	e.mu.Lock()
	res := AttemptResult{
		Accepted: true,
		Outcome:  OutcomeCorrect,
		State:    e.state,
		Reply:    reply,
		Ply:      e.ply,
		Board:    e.reconstruct(e.ply).FEN,
	}
	e.mu.Unlock()
	return res, nil
}

// playScriptedReply auto-applies the next solution move as the
// opponent's answer. Runs under the scheduler; with Immediate it
// completes before AttemptMove returns to the caller.
func (e *Engine) playScriptedReply() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateOpponentReplying {
		return
	}
	reply := e.pz.Solution[e.ply]
	e.ply++
	e.notify(Event{Name: DelayOpponentReply, SAN: reply})
	if e.ply == len(e.pz.Solution) {
		e.complete()
		return
	}
	e.state = StateAwaitingMove
}

func (e *Engine) complete() {
	e.state = StateCompleted
	e.review = e.ply
	stars := e.grade()
	e.cfg.Scheduler.Schedule(DelayShowRating, 0, func() {
		e.notify(Event{Name: DelayShowRating, Stars: stars})
	})
}

func (e *Engine) notify(ev Event) {
	if e.cfg.OnEvent != nil {
		e.cfg.OnEvent(ev)
	}
}

// Recover resolves a wrong move: restart from the puzzle's starting
// position, or continue from the last confirmed ply with the wrong move
// silently discarded. The failed-attempt counter is kept either way.
func (e *Engine) Recover(r Recovery) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateCompleted {
		return "", fmt.Errorf("solve: session already completed")
	}
	if r == RecoveryRestart {
		e.ply = 0
	}
	e.state = StateAwaitingMove
	return e.reconstruct(e.ply).FEN, nil
}

// RequestHint reveals the origin square of the next expected move. Sets
// the hint flag (affects grading) but changes nothing else. Only valid
// while a move is awaited; during a scripted reply the next solution
// move is the opponent's, not the solver's.
func (e *Engine) RequestHint() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateAwaitingMove {
		return "", fmt.Errorf("solve: no move awaited (state %s)", e.state)
	}
	cur := e.reconstruct(e.ply)
	expected := board.NormalizeSAN(e.pz.Solution[e.ply])
	moves, err := board.LegalMoves(cur.FEN)
	if err != nil {
		return "", err
	}
	for i := range moves {
		if board.NormalizeSAN(moves[i].SAN) == expected {
			e.hint = true
			return moves[i].From, nil
		}
	}
	return "", fmt.Errorf("solve: expected move %q not found in position", expected)
}

// RevealSolution marks the solution as revealed and returns the full
// line. Forces a zero-star grade regardless of anything else.
func (e *Engine) RevealSolution() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.revealed = true
	return append([]string(nil), e.pz.Solution...)
}

// Reset discards all session state, as when a new puzzle attempt
// begins.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StateAwaitingMove
	e.ply = 0
	e.history = nil
	e.failed = 0
	e.hint = false
	e.revealed = false
	e.review = 0
}

// Grade returns the session's star rating. Solution reveal dominates
// every other condition.
func (e *Engine) Grade() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.grade()
}

func (e *Engine) grade() int {
	switch {
	case e.revealed:
		return 0
	case e.failed == 0 && !e.hint:
		return 3
	case e.failed == 1 && !e.hint:
		return 2
	case e.hint || e.failed >= 3:
		return 1
	default:
		return 2
	}
}

// Completed reports whether the solution line has been fully played.
func (e *Engine) Completed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StateCompleted
}

// NavigateReview moves the review index by delta and returns the board
// at that point in the solution. Review never touches the state used
// for grading.
func (e *Engine) NavigateReview(delta int) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.review += delta
	if e.review < 0 {
		e.review = 0
	}
	if e.review > len(e.pz.Solution) {
		e.review = len(e.pz.Solution)
	}
	return e.reconstruct(e.review).FEN
}
