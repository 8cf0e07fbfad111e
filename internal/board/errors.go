package board

import "fmt"

// ReplayError reports an illegal move encountered while replaying a
// source move list. Snapshots produced before the failing ply are still
// returned alongside it, so callers can truncate instead of aborting.
type ReplayError struct {
	Ply int
	SAN string
	Err error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay: illegal move %q at ply %d: %v", e.SAN, e.Ply, e.Err)
}

func (e *ReplayError) Unwrap() error { return e.Err }

// IllegalMoveError reports a proposed move that is not legal in the
// position it was attempted in.
type IllegalMoveError struct {
	From string
	To   string
	FEN  string
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("illegal move %s-%s in %q", e.From, e.To, e.FEN)
}
