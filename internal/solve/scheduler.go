package solve

import "time"

// Named delays for the solving flow. The engine sequences everything
// through one scheduler so transition ordering is testable without
// wall-clock waits.
const (
	DelayShowMove      = "show-move"
	DelayOpponentReply = "opponent-reply"
	DelayShowRating    = "show-rating"
)

// Scheduler runs a named step after a delay.
type Scheduler interface {
	Schedule(name string, d time.Duration, fn func())
}

// Immediate runs every step inline with zero delay. The default for
// tests and non-animated shells.
type Immediate struct{}

func (Immediate) Schedule(_ string, _ time.Duration, fn func()) { fn() }

// Timed runs steps on real timers, for UI shells that animate the
// opponent's reply.
type Timed struct{}

func (Timed) Schedule(_ string, d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}
