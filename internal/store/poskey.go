package store

import (
	"fmt"

	pgn "github.com/freeeve/pgn/v3"
)

// PositionKey packs a position encoding into a compact comparable key.
// Move counters are dropped, so the same position reached in different
// games (or at different clocks) collides. Used to index puzzles so one
// position never yields two puzzles.
func PositionKey(fen string) (pgn.PackedPosition, error) {
	pf, err := pgn.PackFEN(fen)
	if err != nil {
		return pgn.PackedPosition{}, fmt.Errorf("position key: parse %q: %w", fen, err)
	}
	return pf.ToPackedPosition(), nil
}
