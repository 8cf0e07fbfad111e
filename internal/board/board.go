// Package board replays chess games and validates moves. It produces one
// immutable Snapshot per ply; all other packages work in terms of
// Snapshots and SAN strings rather than library types.
package board

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// Snapshot is an immutable board state at a given ply. FEN is the full
// position encoding; MoveSAN is the move that produced the snapshot
// (empty at ply 0).
type Snapshot struct {
	FEN     string `json:"fen"`
	Ply     int    `json:"ply"`
	MoveSAN string `json:"move,omitempty"`
	Piece   string `json:"piece,omitempty"`
	Color   string `json:"color,omitempty"`
	Capture bool   `json:"capture,omitempty"`
	Check   bool   `json:"check,omitempty"`
}

// Move is a legal-move candidate in some position.
type Move struct {
	From          string
	To            string
	SAN           string
	Piece         string
	Promotion     string
	IsCapture     bool
	IsCheck       bool
	CapturedValue int
}

// Material values in pawn units. Kings carry no exchange value.
var pieceValues = map[chess.PieceType]int{
	chess.Pawn:   1,
	chess.Knight: 3,
	chess.Bishop: 3,
	chess.Rook:   5,
	chess.Queen:  9,
}

func pieceName(t chess.PieceType) string {
	switch t {
	case chess.Pawn:
		return "pawn"
	case chess.Knight:
		return "knight"
	case chess.Bishop:
		return "bishop"
	case chess.Rook:
		return "rook"
	case chess.Queen:
		return "queen"
	case chess.King:
		return "king"
	}
	return ""
}

func colorName(c chess.Color) string {
	if c == chess.White {
		return "white"
	}
	return "black"
}

// StartingFEN is the standard initial position.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func positionFromFEN(fen string) (*chess.Position, error) {
	if fen == "" {
		fen = StartingFEN
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("board: parse FEN %q: %w", fen, err)
	}
	return chess.NewGame(opt).Position(), nil
}

// SideToMove returns "white" or "black" for the given FEN.
func SideToMove(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) > 1 && fields[1] == "b" {
		return "black"
	}
	return "white"
}

// NormalizeSAN strips check and mate suffixes so that "Qxf7+" and
// "Qxf7" compare equal during solution matching.
func NormalizeSAN(san string) string {
	return strings.TrimRight(san, "+#")
}

// Replay applies sans in order from startFEN ("" = standard start) and
// returns one Snapshot per ply, with the starting position at index 0.
// On an illegal move it returns the snapshots produced so far together
// with a *ReplayError for that ply.
func Replay(startFEN string, sans []string) ([]Snapshot, error) {
	pos, err := positionFromFEN(startFEN)
	if err != nil {
		return nil, err
	}

	snaps := make([]Snapshot, 0, len(sans)+1)
	snaps = append(snaps, Snapshot{FEN: pos.String(), Ply: 0})

	for i, san := range sans {
		mover := pos.Turn()
		mv, err := chess.AlgebraicNotation{}.Decode(pos, san)
		if err != nil {
			return snaps, &ReplayError{Ply: i + 1, SAN: san, Err: err}
		}
		next := pos.Update(mv)
		if next == nil {
			return snaps, &ReplayError{Ply: i + 1, SAN: san, Err: fmt.Errorf("move not applicable")}
		}
		snaps = append(snaps, Snapshot{
			FEN:     next.String(),
			Ply:     i + 1,
			MoveSAN: chess.AlgebraicNotation{}.Encode(pos, mv),
			Piece:   pieceName(pos.Board().Piece(mv.S1()).Type()),
			Color:   colorName(mover),
			Capture: mv.HasTag(chess.Capture) || mv.HasTag(chess.EnPassant),
			Check:   mv.HasTag(chess.Check),
		})
		pos = next
	}
	return snaps, nil
}

// LegalMoves enumerates the legal moves in the given position.
func LegalMoves(fen string) ([]Move, error) {
	pos, err := positionFromFEN(fen)
	if err != nil {
		return nil, err
	}

	valid := pos.ValidMoves()
	moves := make([]Move, 0, len(valid))
	for _, mv := range valid {
		m := Move{
			From:    mv.S1().String(),
			To:      mv.S2().String(),
			SAN:     chess.AlgebraicNotation{}.Encode(pos, mv),
			Piece:   pieceName(pos.Board().Piece(mv.S1()).Type()),
			IsCheck: mv.HasTag(chess.Check),
		}
		if mv.Promo() != chess.NoPieceType {
			m.Promotion = promoLetter(mv.Promo())
		}
		if mv.HasTag(chess.EnPassant) {
			m.IsCapture = true
			m.CapturedValue = pieceValues[chess.Pawn]
		} else if mv.HasTag(chess.Capture) {
			m.IsCapture = true
			m.CapturedValue = pieceValues[pos.Board().Piece(mv.S2()).Type()]
		}
		moves = append(moves, m)
	}
	return moves, nil
}

func promoLetter(t chess.PieceType) string {
	switch t {
	case chess.Queen:
		return "q"
	case chess.Rook:
		return "r"
	case chess.Bishop:
		return "b"
	case chess.Knight:
		return "n"
	}
	return ""
}

// ApplyMove plays from-to (with optional promotion letter, defaulting to
// queen) on the snapshot's position and returns the resulting snapshot.
// Returns *IllegalMoveError when no legal move matches.
func ApplyMove(snap Snapshot, from, to, promo string) (Snapshot, error) {
	pos, err := positionFromFEN(snap.FEN)
	if err != nil {
		return Snapshot{}, err
	}
	promo = strings.ToLower(promo)

	var match *chess.Move
	for _, mv := range pos.ValidMoves() {
		if mv.S1().String() != from || mv.S2().String() != to {
			continue
		}
		if mv.Promo() != chess.NoPieceType {
			p := promoLetter(mv.Promo())
			if promo == "" {
				// Unspecified promotion resolves to the strongest piece.
				if p != "q" {
					continue
				}
			} else if p != promo {
				continue
			}
		} else if promo != "" {
			continue
		}
		match = mv
		break
	}
	if match == nil {
		return Snapshot{}, &IllegalMoveError{From: from, To: to, FEN: snap.FEN}
	}

	mover := pos.Turn()
	next := pos.Update(match)
	return Snapshot{
		FEN:     next.String(),
		Ply:     snap.Ply + 1,
		MoveSAN: chess.AlgebraicNotation{}.Encode(pos, match),
		Piece:   pieceName(pos.Board().Piece(match.S1()).Type()),
		Color:   colorName(mover),
		Capture: match.HasTag(chess.Capture) || match.HasTag(chess.EnPassant),
		Check:   match.HasTag(chess.Check),
	}, nil
}

// ApplySAN plays a move given in algebraic notation on the snapshot's
// position. Used for scripted solution replies, which are stored as SAN.
func ApplySAN(snap Snapshot, san string) (Snapshot, error) {
	pos, err := positionFromFEN(snap.FEN)
	if err != nil {
		return Snapshot{}, err
	}
	mover := pos.Turn()
	mv, err := chess.AlgebraicNotation{}.Decode(pos, san)
	if err != nil {
		return Snapshot{}, &ReplayError{Ply: snap.Ply + 1, SAN: san, Err: err}
	}
	next := pos.Update(mv)
	return Snapshot{
		FEN:     next.String(),
		Ply:     snap.Ply + 1,
		MoveSAN: chess.AlgebraicNotation{}.Encode(pos, mv),
		Piece:   pieceName(pos.Board().Piece(mv.S1()).Type()),
		Color:   colorName(mover),
		Capture: mv.HasTag(chess.Capture) || mv.HasTag(chess.EnPassant),
		Check:   mv.HasTag(chess.Check),
	}, nil
}
