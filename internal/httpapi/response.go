package httpapi

import (
	"time"

	"github.com/chesskit/tactician/internal/puzzle"
)

// GenerateRequest is the body of POST /v1/generate.
type GenerateRequest struct {
	UserID string `json:"user_id"`
	PGN    string `json:"pgn"`
}

// GenerateResponse reports one generation run.
type GenerateResponse struct {
	Games   int              `json:"games"`
	Puzzles []PuzzleResponse `json:"puzzles"`
}

// PuzzleResponse is the JSON-friendly view of a stored puzzle.
type PuzzleResponse struct {
	ID          string             `json:"id"`
	StartFEN    string             `json:"start_fen"`
	Solution    []string           `json:"solution"`
	Theme       puzzle.Theme       `json:"theme"`
	Difficulty  int                `json:"difficulty"`
	Explanation string             `json:"explanation,omitempty"`
	Opening     string             `json:"opening,omitempty"`
	Context     puzzle.GameContext `json:"context"`
	Progress    puzzle.Progress    `json:"progress"`
	CreatedAt   time.Time          `json:"created_at"`
}

func toPuzzleResponse(p puzzle.Puzzle) PuzzleResponse {
	return PuzzleResponse{
		ID:          p.ID,
		StartFEN:    p.StartFEN,
		Solution:    p.Solution,
		Theme:       p.Theme,
		Difficulty:  p.Difficulty,
		Explanation: p.Explanation,
		Opening:     p.Opening,
		Context:     p.Context,
		Progress:    p.Progress,
		CreatedAt:   p.CreatedAt,
	}
}

func toPuzzleResponses(puzzles []puzzle.Puzzle) []PuzzleResponse {
	out := make([]PuzzleResponse, 0, len(puzzles))
	for _, p := range puzzles {
		out = append(out, toPuzzleResponse(p))
	}
	return out
}
