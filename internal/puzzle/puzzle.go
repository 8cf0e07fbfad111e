// Package puzzle defines the puzzle record shared by the generation
// pipeline, the store, and the solving engine.
package puzzle

import "time"

// Theme is a categorical label describing the tactical nature of a
// puzzle.
type Theme string

const (
	ThemeMate                Theme = "mate"
	ThemeWinningCombination  Theme = "winning_combination"
	ThemeTacticalAdvantage   Theme = "tactical_advantage"
	ThemePositionalAdvantage Theme = "positional_advantage"
	ThemeTacticalOpportunity Theme = "tactical_opportunity"
)

// Valid reports whether t is a known theme tag.
func (t Theme) Valid() bool {
	switch t {
	case ThemeMate, ThemeWinningCombination, ThemeTacticalAdvantage,
		ThemePositionalAdvantage, ThemeTacticalOpportunity:
		return true
	}
	return false
}

// GameContext records where in the source game a puzzle came from.
type GameContext struct {
	GameID     string `json:"game_id,omitempty"`
	White      string `json:"white,omitempty"`
	Black      string `json:"black,omitempty"`
	Result     string `json:"result,omitempty"`
	Platform   string `json:"platform,omitempty"`
	MoveNumber int    `json:"move_number"`
	PlayedMove string `json:"played_move,omitempty"`
	Color      string `json:"color"`
}

// Progress is the per-user solving state attached to a stored puzzle.
type Progress struct {
	Solved     bool      `json:"solved"`
	Stars      int       `json:"stars"`
	Attempts   int       `json:"attempts"`
	HintUsed   bool      `json:"hint_used"`
	Bookmarked bool      `json:"bookmarked"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Puzzle is the unit of work handed to a solver. Solution alternates
// sides starting with the side to move in StartFEN; every move in it is
// legal when played in order from StartFEN (the assembler verifies this
// by replay before a record is ever emitted).
type Puzzle struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id,omitempty"`
	StartFEN    string      `json:"start_fen"`
	Solution    []string    `json:"solution"`
	Theme       Theme       `json:"theme"`
	Difficulty  int         `json:"difficulty"`
	Explanation string      `json:"explanation,omitempty"`
	Opening     string      `json:"opening,omitempty"`
	Context     GameContext `json:"context"`
	Progress    Progress    `json:"progress"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Clone returns a copy that shares no mutable state with p.
func (p Puzzle) Clone() Puzzle {
	out := p
	out.Solution = append([]string(nil), p.Solution...)
	return out
}
