// Package generate turns a replayed game into stored puzzles: it scores
// positions, selects and classifies the tactical ones, and assembles
// each selection into a validated puzzle record.
package generate

import (
	"math"
	"sort"

	"github.com/chesskit/tactician/internal/board"
	"github.com/chesskit/tactician/internal/puzzle"
	"github.com/chesskit/tactician/internal/scorer"
)

// openingPlies is how many initial plies are skipped unconditionally.
const openingPlies = 3

// Candidate pairs a scored snapshot with its classification. LearningValue
// is the ranking key used to cap and order the output set.
type Candidate struct {
	Snapshot      board.Snapshot
	Assessment    scorer.Assessment
	Theme         puzzle.Theme
	Difficulty    int
	LearningValue float64
}

// Classify maps an evaluation to a theme and difficulty tier. Mate-range
// evaluations are always tier 5.
func Classify(eval float64) (puzzle.Theme, int) {
	switch a := math.Abs(eval); {
	case a >= 5.0:
		return puzzle.ThemeMate, 5
	case a >= 3.0:
		return puzzle.ThemeWinningCombination, 4
	case a >= 2.0:
		return puzzle.ThemeTacticalAdvantage, 3
	case a >= 1.0:
		return puzzle.ThemePositionalAdvantage, 2
	default:
		return puzzle.ThemeTacticalOpportunity, 1
	}
}

// Select filters and orders scored positions into puzzle candidates.
// assessments[i] belongs to snaps[i]; nil entries mean no tactic.
// Opening plies and low-information positions are discarded, the rest
// are ordered by descending |eval| (ties by ply), capped to at most one
// tier-2 candidate, and truncated to maxCount.
func Select(snaps []board.Snapshot, assessments []*scorer.Assessment, maxCount int) []Candidate {
	candidates := make([]Candidate, 0, len(snaps))
	for i := range snaps {
		if i >= len(assessments) || assessments[i] == nil {
			continue
		}
		if snaps[i].Ply <= openingPlies {
			continue
		}
		a := assessments[i]
		theme, tier := Classify(a.Eval)
		candidates = append(candidates, Candidate{
			Snapshot:      snaps[i],
			Assessment:    *a,
			Theme:         theme,
			Difficulty:    tier,
			LearningValue: math.Abs(a.Eval),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].LearningValue != candidates[j].LearningValue {
			return candidates[i].LearningValue > candidates[j].LearningValue
		}
		return candidates[i].Snapshot.Ply < candidates[j].Snapshot.Ply
	})

	out := make([]Candidate, 0, len(candidates))
	tier2Seen := false
	for _, c := range candidates {
		switch {
		case c.Difficulty > 2:
			out = append(out, c)
		case c.Difficulty == 2 && !tier2Seen:
			out = append(out, c)
			tier2Seen = true
		}
	}

	if maxCount > 0 && len(out) > maxCount {
		out = out[:maxCount]
	}
	return out
}
