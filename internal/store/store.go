// Package store holds generated puzzles in a volatile keyed collection.
// Mutations are atomic per record; readers never block on unrelated
// records. There is no durability contract; the snapshot export in
// this package is an operator tool, not persistence.
package store

import (
	"sort"
	"sync"
	"time"

	pgn "github.com/freeeve/pgn/v3"
	"github.com/google/uuid"

	"github.com/chesskit/tactician/internal/puzzle"
)

// Filters narrows ListForUser results. Zero values match everything;
// Solved and Bookmarked are tri-state.
type Filters struct {
	Theme      puzzle.Theme
	Difficulty int
	Solved     *bool
	Bookmarked *bool
}

// ProgressUpdate is a partial progress mutation. Nil fields are left
// untouched.
type ProgressUpdate struct {
	Solved   *bool
	Stars    *int
	Attempts *int
	HintUsed *bool
}

type record struct {
	mu sync.Mutex
	pz puzzle.Puzzle
}

// MemoryStore is the in-memory puzzle collection. The map is guarded by
// an RWMutex; each record carries its own lock so single-record
// mutations do not serialize against each other.
type MemoryStore struct {
	mu    sync.RWMutex
	recs  map[string]*record
	byPos map[pgn.PackedPosition]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		recs:  make(map[string]*record),
		byPos: make(map[pgn.PackedPosition]string),
	}
}

// Create inserts a puzzle, assigning an identifier and default progress.
// Returns the stored copy.
func (s *MemoryStore) Create(p puzzle.Puzzle) puzzle.Puzzle {
	return s.CreateIndexed(p, pgn.PackedPosition{})
}

// CreateIndexed inserts a puzzle and, when key is non-zero, indexes it
// by packed starting position for cross-game dedup.
func (s *MemoryStore) CreateIndexed(p puzzle.Puzzle, key pgn.PackedPosition) puzzle.Puzzle {
	p = p.Clone()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.Progress = puzzle.Progress{UpdatedAt: p.CreatedAt}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[p.ID] = &record{pz: p}
	if key != (pgn.PackedPosition{}) {
		s.byPos[key] = p.ID
	}
	return p.Clone()
}

// HasPosition reports whether a puzzle already exists for the packed
// starting position.
func (s *MemoryStore) HasPosition(key pgn.PackedPosition) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byPos[key]
	return ok
}

func (s *MemoryStore) get(id string) *record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recs[id]
}

// GetByID returns a copy of the puzzle, if present.
func (s *MemoryStore) GetByID(id string) (puzzle.Puzzle, bool) {
	r := s.get(id)
	if r == nil {
		return puzzle.Puzzle{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pz.Clone(), true
}

// ListForUser returns the user's puzzles matching f, ordered by
// creation time (ties by ID) for deterministic output.
func (s *MemoryStore) ListForUser(userID string, f Filters) []puzzle.Puzzle {
	return s.list(func(p *puzzle.Puzzle) bool {
		if p.UserID != userID {
			return false
		}
		if f.Theme != "" && p.Theme != f.Theme {
			return false
		}
		if f.Difficulty != 0 && p.Difficulty != f.Difficulty {
			return false
		}
		if f.Solved != nil && p.Progress.Solved != *f.Solved {
			return false
		}
		if f.Bookmarked != nil && p.Progress.Bookmarked != *f.Bookmarked {
			return false
		}
		return true
	})
}

// ListAll returns every puzzle in the store. Used for cross-puzzle
// "others" sampling.
func (s *MemoryStore) ListAll() []puzzle.Puzzle {
	return s.list(func(*puzzle.Puzzle) bool { return true })
}

func (s *MemoryStore) list(keep func(*puzzle.Puzzle) bool) []puzzle.Puzzle {
	s.mu.RLock()
	recs := make([]*record, 0, len(s.recs))
	for _, r := range s.recs {
		recs = append(recs, r)
	}
	s.mu.RUnlock()

	out := make([]puzzle.Puzzle, 0, len(recs))
	for _, r := range recs {
		r.mu.Lock()
		if keep(&r.pz) {
			out = append(out, r.pz.Clone())
		}
		r.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// UpdateProgress applies a partial progress update atomically and
// returns the updated puzzle.
func (s *MemoryStore) UpdateProgress(id string, u ProgressUpdate) (puzzle.Puzzle, bool) {
	r := s.get(id)
	if r == nil {
		return puzzle.Puzzle{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.Solved != nil {
		r.pz.Progress.Solved = *u.Solved
	}
	if u.Stars != nil {
		r.pz.Progress.Stars = *u.Stars
	}
	if u.Attempts != nil {
		r.pz.Progress.Attempts = *u.Attempts
	}
	if u.HintUsed != nil {
		r.pz.Progress.HintUsed = *u.HintUsed
	}
	r.pz.Progress.UpdatedAt = time.Now().UTC()
	return r.pz.Clone(), true
}

// ToggleBookmark flips the bookmark flag atomically.
func (s *MemoryStore) ToggleBookmark(id string) (puzzle.Puzzle, bool) {
	r := s.get(id)
	if r == nil {
		return puzzle.Puzzle{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pz.Progress.Bookmarked = !r.pz.Progress.Bookmarked
	r.pz.Progress.UpdatedAt = time.Now().UTC()
	return r.pz.Clone(), true
}

// Delete removes a puzzle. Reports whether it existed.
func (s *MemoryStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[id]; !ok {
		return false
	}
	delete(s.recs, id)
	for k, v := range s.byPos {
		if v == id {
			delete(s.byPos, k)
			break
		}
	}
	return true
}

// Len returns the number of stored puzzles.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recs)
}
