// Package httpapi exposes puzzle generation and the puzzle store over
// HTTP. The solving engine itself is client-resident; this API only
// serves records and progress.
package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/chesskit/tactician/internal/gamesource"
	"github.com/chesskit/tactician/internal/generate"
	"github.com/chesskit/tactician/internal/puzzle"
	"github.com/chesskit/tactician/internal/store"
)

// Handler serves the puzzle API.
type Handler struct {
	st   *store.MemoryStore
	pipe *generate.Pipeline
	log  zerolog.Logger
}

// NewRouter wires the puzzle endpoints.
func NewRouter(log zerolog.Logger, st *store.MemoryStore, pipe *generate.Pipeline) http.Handler {
	h := &Handler{st: st, pipe: pipe, log: log}

	mux := http.NewServeMux()
	mux.Handle("/healthz", http.HandlerFunc(h.health))
	mux.Handle("/readyz", http.HandlerFunc(h.health))
	mux.Handle("/v1/generate", http.HandlerFunc(h.generate))
	mux.Handle("/v1/puzzles", http.HandlerFunc(h.listPuzzles))
	mux.Handle("/v1/puzzles/", http.HandlerFunc(h.puzzleByID))
	mux.Handle("/v1/stats", http.HandlerFunc(h.stats))

	// pprof endpoints
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return CORS(RequestID(AccessLog(log, mux)))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	byTheme := map[puzzle.Theme]int{}
	solved := 0
	all := h.st.ListAll()
	for _, p := range all {
		byTheme[p.Theme]++
		if p.Progress.Solved {
			solved++
		}
	}
	writeJSON(w, map[string]any{
		"total_puzzles": len(all),
		"solved":        solved,
		"by_theme":      byTheme,
	})
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.PGN) == "" {
		http.Error(w, "missing pgn", http.StatusBadRequest)
		return
	}

	games, err := gamesource.ReadGames(strings.NewReader(req.PGN))
	if err != nil {
		http.Error(w, "unreadable pgn: "+err.Error(), http.StatusBadRequest)
		return
	}

	var out []puzzle.Puzzle
	for _, g := range games {
		puzzles, err := h.pipe.Run(r.Context(), g, req.UserID)
		if err != nil {
			h.log.Warn().Err(err).Str("game", g.ID).Msg("generation aborted")
			break
		}
		out = append(out, puzzles...)
	}
	writeJSON(w, GenerateResponse{Games: len(games), Puzzles: toPuzzleResponses(out)})
}

func (h *Handler) listPuzzles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.Filters{Theme: puzzle.Theme(q.Get("theme"))}
	if d := q.Get("difficulty"); d != "" {
		f.Difficulty, _ = strconv.Atoi(d)
	}
	if v := q.Get("solved"); v != "" {
		b := v == "true"
		f.Solved = &b
	}
	if v := q.Get("bookmarked"); v != "" {
		b := v == "true"
		f.Bookmarked = &b
	}

	var puzzles []puzzle.Puzzle
	if user := q.Get("user"); user != "" {
		puzzles = h.st.ListForUser(user, f)
	} else {
		puzzles = h.st.ListAll()
	}
	writeJSON(w, toPuzzleResponses(puzzles))
}

// puzzleByID handles /v1/puzzles/{id}[/progress|/bookmark].
func (h *Handler) puzzleByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/puzzles/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		http.Error(w, "missing puzzle id", http.StatusBadRequest)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		p, ok := h.st.GetByID(id)
		if !ok {
			http.Error(w, "puzzle not found", http.StatusNotFound)
			return
		}
		writeJSON(w, toPuzzleResponse(p))

	case action == "" && r.Method == http.MethodDelete:
		if !h.st.Delete(id) {
			http.Error(w, "puzzle not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case action == "progress" && r.Method == http.MethodPost:
		var u store.ProgressUpdate
		if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
			http.Error(w, "invalid progress body: "+err.Error(), http.StatusBadRequest)
			return
		}
		p, ok := h.st.UpdateProgress(id, u)
		if !ok {
			http.Error(w, "puzzle not found", http.StatusNotFound)
			return
		}
		writeJSON(w, toPuzzleResponse(p))

	case action == "bookmark" && r.Method == http.MethodPost:
		p, ok := h.st.ToggleBookmark(id)
		if !ok {
			http.Error(w, "puzzle not found", http.StatusNotFound)
			return
		}
		writeJSON(w, toPuzzleResponse(p))

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
