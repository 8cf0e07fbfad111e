package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/chesskit/tactician/internal/generate"
	"github.com/chesskit/tactician/internal/httpapi"
	"github.com/chesskit/tactician/internal/puzzle"
	"github.com/chesskit/tactician/internal/scorer"
	"github.com/chesskit/tactician/internal/store"
)

const blunderPGN = `[Event "test"]
[Site "https://example.org/g1"]
[White "anna"]
[Black "boris"]
[Result "0-1"]

1. e4 e5 2. Qh5 Nc6 3. Qxe5+ Nxe5 0-1
`

func newTestRouter() (http.Handler, *store.MemoryStore) {
	st := store.NewMemoryStore()
	sc := scorer.NewHeuristic(scorer.HeuristicConfig{QuietChance: 0, Seed: 1})
	pipe := generate.NewPipeline(generate.Config{Workers: 2, Seed: 1, Logger: zerolog.Nop()}, sc, st)
	return httpapi.NewRouter(zerolog.Nop(), st, pipe), st
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter()
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, h, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestGenerate(t *testing.T) {
	h, st := newTestRouter()

	body, err := json.Marshal(httpapi.GenerateRequest{UserID: "u1", PGN: blunderPGN})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var resp httpapi.GenerateResponse
	rec := doJSON(t, h, http.MethodPost, "/v1/generate", string(body), &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /v1/generate = %d: %s", rec.Code, rec.Body.String())
	}
	if resp.Games != 1 {
		t.Errorf("games = %d, want 1", resp.Games)
	}
	if len(resp.Puzzles) != 1 {
		t.Fatalf("got %d puzzles, want 1", len(resp.Puzzles))
	}
	p := resp.Puzzles[0]
	if p.ID == "" || p.StartFEN == "" || len(p.Solution) == 0 {
		t.Errorf("puzzle = %+v", p)
	}
	if p.Theme != puzzle.ThemeWinningCombination {
		t.Errorf("theme = %s, want winning_combination", p.Theme)
	}
	if st.Len() != 1 {
		t.Errorf("store holds %d puzzles", st.Len())
	}
}

func TestGenerate_BadRequests(t *testing.T) {
	h, _ := newTestRouter()

	if rec := doJSON(t, h, http.MethodGet, "/v1/generate", "", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /v1/generate = %d, want 405", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodPost, "/v1/generate", "{not json", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body = %d, want 400", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodPost, "/v1/generate", `{"user_id":"u1","pgn":""}`, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("empty pgn = %d, want 400", rec.Code)
	}
}

func TestListAndFilter(t *testing.T) {
	h, st := newTestRouter()
	st.Create(puzzle.Puzzle{UserID: "u1", StartFEN: "fen", Solution: []string{"e4"}, Theme: puzzle.ThemeMate, Difficulty: 5})
	st.Create(puzzle.Puzzle{UserID: "u1", StartFEN: "fen", Solution: []string{"e4"}, Theme: puzzle.ThemeTacticalAdvantage, Difficulty: 3})
	st.Create(puzzle.Puzzle{UserID: "u2", StartFEN: "fen", Solution: []string{"e4"}, Theme: puzzle.ThemeMate, Difficulty: 5})

	var all []httpapi.PuzzleResponse
	doJSON(t, h, http.MethodGet, "/v1/puzzles", "", &all)
	if len(all) != 3 {
		t.Errorf("unfiltered list = %d, want 3", len(all))
	}

	var mine []httpapi.PuzzleResponse
	doJSON(t, h, http.MethodGet, "/v1/puzzles?user=u1", "", &mine)
	if len(mine) != 2 {
		t.Errorf("user list = %d, want 2", len(mine))
	}

	var mates []httpapi.PuzzleResponse
	doJSON(t, h, http.MethodGet, "/v1/puzzles?user=u1&theme=mate", "", &mates)
	if len(mates) != 1 {
		t.Errorf("theme filter = %d, want 1", len(mates))
	}

	var hard []httpapi.PuzzleResponse
	doJSON(t, h, http.MethodGet, "/v1/puzzles?user=u1&difficulty=3", "", &hard)
	if len(hard) != 1 {
		t.Errorf("difficulty filter = %d, want 1", len(hard))
	}
}

func TestPuzzleLifecycle(t *testing.T) {
	h, st := newTestRouter()
	p := st.Create(puzzle.Puzzle{UserID: "u1", StartFEN: "fen", Solution: []string{"e4"}, Theme: puzzle.ThemeMate, Difficulty: 5})

	var got httpapi.PuzzleResponse
	if rec := doJSON(t, h, http.MethodGet, "/v1/puzzles/"+p.ID, "", &got); rec.Code != http.StatusOK {
		t.Fatalf("GET puzzle = %d", rec.Code)
	}
	if got.ID != p.ID {
		t.Errorf("got puzzle %q, want %q", got.ID, p.ID)
	}

	var updated httpapi.PuzzleResponse
	rec := doJSON(t, h, http.MethodPost, "/v1/puzzles/"+p.ID+"/progress", `{"solved":true,"stars":3,"attempts":1}`, &updated)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST progress = %d: %s", rec.Code, rec.Body.String())
	}
	if !updated.Progress.Solved || updated.Progress.Stars != 3 || updated.Progress.Attempts != 1 {
		t.Errorf("progress = %+v", updated.Progress)
	}

	var marked httpapi.PuzzleResponse
	doJSON(t, h, http.MethodPost, "/v1/puzzles/"+p.ID+"/bookmark", "", &marked)
	if !marked.Progress.Bookmarked {
		t.Error("bookmark not set")
	}

	if rec := doJSON(t, h, http.MethodDelete, "/v1/puzzles/"+p.ID, "", nil); rec.Code != http.StatusNoContent {
		t.Errorf("DELETE = %d, want 204", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodGet, "/v1/puzzles/"+p.ID, "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete = %d, want 404", rec.Code)
	}
}

func TestPuzzleByID_Errors(t *testing.T) {
	h, _ := newTestRouter()

	if rec := doJSON(t, h, http.MethodGet, "/v1/puzzles/unknown", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id = %d, want 404", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodPost, "/v1/puzzles/unknown/progress", `{}`, nil); rec.Code != http.StatusNotFound {
		t.Errorf("progress for unknown id = %d, want 404", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodPatch, "/v1/puzzles/some-id", "", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("PATCH = %d, want 405", rec.Code)
	}
}

func TestAccessLog_PuzzleRoutes(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	st := store.NewMemoryStore()
	sc := scorer.NewHeuristic(scorer.HeuristicConfig{})
	pipe := generate.NewPipeline(generate.Config{Workers: 1, Logger: zerolog.Nop()}, sc, st)
	h := httpapi.NewRouter(log, st, pipe)

	rec := doJSON(t, h, http.MethodGet, "/v1/puzzles/abc123", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET unknown puzzle = %d, want 404", rec.Code)
	}
	line := buf.String()
	if !strings.Contains(line, `"puzzle":"abc123"`) {
		t.Errorf("access log missing puzzle id: %s", line)
	}
	if !strings.Contains(line, `"status":404`) {
		t.Errorf("access log missing response status: %s", line)
	}
}

func TestStats(t *testing.T) {
	h, st := newTestRouter()
	st.Create(puzzle.Puzzle{UserID: "u1", StartFEN: "fen", Solution: []string{"e4"}, Theme: puzzle.ThemeMate, Difficulty: 5})

	var stats struct {
		Total   int                  `json:"total_puzzles"`
		Solved  int                  `json:"solved"`
		ByTheme map[puzzle.Theme]int `json:"by_theme"`
	}
	doJSON(t, h, http.MethodGet, "/v1/stats", "", &stats)
	if stats.Total != 1 || stats.ByTheme[puzzle.ThemeMate] != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRequestIDAndCORSHeaders(t *testing.T) {
	h, _ := newTestRouter()
	rec := doJSON(t, h, http.MethodGet, "/healthz", "", nil)
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id header")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "trace-me-1")
	echo := httptest.NewRecorder()
	h.ServeHTTP(echo, req)
	if got := echo.Header().Get("X-Request-Id"); got != "trace-me-1" {
		t.Errorf("client request id = %q, want trace-me-1", got)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}

	req = httptest.NewRequest(http.MethodOptions, "/v1/puzzles", nil)
	pre := httptest.NewRecorder()
	h.ServeHTTP(pre, req)
	if pre.Code != http.StatusNoContent {
		t.Errorf("preflight = %d, want 204", pre.Code)
	}
}
