package gamesource_test

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/chesskit/tactician/internal/gamesource"
)

const samplePGN = `[Event "lichess blitz"]
[Site "https://lichess.org/abcd1234"]
[White "anna"]
[Black "boris"]
[Result "0-1"]

1. e4 e5 2. Qh5 Nc6 3. Qxe5+ Nxe5 0-1

[Event "casual"]
[White "carol"]
[Black "dmitri"]
[Result "1-0"]

1. d4 d5 2. c4 1-0
`

func TestReadGames(t *testing.T) {
	games, err := gamesource.ReadGames(strings.NewReader(samplePGN))
	if err != nil {
		t.Fatalf("ReadGames: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("got %d games, want 2", len(games))
	}

	g := games[0]
	if g.White != "anna" || g.Black != "boris" || g.Result != "0-1" {
		t.Errorf("tags = %+v", g)
	}
	if g.ID != "https://lichess.org/abcd1234" {
		t.Errorf("ID = %q, want the Site tag", g.ID)
	}
	if g.Platform != "lichess blitz" {
		t.Errorf("Platform = %q", g.Platform)
	}
	want := []string{"e4", "e5", "Qh5", "Nc6", "Qxe5+", "Nxe5"}
	if !reflect.DeepEqual(g.Moves, want) {
		t.Errorf("moves = %v, want %v", g.Moves, want)
	}

	if got := games[1].Moves; !reflect.DeepEqual(got, []string{"d4", "d5", "c4"}) {
		t.Errorf("second game moves = %v", got)
	}
}

func TestReadGames_FallbackID(t *testing.T) {
	pgn := `[White "x"]
[Black "y"]
[Result "*"]

1. e4 e5 *
`
	games, err := gamesource.ReadGames(strings.NewReader(pgn))
	if err != nil {
		t.Fatalf("ReadGames: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("got %d games, want 1", len(games))
	}
	if games[0].ID != "game-1" {
		t.Errorf("ID = %q, want game-1", games[0].ID)
	}
}

func TestReadGames_Empty(t *testing.T) {
	games, err := gamesource.ReadGames(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ReadGames: %v", err)
	}
	if len(games) != 0 {
		t.Errorf("got %d games from empty input", len(games))
	}
}

func TestIsPGNFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"games.pgn", true},
		{"games.pgn.zst", true},
		{"games.txt", false},
		{"games.zst", false},
		{"games", false},
	}
	for _, tt := range tests {
		if got := gamesource.IsPGNFile(tt.name); got != tt.want {
			t.Errorf("IsPGNFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestOpen_Plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.pgn")
	if err := os.WriteFile(path, []byte(samplePGN), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, err := gamesource.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	games, err := gamesource.ReadGames(r)
	if err != nil {
		t.Fatalf("ReadGames: %v", err)
	}
	if len(games) != 2 {
		t.Errorf("got %d games, want 2", len(games))
	}
}

func TestOpen_Compressed(t *testing.T) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	if _, err := enc.Write([]byte(samplePGN)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	path := filepath.Join(t.TempDir(), "games.pgn.zst")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	r, err := gamesource.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	games, err := gamesource.ReadGames(r)
	if err != nil {
		t.Fatalf("ReadGames: %v", err)
	}
	if len(games) != 2 {
		t.Errorf("got %d games, want 2", len(games))
	}
}
