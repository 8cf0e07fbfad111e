// Package gamesource adapts externally fetched PGN into the linear SAN
// move lists the generation pipeline consumes. Malformed games are
// skipped, never raised: a bad game degrades to zero puzzles.
package gamesource

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/notnil/chess"
)

// Game is one finished game from an external source.
type Game struct {
	ID       string   `json:"id"`
	White    string   `json:"white"`
	Black    string   `json:"black"`
	Result   string   `json:"result"`
	Platform string   `json:"platform,omitempty"`
	Moves    []string `json:"moves"`
}

// Open opens a PGN file for reading, transparently decompressing
// .pgn.zst files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(path) != ".zst" {
		return f, nil
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("gamesource: open %s: %w", path, err)
	}
	return &zstdReadCloser{dec: dec, f: f}, nil
}

type zstdReadCloser struct {
	dec *zstd.Decoder
	f   *os.File
}

func (z *zstdReadCloser) Read(p []byte) (int, error) { return z.dec.Read(p) }

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.f.Close()
}

// IsPGNFile reports whether name looks like a PGN file (.pgn or
// .pgn.zst).
func IsPGNFile(name string) bool {
	if filepath.Ext(name) == ".pgn" {
		return true
	}
	if filepath.Ext(name) == ".zst" {
		return filepath.Ext(strings.TrimSuffix(name, ".zst")) == ".pgn"
	}
	return false
}

// ReadGames scans every game in r. Games whose move text cannot be
// parsed are dropped; the error covers only the underlying reader.
func ReadGames(r io.Reader) ([]Game, error) {
	scanner := chess.NewScanner(r)
	var games []Game
	n := 0
	for scanner.Scan() {
		n++
		g := scanner.Next()
		if g == nil {
			continue
		}
		moves := g.Moves()
		positions := g.Positions()
		if len(moves) == 0 || len(positions) != len(moves)+1 {
			continue
		}
		sans := make([]string, len(moves))
		for i, mv := range moves {
			sans[i] = chess.AlgebraicNotation{}.Encode(positions[i], mv)
		}
		games = append(games, Game{
			ID:       firstTag(g, "GameId", "Site"),
			White:    firstTag(g, "White"),
			Black:    firstTag(g, "Black"),
			Result:   firstTag(g, "Result"),
			Platform: firstTag(g, "Event"),
			Moves:    sans,
		})
		if games[len(games)-1].ID == "" {
			games[len(games)-1].ID = fmt.Sprintf("game-%d", n)
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return games, err
	}
	return games, nil
}

func firstTag(g *chess.Game, keys ...string) string {
	for _, k := range keys {
		if tp := g.GetTagPair(k); tp != nil {
			return tp.Value
		}
	}
	return ""
}
