// Package eco provides ECO (Encyclopedia of Chess Openings) lookup for
// labelling puzzles with the opening their source game came from.
package eco

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	pgn "github.com/freeeve/pgn/v3"
)

// Opening is an ECO opening classification.
type Opening struct {
	ECO  string `json:"eco"`
	Name string `json:"name"`
}

// Database holds openings indexed by packed position.
type Database struct {
	byPosition map[pgn.PackedPosition]Opening
}

// NewDatabase creates an empty database.
func NewDatabase() *Database {
	return &Database{byPosition: make(map[pgn.PackedPosition]Opening)}
}

// Count returns the number of loaded openings.
func (db *Database) Count() int { return len(db.byPosition) }

var moveNumberRe = regexp.MustCompile(`\d+\.+\s*`)

// LoadDir loads every .tsv file in dir. Files are eco\tname\tpgn rows.
func (db *Database) LoadDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.tsv"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("eco: no .tsv files in %s", dir)
	}
	for _, file := range files {
		if err := db.LoadFile(file); err != nil {
			return fmt.Errorf("eco: load %s: %w", file, err)
		}
	}
	return nil
}

// LoadFile loads one TSV file. Rows with unparsable move text are
// skipped.
func (db *Database) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if line == 1 && strings.HasPrefix(text, "eco\t") {
			continue
		}
		parts := strings.SplitN(text, "\t", 3)
		if len(parts) != 3 {
			continue
		}
		key, err := lineKey(sansOf(parts[2]))
		if err != nil {
			continue
		}
		db.byPosition[key] = Opening{ECO: parts[0], Name: parts[1]}
	}
	return scanner.Err()
}

// LookupLine walks a SAN move list from the starting position and
// returns the deepest opening matched along the way, or nil.
func (db *Database) LookupLine(sans []string) *Opening {
	pos := pgn.NewStartingPosition()
	var found *Opening
	for _, san := range sans {
		mv, err := pgn.ParseSAN(pos, san)
		if err != nil {
			break
		}
		if err := pgn.ApplyMove(pos, mv); err != nil {
			break
		}
		if o, ok := db.byPosition[pos.Pack()]; ok {
			found = &o
		}
	}
	return found
}

func sansOf(moveText string) []string {
	return strings.Fields(moveNumberRe.ReplaceAllString(moveText, ""))
}

func lineKey(sans []string) (pgn.PackedPosition, error) {
	pos := pgn.NewStartingPosition()
	for _, san := range sans {
		mv, err := pgn.ParseSAN(pos, san)
		if err != nil {
			return pgn.PackedPosition{}, err
		}
		if err := pgn.ApplyMove(pos, mv); err != nil {
			return pgn.PackedPosition{}, err
		}
	}
	return pos.Pack(), nil
}
