// Command solve is a terminal trainer: it loads a puzzle snapshot and
// runs the solving engine interactively.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chesskit/tactician/internal/logx"
	"github.com/chesskit/tactician/internal/solve"
	"github.com/chesskit/tactician/internal/store"
)

func main() {
	var (
		snapshotPath = flag.String("puzzles", "puzzles.json.zst", "puzzle snapshot to load")
		index        = flag.Int("index", 0, "puzzle index to solve")
	)
	flag.Parse()

	logger := logx.NewLogger()

	st := store.NewMemoryStore()
	f, err := os.Open(*snapshotPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open snapshot")
	}
	n, err := st.Import(f)
	f.Close()
	if err != nil {
		logger.Fatal().Err(err).Msg("load snapshot")
	}
	all := st.ListAll()
	if *index < 0 || *index >= len(all) {
		logger.Fatal().Int("puzzles", n).Int("index", *index).Msg("index out of range")
	}
	pz := all[*index]

	eng, err := solve.NewEngine(pz, solve.Config{
		OnEvent: func(ev solve.Event) {
			switch ev.Name {
			case solve.DelayOpponentReply:
				fmt.Printf("opponent plays %s\n", ev.SAN)
			case solve.DelayShowRating:
				fmt.Printf("completed! rating: %d star(s)\n", ev.Stars)
			}
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("load puzzle")
	}

	fmt.Printf("puzzle %s  theme=%s  difficulty=%d\n", pz.ID, pz.Theme, pz.Difficulty)
	if pz.Explanation != "" {
		fmt.Println(pz.Explanation)
	}
	fmt.Println(eng.Board())
	fmt.Println(`enter moves as "e2e4" (promotion: "e7e8q"), or: hint, reveal, restart, continue, quit`)

	in := bufio.NewScanner(os.Stdin)
	for !eng.Completed() && in.Scan() {
		line := strings.TrimSpace(strings.ToLower(in.Text()))
		switch line {
		case "quit", "q":
			return
		case "hint":
			sq, err := eng.RequestHint()
			if err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Printf("the next move starts from %s\n", sq)
			continue
		case "reveal":
			fmt.Printf("solution: %s\n", strings.Join(eng.RevealSolution(), " "))
			continue
		case "restart":
			fen, _ := eng.Recover(solve.RecoveryRestart)
			fmt.Println(fen)
			continue
		case "continue":
			fen, _ := eng.Recover(solve.RecoveryContinue)
			fmt.Println(fen)
			continue
		case "":
			continue
		}

		if len(line) < 4 {
			fmt.Println("unrecognized input")
			continue
		}
		promo := ""
		if len(line) > 4 {
			promo = line[4:]
		}
		res, err := eng.AttemptMove(line[:2], line[2:4], promo)
		if err != nil {
			fmt.Println(err)
			continue
		}
		switch res.Outcome {
		case solve.OutcomeIllegal:
			fmt.Printf("illegal: %s\n", res.Reason)
		case solve.OutcomeWrong:
			fmt.Printf("wrong: %s (type restart or continue)\n", res.Reason)
		case solve.OutcomeCorrect:
			fmt.Println(res.Board)
		}
	}

	if eng.Completed() {
		fmt.Printf("final grade: %d star(s)\n", eng.Grade())
	}
}
