// Command replay plays a scripted sequence of taps against a running game
// server. Scripts hold one "row,col" pair per line; blank lines and lines
// starting with '#' are skipped. It is handy for reproducing a game over the
// REST API while watching the board from another client.
//
//	replay --board classic opening.taps
//	echo "2,0\n2,1" | replay --session 1a2b -
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/elementcapture/game/engine"
)

// Summary describes a finished replay
type Summary struct {
	Taps     int
	Outcomes map[engine.Outcome]int
	Board    *engine.BoardView
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "Replay a tap script against an Element Capture server",
		ArgsUsage: "<script|->",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL"},
			&cli.StringFlag{Name: "board", Usage: "Board configuration for a new session"},
			&cli.StringFlag{Name: "session", Usage: "Play into an existing session by ID"},
			&cli.BoolFlag{Name: "reset", Usage: "Reset the session before replaying"},
			&cli.DurationFlag{Name: "delay", Usage: "Delay between taps"},
			&cli.BoolFlag{Name: "v", Usage: "Verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			taps, err := readScript(cmd.Args().First())
			if err != nil {
				return err
			}

			client := NewClient(strings.TrimSuffix(cmd.String("url"), "/"))
			if err := prepareSession(client, cmd.String("session"), cmd.String("board"), cmd.Bool("reset")); err != nil {
				return err
			}

			summary, err := replay(ctx, client, taps, cmd.Duration("delay"), cmd.Bool("v"))
			if err != nil {
				return err
			}
			printSummary(os.Stdout, client.SessionID(), summary)
			return nil
		},
	}
}

func readScript(path string) ([]engine.Coordinate, error) {
	if path == "" {
		return nil, fmt.Errorf("a script path (or - for stdin) is required")
	}
	if path == "-" {
		return parseScript(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	return parseScript(f)
}

// parseScript reads "row,col" lines. Whitespace may separate the pair instead
// of a comma.
func parseScript(r io.Reader) ([]engine.Coordinate, error) {
	var taps []engine.Coordinate
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected row,col, got %q", line, text)
		}
		row, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid row %q", line, fields[0])
		}
		col, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid col %q", line, fields[1])
		}
		taps = append(taps, engine.Coordinate{Row: row, Col: col})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return taps, nil
}

func prepareSession(client *Client, sessionID, board string, reset bool) error {
	if sessionID != "" {
		client.UseSession(sessionID)
		if _, err := client.GetBoard(); err != nil {
			return fmt.Errorf("session %s: %w", sessionID, err)
		}
		log.Printf("🔄 Resuming session: %s", sessionID)
	} else {
		view, err := client.CreateSession(board)
		if err != nil {
			return err
		}
		log.Printf("✨ Session created: %s (%s, %dx%d)", client.SessionID(), view.ConfigName, view.Rows, view.Cols)
	}

	if reset {
		if _, err := client.Reset(); err != nil {
			return err
		}
		log.Printf("🔄 Session reset")
	}
	return nil
}

// replay sends every tap in order and stops at the first failed request
func replay(ctx context.Context, client *Client, taps []engine.Coordinate, delay time.Duration, verbose bool) (*Summary, error) {
	summary := &Summary{Outcomes: map[engine.Outcome]int{}}

	for i, coord := range taps {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		resp, err := client.Tap(coord)
		if err != nil {
			return summary, fmt.Errorf("tap %d: %w", i+1, err)
		}
		summary.Taps++
		summary.Outcomes[resp.Result.Outcome]++
		summary.Board = resp.Board

		if resp.Result.Outcome == engine.OutcomeCaptured {
			log.Printf("%s captured %s", resp.Result.Player, coord)
		} else if verbose {
			log.Printf("%s tapped %s: %s", resp.Result.Player, coord, resp.Result.Outcome)
		}

		if delay > 0 {
			time.Sleep(delay)
		}
	}

	if summary.Board == nil {
		board, err := client.GetBoard()
		if err != nil {
			return summary, err
		}
		summary.Board = board
	}
	return summary, nil
}

func printSummary(w io.Writer, sessionID string, s *Summary) {
	fmt.Fprintf(w, "Session: %s\n", sessionID)
	fmt.Fprintf(w, "Taps: %d (captured=%d selected=%d deselected=%d ignored=%d)\n", s.Taps,
		s.Outcomes[engine.OutcomeCaptured], s.Outcomes[engine.OutcomeSelected],
		s.Outcomes[engine.OutcomeDeselected], s.Outcomes[engine.OutcomeIgnored])
	if s.Board != nil {
		fmt.Fprintf(w, "Standings: player1=%d player2=%d neutral=%d\n",
			s.Board.Standings.Player1, s.Board.Standings.Player2, s.Board.Standings.Neutral)
		fmt.Fprintf(w, "Next: %s (%s)\n", s.Board.ActivePlayer, s.Board.Phase)
	}
}
