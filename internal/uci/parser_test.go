package uci

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLine(t *testing.T) {
	// Lines are taken from Stockfish 16 analyzing the starting position with
	// "go depth 20" and MultiPV 2.
	tests := []struct {
		line string
		want event
	}{
		{
			line: "Stockfish 16 by the Stockfish developers (see AUTHORS file)",
			want: event{kind: eventIgnored},
		},
		{
			line: "",
			want: event{kind: eventIgnored},
		},
		{
			line: "readyok",
			want: event{kind: eventIgnored},
		},
		{
			line: "info depth 1 seldepth 1 multipv 1 score cp 31 nodes 20 nps 20000 time 1 pv e2e4",
			want: event{
				kind:     eventPVUpdate,
				depth:    1,
				selDepth: 1,
				multiPV:  1,
				score:    &Score{Kind: ScoreCentipawn, Value: 31},
				nodes:    20,
				nps:      20000,
				timeMs:   1,
				pv:       []string{"e2e4"},
			},
		},
		{
			line: "info depth 18 seldepth 26 multipv 2 score cp 25 nodes 1099024 nps 915853 hashfull 398 tbhits 0 time 1200 pv d2d4 g8f6 c2c4 e7e6",
			want: event{
				kind:     eventPVUpdate,
				depth:    18,
				selDepth: 26,
				multiPV:  2,
				score:    &Score{Kind: ScoreCentipawn, Value: 25},
				nodes:    1099024,
				nps:      915853,
				timeMs:   1200,
				pv:       []string{"d2d4", "g8f6", "c2c4", "e7e6"},
			},
		},
		{
			line: "info depth 12 seldepth 18 score mate 3 nodes 5000 pv d1h5 g8f6 h5f7",
			want: event{
				kind:     eventPVUpdate,
				depth:    12,
				selDepth: 18,
				multiPV:  1,
				score:    &Score{Kind: ScoreMate, Value: 3},
				nodes:    5000,
				pv:       []string{"d1h5", "g8f6", "h5f7"},
			},
		},
		{
			line: "info depth 20 currmove b1c3 currmovenumber 4",
			want: event{
				kind:           eventCurrMove,
				depth:          20,
				multiPV:        1,
				currMove:       "b1c3",
				currMoveNumber: 4,
			},
		},
		{
			line: "info string NNUE evaluation using nn-5af11540bbfe.nnue enabled",
			want: event{
				kind:    eventString,
				multiPV: 1,
				text:    "NNUE evaluation using nn-5af11540bbfe.nnue enabled",
			},
		},
		{
			line: "bestmove e2e4 ponder e7e5",
			want: event{kind: eventBestMove, bestMove: "e2e4", ponder: "e7e5"},
		},
		{
			line: "bestmove g1f3",
			want: event{kind: eventBestMove, bestMove: "g1f3"},
		},
		{
			// A malformed numeric token drops that single attribute only.
			line: "info depth oops seldepth 4 multipv 1 score cp 10 nodes 99 pv e2e4",
			want: event{
				kind:     eventPVUpdate,
				depth:    0,
				selDepth: 4,
				multiPV:  1,
				score:    &Score{Kind: ScoreCentipawn, Value: 10},
				nodes:    99,
				pv:       []string{"e2e4"},
			},
		},
		{
			line: "info depth 5 score cp oops nodes 42 pv e2e4",
			want: event{
				kind:    eventPVUpdate,
				depth:   5,
				multiPV: 1,
				nodes:   42,
				pv:      []string{"e2e4"},
			},
		},
		{
			// Unknown tokens are ignored, the rest of the line still parses.
			line: "info depth 3 wdl 492 439 69 score cp 12 pv e2e4 e7e5",
			want: event{
				kind:    eventPVUpdate,
				depth:   3,
				multiPV: 1,
				score:   &Score{Kind: ScoreCentipawn, Value: 12},
				pv:      []string{"e2e4", "e7e5"},
			},
		},
		{
			// Info line without pv or currmove carries nothing we track.
			line: "info depth 10 nodes 12345 nps 678900 hashfull 12",
			want: event{
				kind:    eventIgnored,
				depth:   10,
				multiPV: 1,
				nodes:   12345,
				nps:     678900,
			},
		},
		{
			line: "info depth 21 score cp 13 lowerbound nodes 100 pv e2e4",
			want: event{
				kind:    eventPVUpdate,
				depth:   21,
				multiPV: 1,
				score:   &Score{Kind: ScoreCentipawn, Value: 13},
				nodes:   100,
				pv:      []string{"e2e4"},
			},
		},
	}

	for testIndex, test := range tests {
		testName := fmt.Sprintf("Line-%d", testIndex+1)
		t.Run(testName, func(t *testing.T) {
			got := parseLine(test.line)
			assert.Equal(t, test.want, got)
		})
	}
}
