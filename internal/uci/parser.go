package uci

import (
	"strconv"
	"strings"
)

// eventKind classifies one engine output line.
type eventKind int

const (
	eventIgnored eventKind = iota
	eventPVUpdate
	eventCurrMove
	eventBestMove
	eventString
)

// event is the typed form of one engine output line. Which fields are set
// depends on the kind; numeric fields that failed to parse stay zero.
type event struct {
	kind eventKind

	depth    int
	selDepth int
	multiPV  int
	score    *Score
	nodes    int64
	nps      int64
	timeMs   int64
	pv       []string

	currMove       string
	currMoveNumber int

	bestMove string
	ponder   string

	text string
}

// parseLine classifies a raw engine output line. Unrecognized lines yield
// eventIgnored. A malformed numeric token drops that single attribute, not
// the whole line.
func parseLine(line string) event {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return event{kind: eventIgnored}
	}

	switch fields[0] {
	case "bestmove":
		return parseBestMove(fields)
	case "info":
		return parseInfo(fields)
	default:
		return event{kind: eventIgnored}
	}
}

func parseBestMove(fields []string) event {
	ev := event{kind: eventBestMove}

	if len(fields) > 1 {
		ev.bestMove = fields[1]
	}

	for i := 2; i+1 < len(fields); i++ {
		if fields[i] == "ponder" {
			ev.ponder = fields[i+1]
		}
	}

	return ev
}

func parseInfo(fields []string) event {
	ev := event{kind: eventIgnored, multiPV: 1}

	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			i = parseIntField(fields, i, &ev.depth)
		case "seldepth":
			i = parseIntField(fields, i, &ev.selDepth)
		case "multipv":
			i = parseIntField(fields, i, &ev.multiPV)
		case "nodes":
			i = parseInt64Field(fields, i, &ev.nodes)
		case "nps":
			i = parseInt64Field(fields, i, &ev.nps)
		case "time":
			i = parseInt64Field(fields, i, &ev.timeMs)
		case "currmovenumber":
			i = parseIntField(fields, i, &ev.currMoveNumber)
		case "currmove":
			if i+1 < len(fields) {
				ev.currMove = fields[i+1]
				i++
			}
		case "score":
			i = parseScore(fields, i, &ev.score)
		case "pv":
			ev.pv = append([]string{}, fields[i+1:]...)
			i = len(fields)
		case "string":
			ev.text = strings.Join(fields[i+1:], " ")
			ev.kind = eventString
			return ev
		}
	}

	switch {
	case len(ev.pv) > 0:
		ev.kind = eventPVUpdate
	case ev.currMove != "":
		ev.kind = eventCurrMove
	}

	return ev
}

// parseScore parses "score cp <v>" or "score mate <v>", including the
// optional lowerbound/upperbound suffix which is ignored.
func parseScore(fields []string, i int, out **Score) int {
	if i+2 >= len(fields) {
		return i
	}

	kind := fields[i+1]
	if kind != "cp" && kind != "mate" {
		return i
	}

	value, err := strconv.Atoi(fields[i+2])
	if err != nil {
		// Drop just the score attribute.
		return i + 2
	}

	*out = &Score{Kind: ScoreKind(kind), Value: value}
	return i + 2
}

func parseIntField(fields []string, i int, out *int) int {
	if i+1 >= len(fields) {
		return i
	}

	if value, err := strconv.Atoi(fields[i+1]); err == nil {
		*out = value
	}

	return i + 1
}

func parseInt64Field(fields []string, i int, out *int64) int {
	if i+1 >= len(fields) {
		return i
	}

	if value, err := strconv.ParseInt(fields[i+1], 10, 64); err == nil {
		*out = value
	}

	return i + 1
}
