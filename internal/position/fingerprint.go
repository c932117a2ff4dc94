// Package position provides canonical position fingerprints and legal move
// application on top of a regular chess rules library.
package position

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// StartingFEN is the FEN of the regular chess starting position.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	ErrInvalidFEN  = errors.New("invalid FEN")
	ErrInvalidMove = errors.New("move is not legal in this position")
)

// fingerprintFields is the number of FEN fields kept in a fingerprint:
// board, side to move, castling rights and en-passant target. The move
// counters are dropped so transposed histories collapse to one key.
const fingerprintFields = 4

// Fingerprint is the canonical key for a board position.
type Fingerprint string

// FromFEN parses a FEN (with or without move counters) into a Fingerprint.
func FromFEN(fen string) (Fingerprint, error) {
	fields := strings.Fields(fen)

	if len(fields) == fingerprintFields {
		fields = append(fields, "0", "1")
	}

	if len(fields) != 6 {
		return "", fmt.Errorf("%w: expected 4 or 6 fields, got %d", ErrInvalidFEN, len(strings.Fields(fen)))
	}

	if _, err := chess.FEN(strings.Join(fields, " ")); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidFEN, fen)
	}

	return Fingerprint(strings.Join(fields[:fingerprintFields], " ")), nil
}

// Start returns the fingerprint of the starting position.
func Start() Fingerprint {
	fp, err := FromFEN(StartingFEN)
	if err != nil {
		panic("starting FEN does not parse")
	}
	return fp
}

// FEN returns a full six-field FEN suitable for a "position fen" command.
// The dropped move counters are rendered as "0 1".
func (f Fingerprint) FEN() string {
	return string(f) + " 0 1"
}

func (f Fingerprint) String() string {
	return string(f)
}

// ApplyMove applies a move in UCI notation (e.g. "e2e4", "e7e8q") to a
// position and returns the successor fingerprint. Returns ErrInvalidMove if
// the move is not legal in the position.
func ApplyMove(f Fingerprint, uciMove string) (Fingerprint, error) {
	fenOption, err := chess.FEN(f.FEN())
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidFEN, f)
	}

	pos := chess.NewGame(fenOption).Position()

	wanted := strings.ToLower(strings.TrimSpace(uciMove))
	for _, move := range pos.ValidMoves() {
		if move.String() == wanted {
			return FromFEN(pos.Update(move).String())
		}
	}

	return "", fmt.Errorf("%w: %q in %s", ErrInvalidMove, uciMove, f)
}
