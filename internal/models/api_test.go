package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveListScan(t *testing.T) {
	tests := []struct {
		input   string
		want    MoveList
		wantErr bool
	}{
		{input: "{e2e4,e7e5,g1f3}", want: MoveList{"e2e4", "e7e5", "g1f3"}},
		{input: "{e7e8q}", want: MoveList{"e7e8q"}},
		{input: "{}", want: MoveList{}},
	}

	for testIndex, test := range tests {
		t.Run(fmt.Sprintf("Case-%d", testIndex+1), func(t *testing.T) {
			var moves MoveList
			err := moves.Scan([]byte(test.input))
			require.NoError(t, err)
			assert.Equal(t, test.want, moves)
		})
	}
}

func TestMoveListScanWrongType(t *testing.T) {
	var moves MoveList
	assert.Error(t, moves.Scan(42))
}

func TestStoredAnalysisValidate(t *testing.T) {
	valid := StoredAnalysis{
		Position:   "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -",
		Engine:     "Stockfish 16",
		Depth:      20,
		ScoreKind:  "cp",
		ScoreValue: 31,
	}
	assert.NoError(t, valid.Validate())

	noEngine := valid
	noEngine.Engine = ""
	assert.Error(t, noEngine.Validate())

	badScore := valid
	badScore.ScoreKind = "pawns"
	assert.Error(t, badScore.Validate())

	negativeDepth := valid
	negativeDepth.Depth = -1
	assert.Error(t, negativeDepth.Validate())
}
