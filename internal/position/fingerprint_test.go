package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFEN(t *testing.T) {
	tests := []struct {
		name    string
		fen     string
		want    Fingerprint
		wantErr error
	}{
		{
			name: "starting position drops counters",
			fen:  StartingFEN,
			want: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -",
		},
		{
			name: "four field input accepted",
			fen:  "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -",
			want: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -",
		},
		{
			name: "counters do not affect the key",
			fen:  "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 13 37",
			want: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -",
		},
		{
			name:    "garbage",
			fen:     "not a fen",
			wantErr: ErrInvalidFEN,
		},
		{
			name:    "wrong field count",
			fen:     "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq",
			wantErr: ErrInvalidFEN,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := FromFEN(test.fen)
			if test.wantErr != nil {
				assert.ErrorIs(t, err, test.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestApplyMove(t *testing.T) {
	afterE4, err := ApplyMove(Start(), "e2e4")
	require.NoError(t, err)
	assert.Equal(t,
		Fingerprint("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3"),
		afterE4)

	afterE5, err := ApplyMove(afterE4, "e7e5")
	require.NoError(t, err)
	assert.Equal(t,
		Fingerprint("rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6"),
		afterE5)
}

func TestApplyMoveIllegal(t *testing.T) {
	_, err := ApplyMove(Start(), "e2e5")
	assert.ErrorIs(t, err, ErrInvalidMove)

	_, err = ApplyMove(Start(), "Z9z9")
	assert.ErrorIs(t, err, ErrInvalidMove)
}

func TestApplyMoveTransposition(t *testing.T) {
	// Two move orders into the same position must yield the same fingerprint.
	a, err := ApplyMove(Start(), "g1f3")
	require.NoError(t, err)
	a, err = ApplyMove(a, "g8f6")
	require.NoError(t, err)
	a, err = ApplyMove(a, "b1c3")
	require.NoError(t, err)
	a, err = ApplyMove(a, "b8c6")
	require.NoError(t, err)

	b, err := ApplyMove(Start(), "b1c3")
	require.NoError(t, err)
	b, err = ApplyMove(b, "b8c6")
	require.NoError(t, err)
	b, err = ApplyMove(b, "g1f3")
	require.NoError(t, err)
	b, err = ApplyMove(b, "g8f6")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestFingerprintFEN(t *testing.T) {
	fp := Start()
	assert.Equal(t, StartingFEN, fp.FEN())
}
