package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointDir(t *testing.T) {
	env := func(vars map[string]string) func(string) string {
		return func(key string) string { return vars[key] }
	}

	dir, err := checkpointDir(env(map[string]string{
		"PVMINER_CHECKPOINT_DIR": "/data/checkpoints",
	}))
	require.NoError(t, err)
	assert.Equal(t, "/data/checkpoints", dir)

	dir, err = checkpointDir(env(map[string]string{
		"PVMINER_PROJECT_DIR": "/data/projects/openings",
	}))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data/projects/openings", "checkpoints"), dir)

	// The explicit checkpoint directory wins over the project fallback.
	dir, err = checkpointDir(env(map[string]string{
		"PVMINER_CHECKPOINT_DIR": "/data/checkpoints",
		"PVMINER_PROJECT_DIR":    "/data/projects/openings",
	}))
	require.NoError(t, err)
	assert.Equal(t, "/data/checkpoints", dir)

	_, err = checkpointDir(env(nil))
	assert.Error(t, err)
}
