package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/avdberg/pvminer/internal/checkpoint"
	"github.com/avdberg/pvminer/internal/config"
)

// checkpointDir resolves the checkpoint directory from the environment,
// falling back to the exploration project's checkpoint subdirectory.
func checkpointDir(env func(string) string) (string, error) {
	if dir := env("PVMINER_CHECKPOINT_DIR"); dir != "" {
		return dir, nil
	}

	if projectDir := env("PVMINER_PROJECT_DIR"); projectDir != "" {
		return filepath.Join(projectDir, "checkpoints"), nil
	}

	return "", errors.New("either PVMINER_CHECKPOINT_DIR or PVMINER_PROJECT_DIR must be set")
}

func main() {
	_ = godotenv.Load()
	config.SetLogLevel()

	dir, err := checkpointDir(os.Getenv)
	if err != nil {
		log.Fatal(err)
	}

	service, err := checkpoint.NewService(dir, 1)
	if err != nil {
		log.Fatalf("Failed to open checkpoint directory: %v", err)
	}

	summaries, err := service.List()
	if err != nil {
		log.Fatalf("Failed to list sessions: %v", err)
	}

	if len(summaries) == 0 {
		fmt.Println("No sessions found")
		return
	}

	for _, summary := range summaries {
		fmt.Printf("%s | %s | %d/%d (%.0f%%) | %s\n",
			summary.SessionID,
			summary.Project,
			summary.Analyzed,
			summary.Discovered,
			summary.Completion*100,
			summary.SavedAt.Format("2006-01-02 15:04:05"))
	}
}
