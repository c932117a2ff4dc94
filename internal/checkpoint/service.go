// Package checkpoint persists exploration session snapshots as timestamped
// JSON files, so a multi-hour run survives process restarts.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/avdberg/pvminer/internal/session"
)

// ErrNotFound means no checkpoint exists for the requested session.
var ErrNotFound = errors.New("no checkpoint found for session")

const (
	fileSuffix = ".state.json"

	// stampLayout is fixed-width UTC so the lexicographic filename order is
	// the chronological order.
	stampLayout = "2006-01-02T15:04:05.000000000Z"
)

// Service stores checkpoints in one directory, shared by many sessions and
// discriminated by the sessionID filename prefix.
type Service struct {
	dir       string
	retention int

	mu           sync.Mutex
	autoSaveStop chan struct{}
	autoSaveDone chan struct{}
}

// NewService creates the checkpoint directory if needed. Retention is the
// number of snapshots kept per session; older ones are pruned after each
// save.
func NewService(dir string, retention int) (*Service, error) {
	if retention < 1 {
		retention = 1
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	return &Service{dir: dir, retention: retention}, nil
}

// fileName renders `<sessionId>-<ISO8601 with ':' and '.' replaced>.state.json`.
func fileName(sessionID string, savedAt time.Time) string {
	stamp := savedAt.UTC().Format(stampLayout)
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return sessionID + "-" + stamp + fileSuffix
}

// Save writes one immutable snapshot and prunes superseded snapshots of the
// same session beyond the retention count, oldest first. Append-then-prune: a
// crash in between leaves extra valid snapshots, never a corrupt state.
func (s *Service) Save(checkpoint *session.Checkpoint) error {
	if checkpoint.SavedAt.IsZero() {
		checkpoint.SavedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize checkpoint: %w", err)
	}

	path := filepath.Join(s.dir, fileName(checkpoint.SessionID, checkpoint.SavedAt))
	tmpPath := path + ".tmp"

	if err = os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to finalize checkpoint: %w", err)
	}

	slog.Debug("Checkpoint saved", "path", path)

	s.prune(checkpoint.SessionID)
	return nil
}

// prune removes the oldest snapshots of a session beyond the retention
// count. Prune failures only cost disk space, so they are just logged.
func (s *Service) prune(sessionID string) {
	files, err := s.sessionFiles(sessionID)
	if err != nil {
		slog.Warn("Failed to list checkpoints for pruning", "session", sessionID, "error", err)
		return
	}

	if len(files) <= s.retention {
		return
	}

	for _, path := range files[:len(files)-s.retention] {
		if err := os.Remove(path); err != nil {
			slog.Warn("Failed to prune checkpoint", "path", path, "error", err)
		}
	}
}

// sessionFiles returns a session's snapshot paths, oldest first. The stamp
// is fixed width, so matching on its exact length keeps session IDs that are
// dash-prefixes of each other (like "run" and "run-2") apart.
func (s *Service) sessionFiles(sessionID string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, sessionID+"-*"+fileSuffix))
	if err != nil {
		return nil, err
	}

	files := matches[:0]
	for _, path := range matches {
		stamp := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), sessionID+"-"), fileSuffix)
		if len(stamp) == len(stampLayout) {
			files = append(files, path)
		}
	}

	sort.Strings(files)
	return files, nil
}

// LoadLatest returns the most recent snapshot of a session, or ErrNotFound.
// A corrupt newest file is skipped in favor of older ones, so callers can
// still resume from the last fully written snapshot.
func (s *Service) LoadLatest(sessionID string) (*session.Checkpoint, error) {
	files, err := s.sessionFiles(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}

	for i := len(files) - 1; i >= 0; i-- {
		checkpoint, err := readCheckpoint(files[i])
		if err != nil {
			slog.Warn("Skipping unreadable checkpoint", "path", files[i], "error", err)
			continue
		}

		return checkpoint, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
}

func readCheckpoint(path string) (*session.Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var checkpoint session.Checkpoint
	if err = json.Unmarshal(data, &checkpoint); err != nil {
		return nil, err
	}

	return &checkpoint, nil
}

// List enumerates all known sessions by their most recent snapshot, newest
// first. Unreadable files are skipped.
func (s *Service) List() ([]session.Summary, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, "*"+fileSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}

	latest := make(map[string]*session.Checkpoint)
	for _, path := range files {
		checkpoint, err := readCheckpoint(path)
		if err != nil {
			slog.Warn("Skipping unreadable checkpoint", "path", path, "error", err)
			continue
		}

		if known, ok := latest[checkpoint.SessionID]; !ok || checkpoint.SavedAt.After(known.SavedAt) {
			latest[checkpoint.SessionID] = checkpoint
		}
	}

	summaries := make([]session.Summary, 0, len(latest))
	for _, checkpoint := range latest {
		summaries = append(summaries, summarize(checkpoint))
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].SavedAt.After(summaries[j].SavedAt)
	})

	return summaries, nil
}

func summarize(checkpoint *session.Checkpoint) session.Summary {
	summary := session.Summary{
		SessionID: checkpoint.SessionID,
		Project:   checkpoint.Project,
		Strategy:  checkpoint.Strategy,
		SavedAt:   checkpoint.SavedAt,
	}

	if checkpoint.State != nil {
		summary.Analyzed = checkpoint.State.Stats.Analyzed
		summary.Discovered = checkpoint.State.Stats.Discovered
		if summary.Discovered > 0 {
			summary.Completion = float64(summary.Analyzed) / float64(summary.Discovered)
		}
	}

	return summary
}

// Delete removes all snapshots of a session.
func (s *Service) Delete(sessionID string) error {
	files, err := s.sessionFiles(sessionID)
	if err != nil {
		return fmt.Errorf("failed to list checkpoints: %w", err)
	}

	for _, path := range files {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to delete checkpoint: %w", err)
		}
	}

	return nil
}

// StartAutoSave saves the provider's checkpoint on a repeating interval.
// Only one auto-save timer is active per service instance; starting a new one
// cancels the previous.
func (s *Service) StartAutoSave(sessionID string, provider func() *session.Checkpoint, interval time.Duration) {
	s.StopAutoSave()

	stop := make(chan struct{})
	done := make(chan struct{})

	s.mu.Lock()
	s.autoSaveStop = stop
	s.autoSaveDone = done
	s.mu.Unlock()

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := s.Save(provider()); err != nil {
					slog.Error("Auto-save failed", "session", sessionID, "error", err)
				}
			}
		}
	}()

	slog.Debug("Auto-save started", "session", sessionID, "interval", interval)
}

// StopAutoSave cancels the active auto-save timer, if any, and waits for a
// save in progress to finish.
func (s *Service) StopAutoSave() {
	s.mu.Lock()
	stop := s.autoSaveStop
	done := s.autoSaveDone
	s.autoSaveStop = nil
	s.autoSaveDone = nil
	s.mu.Unlock()

	if stop == nil {
		return
	}

	close(stop)
	<-done
}
