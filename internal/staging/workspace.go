package staging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dubber/internal/logging"
	"dubber/internal/services"
)

// RunDirPrefix marks per-run directories inside the work directory.
const RunDirPrefix = "run-"

// Workspace is the scratch directory of one dubbing run. Every intermediate
// artifact lives under it and Close removes the tree unless Keep is set.
type Workspace struct {
	dir    string
	keep   bool
	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewWorkspace creates <root>/run-<runID>/ with a clips/ subdirectory.
func NewWorkspace(root, runID string, keep bool, logger *slog.Logger) (*Workspace, error) {
	root = strings.TrimSpace(root)
	runID = strings.TrimSpace(runID)
	if root == "" || runID == "" {
		return nil, services.Wrap(services.ErrValidation, "workspace", "create", "work dir and run id are required", nil)
	}
	dir := filepath.Join(root, RunDirPrefix+runID)
	if err := os.MkdirAll(filepath.Join(dir, "clips"), 0o755); err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "workspace", "create", fmt.Sprintf("create %s", dir), err)
	}
	return &Workspace{
		dir:    dir,
		keep:   keep,
		logger: logging.NewComponentLogger(logger, "workspace"),
	}, nil
}

// Dir returns the workspace root.
func (w *Workspace) Dir() string { return w.dir }

// ClipsDir holds the per-segment speech clips.
func (w *Workspace) ClipsDir() string { return filepath.Join(w.dir, "clips") }

// ClipPath returns the clip location for a 1-based segment index.
func (w *Workspace) ClipPath(index int) string {
	return filepath.Join(w.ClipsDir(), fmt.Sprintf("%d.wav", index))
}

// AudioPath is the mono PCM audio extracted from the input video.
func (w *Workspace) AudioPath() string { return filepath.Join(w.dir, "audio.wav") }

// TranscriptDir receives WhisperX output.
func (w *Workspace) TranscriptDir() string { return filepath.Join(w.dir, "transcript") }

// RawDubPath is the merged track before gain.
func (w *Workspace) RawDubPath() string { return filepath.Join(w.dir, "dubbed_raw.wav") }

// LoudDubPath is the merged track after gain.
func (w *Workspace) LoudDubPath() string { return filepath.Join(w.dir, "dubbed_loud.wav") }

// Close removes the workspace. It is safe to call more than once.
func (w *Workspace) Close() error {
	if w == nil {
		return nil
	}
	w.closeOnce.Do(func() {
		if w.keep {
			w.logger.Info("keeping work directory", logging.String("path", w.dir))
			return
		}
		if err := os.RemoveAll(w.dir); err != nil {
			w.closeErr = services.Wrap(services.ErrFilesystem, "cleanup", "remove workspace", w.dir, err)
			logging.WarnWithContext(w.logger, "failed to remove work directory", "workspace_cleanup_failed",
				logging.String("path", w.dir),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check work_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			return
		}
		w.logger.Debug("work directory removed", logging.String("path", w.dir))
	})
	return w.closeErr
}
