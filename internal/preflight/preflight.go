package preflight

import (
	"context"
	"fmt"
	"strings"

	"dubber/internal/config"
	"dubber/internal/deps"
	"dubber/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Request describes the paths a dubbing run will touch.
type Request struct {
	InputPath    string
	OutputPath   string
	Overwrite    bool
	NeedWhisperX bool
}

// RunAll executes the filesystem checks for a run. It performs no network I/O.
func RunAll(cfg *config.Config, req Request) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckInputFile("Input video", req.InputPath),
		CheckOutputPath("Output video", req.OutputPath, req.Overwrite),
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
	}
}

// Run executes RunAll plus binary checks and returns a single error naming
// every failure. Filesystem failures take precedence over missing binaries.
func Run(cfg *config.Config, req Request) error {
	if cfg == nil {
		return services.Wrap(services.ErrConfiguration, "preflight", "run", "configuration unavailable", nil)
	}
	var failures []string
	for _, result := range RunAll(cfg, req) {
		if !result.Passed {
			failures = append(failures, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		}
	}
	if len(failures) > 0 {
		return services.Wrap(services.ErrFilesystem, "preflight", "run", strings.Join(failures, "; "), nil)
	}

	for _, status := range deps.Missing(CheckSystemDeps(cfg, req.NeedWhisperX)) {
		failures = append(failures, fmt.Sprintf("%s: %s", status.Name, status.Detail))
	}
	if len(failures) > 0 {
		return services.Wrap(services.ErrExternalTool, "preflight", "run", strings.Join(failures, "; "), nil)
	}
	return nil
}

// CheckCredentials runs the API checks used by the status command.
func CheckCredentials(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDeepL(ctx, cfg),
		CheckElevenLabs(ctx, cfg),
	}
}
