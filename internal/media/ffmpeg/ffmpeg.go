package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"dubber/internal/logging"
	"dubber/internal/services"
)

// DefaultBinary is used when no ffmpeg path is configured.
const DefaultBinary = "ffmpeg"

// CommandRunner executes an external command. Errors should carry the
// command's diagnostic output.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Runner executes ffmpeg operations.
type Runner struct {
	binary string
	run    CommandRunner
	logger *slog.Logger
}

// New constructs a Runner for the given ffmpeg binary.
func New(binary string, logger *slog.Logger) *Runner {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultBinary
	}
	return &Runner{
		binary: binary,
		run:    defaultCommandRunner,
		logger: logging.NewComponentLogger(logger, "ffmpeg"),
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (r *Runner) WithCommandRunner(run CommandRunner) {
	if r != nil && run != nil {
		r.run = run
	}
}

// Binary returns the ffmpeg executable used by the runner.
func (r *Runner) Binary() string {
	return r.binary
}

// ExtractAudio decodes the first audio stream of source into a mono 16-bit
// PCM WAV at sampleRate.
func (r *Runner) ExtractAudio(ctx context.Context, source, dest string, sampleRate int) error {
	if sampleRate <= 0 {
		return services.Wrap(services.ErrValidation, "extract", "extract audio", fmt.Sprintf("invalid sample rate %d", sampleRate), nil)
	}
	args := buildExtractArgs(source, dest, sampleRate)
	r.logger.Debug("executing ffmpeg extract",
		logging.String("source", source),
		logging.String("dest", dest),
		logging.Int("sample_rate", sampleRate),
	)
	if err := r.run(ctx, r.binary, args...); err != nil {
		_ = os.Remove(dest)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrExternalTool, "extract", "extract audio", "ffmpeg failed", err)
	}
	if _, err := os.Stat(dest); err != nil {
		return services.Wrap(services.ErrExternalTool, "extract", "extract audio", "ffmpeg did not produce output", err)
	}
	return nil
}

// RemuxRequest describes a video plus replacement audio track.
type RemuxRequest struct {
	VideoPath  string
	AudioPath  string
	OutputPath string
	// AudioCodec forces an encoder (e.g. "aac"); empty lets ffmpeg pick the
	// container default.
	AudioCodec string
}

// Remux copies the video stream of VideoPath unchanged, replaces its audio
// with AudioPath and truncates to the shorter stream. The output appears
// atomically: ffmpeg writes a hidden sibling that is renamed on success.
func (r *Runner) Remux(ctx context.Context, req RemuxRequest) error {
	if strings.TrimSpace(req.VideoPath) == "" || strings.TrimSpace(req.AudioPath) == "" || strings.TrimSpace(req.OutputPath) == "" {
		return services.Wrap(services.ErrValidation, "remux", "remux", "video, audio and output paths are required", nil)
	}
	tmpPath := tempSibling(req.OutputPath)
	args := buildRemuxArgs(req, tmpPath)

	r.logger.Debug("executing ffmpeg remux",
		logging.String("video", req.VideoPath),
		logging.String("audio", req.AudioPath),
		logging.String("output", req.OutputPath),
		logging.String("audio_codec", req.AudioCodec),
	)
	if err := r.run(ctx, r.binary, args...); err != nil {
		_ = os.Remove(tmpPath)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrExternalTool, "remux", "remux", "ffmpeg failed", err)
	}
	if _, err := os.Stat(tmpPath); err != nil {
		return services.Wrap(services.ErrExternalTool, "remux", "remux", "ffmpeg did not produce output", err)
	}
	if err := os.Rename(tmpPath, req.OutputPath); err != nil {
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrFilesystem, "remux", "remux", "move output into place", err)
	}
	return nil
}

func buildExtractArgs(source, dest string, sampleRate int) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", "0:a:0",
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
		dest,
	}
}

func buildRemuxArgs(req RemuxRequest, outputPath string) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", req.VideoPath,
		"-i", req.AudioPath,
		"-c:v", "copy",
	}
	if codec := strings.TrimSpace(req.AudioCodec); codec != "" {
		args = append(args, "-c:a", codec)
	}
	return append(args,
		"-map", "0:v",
		"-map", "1:a",
		"-shortest",
		outputPath,
	)
}

// tempSibling keeps the extension so ffmpeg can infer the muxer.
func tempSibling(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return filepath.Join(dir, ".dub-"+strings.TrimSuffix(base, ext)+".tmp"+ext)
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
