package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"dubber/internal/config"
	"dubber/internal/deps"
	"dubber/internal/services/deepl"
	"dubber/internal/services/elevenlabs"
	"dubber/internal/services/httpretry"
)

const apiCheckTimeout = 15 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckInputFile verifies that path is a readable regular file.
func CheckInputFile(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "path not provided"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.Mode().IsRegular() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a regular file)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d bytes)", path, info.Size())}
}

// CheckOutputPath verifies the output's parent directory is writable and the
// output does not already exist unless overwrite is set.
func CheckOutputPath(name, path string, overwrite bool) Result {
	if path == "" {
		return Result{Name: name, Detail: "path not provided"}
	}
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
		}
		if !overwrite {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: already exists; pass --overwrite)", path)}
		}
	}
	parent := CheckDirectoryAccess(name, filepath.Dir(path))
	if !parent.Passed {
		return parent
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (writable)", path)}
}

// CheckSystemDeps evaluates the binaries a run needs. uvx is only required
// when segments come from WhisperX.
func CheckSystemDeps(cfg *config.Config, needWhisperX bool) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for audio extraction and remux",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for media inspection",
		},
		{
			Name:        "uvx",
			Command:     cfg.UVXBinary(),
			Description: "Required for WhisperX transcription",
			Optional:    !needWhisperX,
		},
	}
	return deps.CheckBinaries(requirements)
}

// CheckDeepL verifies the DeepL key with a single /v2/usage request.
func CheckDeepL(ctx context.Context, cfg *config.Config) Result {
	const name = "DeepL"
	if cfg.DeepL.APIKey == "" || cfg.DeepL.APIKey == config.PlaceholderDeepLKey {
		return Result{Name: name, Detail: "API key missing (set DEEPL_API_KEY)"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, apiCheckTimeout)
	defer cancel()

	client := deepl.NewClient(deepl.Config{
		APIKey:         cfg.DeepL.APIKey,
		BaseURL:        cfg.DeepL.BaseURL,
		TimeoutSeconds: cfg.DeepL.TimeoutSeconds,
	}, deepl.WithRetryPolicy(singleAttempt()))
	usage, err := client.Usage(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeAPIError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d/%d characters used", usage.CharacterCount, usage.CharacterLimit)}
}

// CheckElevenLabs verifies the ElevenLabs key with a subscription lookup.
func CheckElevenLabs(ctx context.Context, cfg *config.Config) Result {
	const name = "ElevenLabs"
	if cfg.ElevenLabs.APIKey == "" || cfg.ElevenLabs.APIKey == config.PlaceholderElevenLabsKey {
		return Result{Name: name, Detail: "API key missing (set ELEVENLABS_API_KEY)"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, apiCheckTimeout)
	defer cancel()

	client, err := elevenlabs.NewClient(elevenlabs.Config{
		APIKey:         cfg.ElevenLabs.APIKey,
		BaseURL:        cfg.ElevenLabs.BaseURL,
		VoiceID:        cfg.ElevenLabs.VoiceID,
		OutputFormat:   cfg.ElevenLabs.OutputFormat,
		TimeoutSeconds: cfg.ElevenLabs.TimeoutSeconds,
	}, elevenlabs.WithRetryPolicy(singleAttempt()))
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	sub, err := client.Subscription(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeAPIError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s tier, %d/%d characters used", sub.Tier, sub.CharacterCount, sub.CharacterLimit)}
}

func singleAttempt() httpretry.Policy {
	policy := httpretry.DefaultPolicy()
	policy.MaxAttempts = 1
	policy.OnRetry = func(int, time.Duration, error) {}
	return policy
}

// summarizeAPIError produces a human-readable summary for API check failures.
func summarizeAPIError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (API unreachable)"
	}
	var statusErr *httpretry.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("HTTP %d: %s", statusErr.StatusCode, statusErr.Body)
	}
	return err.Error()
}
