package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations used by a dubbing run.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	LogDir    string `toml:"log_dir"`
	CachePath string `toml:"cache_path"`
}

// DeepL contains configuration for the translation API.
type DeepL struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TargetLang     string `toml:"target_lang"`
	SourceLang     string `toml:"source_lang"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ElevenLabs contains configuration for the speech synthesis API.
type ElevenLabs struct {
	APIKey          string  `toml:"api_key"`
	BaseURL         string  `toml:"base_url"`
	VoiceID         string  `toml:"voice_id"`
	ModelID         string  `toml:"model_id"`
	OutputFormat    string  `toml:"output_format"`
	Stability       float64 `toml:"stability"`
	SimilarityBoost float64 `toml:"similarity_boost"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
}

// WhisperX contains configuration for speech segmentation.
type WhisperX struct {
	Model       string `toml:"model"`
	Language    string `toml:"language"`
	CUDAEnabled bool   `toml:"cuda_enabled"`
	VADMethod   string `toml:"vad_method"`
	HFToken     string `toml:"hf_token"`
}

// Dubbing contains configuration for the segment scheduler and mixer.
type Dubbing struct {
	// Workers caps the number of synthesis units in flight.
	Workers int `toml:"workers"`
	// SampleRate is the PCM rate of every clip and of the master track.
	SampleRate int `toml:"sample_rate"`
	// UnitTimeoutSeconds bounds a single translate+synthesize unit.
	UnitTimeoutSeconds int `toml:"unit_timeout_seconds"`
	// RetryAttempts bounds HTTP attempts per network call (1 disables retries).
	RetryAttempts int `toml:"retry_attempts"`
}

// Output contains configuration for the loudness and remux stage.
type Output struct {
	Gain         float64 `toml:"gain"`
	AudioCodec   string  `toml:"audio_codec"`
	Overwrite    bool    `toml:"overwrite"`
	KeepDubAudio bool    `toml:"keep_dub_audio"`
}

// Cache contains configuration for the persistent translation cache.
type Cache struct {
	Enabled bool `toml:"enabled"`
}

// Notifications contains configuration for ntfy run notifications.
type Notifications struct {
	// NtfyTopic is the full topic URL, e.g. https://ntfy.sh/my-dubs. Empty
	// disables notifications.
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for dubber.
//
// Configuration sections by subsystem:
//   - Paths: work directory, log directory, translation cache database
//   - DeepL: text translation
//   - ElevenLabs: speech synthesis
//   - WhisperX: transcription into timed segments
//   - Dubbing: worker pool size, sample rate, per-unit timeout, retries
//   - Output: gain and remux options
//   - Cache: persistent translation cache toggle
//   - Notifications: optional ntfy topic
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	DeepL         DeepL         `toml:"deepl"`
	ElevenLabs    ElevenLabs    `toml:"elevenlabs"`
	WhisperX      WhisperX      `toml:"whisperx"`
	Dubbing       Dubbing       `toml:"dubbing"`
	Output        Output        `toml:"output"`
	Cache         Cache         `toml:"cache"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("dubber.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the work and log directories plus the parent of the
// translation cache database when caching is enabled.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Cache.Enabled && strings.TrimSpace(c.Paths.CachePath) != "" {
		dir := filepath.Dir(c.Paths.CachePath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media validation.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// UVXBinary returns the uvx executable used to launch WhisperX.
func (c *Config) UVXBinary() string {
	return "uvx"
}

// UnitTimeout returns the per-segment unit timeout.
func (c *Config) UnitTimeout() time.Duration {
	return time.Duration(c.Dubbing.UnitTimeoutSeconds) * time.Second
}

// RequireCredentials reports placeholder or missing API keys. Commands that
// reach the network call it after Load; offline commands skip it.
func (c *Config) RequireCredentials() error {
	var missing []string
	if isPlaceholder(c.DeepL.APIKey, PlaceholderDeepLKey) {
		missing = append(missing, "deepl.api_key (or DEEPL_API_KEY)")
	}
	if isPlaceholder(c.ElevenLabs.APIKey, PlaceholderElevenLabsKey) {
		missing = append(missing, "elevenlabs.api_key (or ELEVENLABS_API_KEY)")
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing credentials: %s", strings.Join(missing, ", "))
}

func isPlaceholder(value, placeholder string) bool {
	value = strings.TrimSpace(value)
	return value == "" || value == placeholder
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCachePath() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "dubber", "translations.db")
	}
	return "~/.cache/dubber/translations.db"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Redacted returns a copy of the config with secrets masked for display.
func (c *Config) Redacted() Config {
	out := *c
	out.DeepL.APIKey = maskSecret(c.DeepL.APIKey)
	out.ElevenLabs.APIKey = maskSecret(c.ElevenLabs.APIKey)
	out.WhisperX.HFToken = maskSecret(c.WhisperX.HFToken)
	return out
}

func maskSecret(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}
