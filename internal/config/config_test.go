package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"dubber/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeysAndExpandsPaths(t *testing.T) {
	t.Setenv("DEEPL_API_KEY", "deepl-key:fx")
	t.Setenv("ELEVENLABS_API_KEY", "eleven-key")
	t.Setenv("XDG_CACHE_HOME", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWork := filepath.Join(tempHome, ".local", "share", "dubber", "work")
	if cfg.Paths.WorkDir != wantWork {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, wantWork)
	}
	wantCache := filepath.Join(tempHome, ".cache", "dubber", "translations.db")
	if cfg.Paths.CachePath != wantCache {
		t.Fatalf("unexpected cache path: got %q want %q", cfg.Paths.CachePath, wantCache)
	}
	if cfg.DeepL.APIKey != "deepl-key:fx" {
		t.Fatalf("expected DeepL key from env, got %q", cfg.DeepL.APIKey)
	}
	if cfg.DeepL.BaseURL != "https://api-free.deepl.com" {
		t.Fatalf("expected free endpoint for :fx key, got %q", cfg.DeepL.BaseURL)
	}
	if cfg.ElevenLabs.APIKey != "eleven-key" {
		t.Fatalf("expected ElevenLabs key from env, got %q", cfg.ElevenLabs.APIKey)
	}
	if cfg.Dubbing.Workers != 4 {
		t.Fatalf("expected 4 workers by default, got %d", cfg.Dubbing.Workers)
	}
	if cfg.Output.Gain != 7.0 {
		t.Fatalf("expected default gain 7.0, got %v", cfg.Output.Gain)
	}
	if cfg.DeepL.TargetLang != "RU" {
		t.Fatalf("expected default target RU, got %q", cfg.DeepL.TargetLang)
	}
	if err := cfg.RequireCredentials(); err != nil {
		t.Fatalf("RequireCredentials returned error: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.LogDir, filepath.Dir(cfg.Paths.CachePath)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadWithoutKeysUsesPlaceholders(t *testing.T) {
	t.Setenv("DEEPL_API_KEY", "")
	t.Setenv("ELEVENLABS_API_KEY", "")
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.DeepL.APIKey != config.PlaceholderDeepLKey {
		t.Fatalf("expected DeepL placeholder, got %q", cfg.DeepL.APIKey)
	}
	if cfg.ElevenLabs.APIKey != config.PlaceholderElevenLabsKey {
		t.Fatalf("expected ElevenLabs placeholder, got %q", cfg.ElevenLabs.APIKey)
	}
	err = cfg.RequireCredentials()
	if err == nil {
		t.Fatal("expected RequireCredentials to reject placeholders")
	}
	if !strings.Contains(err.Error(), "DEEPL_API_KEY") || !strings.Contains(err.Error(), "ELEVENLABS_API_KEY") {
		t.Fatalf("expected both keys named in error, got %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("DEEPL_API_KEY", "")
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "dubber.toml")

	type payload struct {
		DeepL struct {
			APIKey     string `toml:"api_key"`
			TargetLang string `toml:"target_lang"`
		} `toml:"deepl"`
		Dubbing struct {
			Workers int `toml:"workers"`
		} `toml:"dubbing"`
		Output struct {
			Gain float64 `toml:"gain"`
		} `toml:"output"`
	}
	custom := payload{}
	custom.DeepL.APIKey = "paid-key"
	custom.DeepL.TargetLang = "de"
	custom.Dubbing.Workers = 2
	custom.Output.Gain = 3.5
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.DeepL.TargetLang != "DE" {
		t.Fatalf("expected normalized target DE, got %q", cfg.DeepL.TargetLang)
	}
	if cfg.DeepL.BaseURL != "https://api.deepl.com" {
		t.Fatalf("expected pro endpoint for paid key, got %q", cfg.DeepL.BaseURL)
	}
	if cfg.Dubbing.Workers != 2 {
		t.Fatalf("expected workers 2, got %d", cfg.Dubbing.Workers)
	}
	if cfg.Output.Gain != 3.5 {
		t.Fatalf("expected gain 3.5, got %v", cfg.Output.Gain)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "DEEPL_API_KEY") {
		t.Fatalf("sample config missing DeepL env hint: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Dubbing.Workers != 4 {
		t.Fatalf("expected sample workers 4, got %d", cfg.Dubbing.Workers)
	}
	if !strings.Contains(cfg.Paths.WorkDir, "dubber") {
		t.Fatalf("expected work dir to contain dubber, got %q", cfg.Paths.WorkDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"zero workers":       func(c *config.Config) { c.Dubbing.Workers = 0 },
		"negative gain":      func(c *config.Config) { c.Output.Gain = -1 },
		"bad sample rate":    func(c *config.Config) { c.Dubbing.SampleRate = 100 },
		"bad stability":      func(c *config.Config) { c.ElevenLabs.Stability = 1.5 },
		"bad output format":  func(c *config.Config) { c.ElevenLabs.OutputFormat = "ulaw_8000" },
		"bad vad":            func(c *config.Config) { c.WhisperX.VADMethod = "webrtc" },
		"bad target":         func(c *config.Config) { c.DeepL.TargetLang = "KLINGON" },
		"bad log format":     func(c *config.Config) { c.Logging.Format = "xml" },
		"zero unit timeout":  func(c *config.Config) { c.Dubbing.UnitTimeoutSeconds = 0 },
		"zero retry attempt": func(c *config.Config) { c.Dubbing.RetryAttempts = 0 },
		"bad ntfy topic":     func(c *config.Config) { c.Notifications.NtfyTopic = "ntfy.sh/topic" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestRedactedMasksSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.DeepL.APIKey = "abcdefgh1234"
	cfg.ElevenLabs.APIKey = "xyz"
	redacted := cfg.Redacted()
	if redacted.DeepL.APIKey != "****1234" {
		t.Fatalf("unexpected masked DeepL key %q", redacted.DeepL.APIKey)
	}
	if redacted.ElevenLabs.APIKey != "****" {
		t.Fatalf("unexpected masked ElevenLabs key %q", redacted.ElevenLabs.APIKey)
	}
	if cfg.DeepL.APIKey != "abcdefgh1234" {
		t.Fatal("Redacted must not mutate the receiver")
	}
}
