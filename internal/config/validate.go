package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"

	"dubber/internal/language"
)

// Validate ensures the configuration is usable. Credentials are checked
// separately by RequireCredentials so offline commands work without keys.
func (c *Config) Validate() error {
	if err := c.validateDeepL(); err != nil {
		return err
	}
	if err := c.validateElevenLabs(); err != nil {
		return err
	}
	if err := c.validateWhisperX(); err != nil {
		return err
	}
	if err := c.validateDubbing(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDeepL() error {
	if _, err := language.DeepLTarget(c.DeepL.TargetLang); err != nil {
		return fmt.Errorf("deepl.target_lang: %w", err)
	}
	if c.DeepL.SourceLang != "" {
		if _, err := language.DeepLSource(c.DeepL.SourceLang); err != nil {
			return fmt.Errorf("deepl.source_lang: %w", err)
		}
	}
	if c.DeepL.TimeoutSeconds <= 0 {
		return errors.New("deepl.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateElevenLabs() error {
	if strings.TrimSpace(c.ElevenLabs.VoiceID) == "" {
		return errors.New("elevenlabs.voice_id must be set")
	}
	if c.ElevenLabs.Stability < 0 || c.ElevenLabs.Stability > 1 {
		return errors.New("elevenlabs.stability must be between 0 and 1")
	}
	if c.ElevenLabs.SimilarityBoost < 0 || c.ElevenLabs.SimilarityBoost > 1 {
		return errors.New("elevenlabs.similarity_boost must be between 0 and 1")
	}
	if !strings.HasPrefix(c.ElevenLabs.OutputFormat, "pcm_") && !strings.HasPrefix(c.ElevenLabs.OutputFormat, "mp3_") {
		return fmt.Errorf("elevenlabs.output_format %q must be a pcm_* or mp3_* format", c.ElevenLabs.OutputFormat)
	}
	return nil
}

func (c *Config) validateWhisperX() error {
	switch c.WhisperX.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("whisperx.vad_method %q must be silero or pyannote", c.WhisperX.VADMethod)
	}
	return nil
}

func (c *Config) validateDubbing() error {
	if err := ensurePositiveMap(map[string]int{
		"dubbing.workers":              c.Dubbing.Workers,
		"dubbing.sample_rate":          c.Dubbing.SampleRate,
		"dubbing.unit_timeout_seconds": c.Dubbing.UnitTimeoutSeconds,
		"dubbing.retry_attempts":       c.Dubbing.RetryAttempts,
	}); err != nil {
		return err
	}
	if c.Dubbing.SampleRate < 8000 || c.Dubbing.SampleRate > 192000 {
		return errors.New("dubbing.sample_rate must be between 8000 and 192000")
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.Gain <= 0 || math.IsNaN(c.Output.Gain) || math.IsInf(c.Output.Gain, 0) {
		return errors.New("output.gain must be a positive finite number")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	parsed, err := url.Parse(topic)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic %q must be an http(s) URL", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
