package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDeepL()
	c.normalizeElevenLabs()
	c.normalizeWhisperX()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CachePath) == "" {
		c.Paths.CachePath = defaultCachePath()
	}
	if c.Paths.CachePath, err = expandPath(c.Paths.CachePath); err != nil {
		return fmt.Errorf("paths.cache_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeDeepL() {
	c.DeepL.APIKey = strings.TrimSpace(c.DeepL.APIKey)
	if c.DeepL.APIKey == "" {
		if value, ok := os.LookupEnv("DEEPL_API_KEY"); ok && strings.TrimSpace(value) != "" {
			c.DeepL.APIKey = strings.TrimSpace(value)
		} else {
			c.DeepL.APIKey = PlaceholderDeepLKey
		}
	}
	c.DeepL.BaseURL = strings.TrimRight(strings.TrimSpace(c.DeepL.BaseURL), "/")
	if c.DeepL.BaseURL == "" {
		c.DeepL.BaseURL = defaultDeepLBaseURL
	}
	// Paid keys are rejected by the free endpoint.
	if c.DeepL.BaseURL == defaultDeepLBaseURL && c.DeepL.APIKey != PlaceholderDeepLKey && !strings.HasSuffix(c.DeepL.APIKey, ":fx") {
		c.DeepL.BaseURL = defaultDeepLProBaseURL
	}
	c.DeepL.TargetLang = strings.ToUpper(strings.TrimSpace(c.DeepL.TargetLang))
	if c.DeepL.TargetLang == "" {
		c.DeepL.TargetLang = defaultDeepLTargetLang
	}
	c.DeepL.SourceLang = strings.ToUpper(strings.TrimSpace(c.DeepL.SourceLang))
	if c.DeepL.TimeoutSeconds <= 0 {
		c.DeepL.TimeoutSeconds = defaultDeepLTimeoutSeconds
	}
}

func (c *Config) normalizeElevenLabs() {
	c.ElevenLabs.APIKey = strings.TrimSpace(c.ElevenLabs.APIKey)
	if c.ElevenLabs.APIKey == "" {
		if value, ok := os.LookupEnv("ELEVENLABS_API_KEY"); ok && strings.TrimSpace(value) != "" {
			c.ElevenLabs.APIKey = strings.TrimSpace(value)
		} else {
			c.ElevenLabs.APIKey = PlaceholderElevenLabsKey
		}
	}
	c.ElevenLabs.BaseURL = strings.TrimRight(strings.TrimSpace(c.ElevenLabs.BaseURL), "/")
	if c.ElevenLabs.BaseURL == "" {
		c.ElevenLabs.BaseURL = defaultElevenLabsBaseURL
	}
	c.ElevenLabs.VoiceID = strings.TrimSpace(c.ElevenLabs.VoiceID)
	if c.ElevenLabs.VoiceID == "" {
		c.ElevenLabs.VoiceID = defaultElevenLabsVoiceID
	}
	c.ElevenLabs.ModelID = strings.TrimSpace(c.ElevenLabs.ModelID)
	c.ElevenLabs.OutputFormat = strings.ToLower(strings.TrimSpace(c.ElevenLabs.OutputFormat))
	if c.ElevenLabs.OutputFormat == "" {
		c.ElevenLabs.OutputFormat = defaultElevenLabsOutputFormat
	}
	if c.ElevenLabs.TimeoutSeconds <= 0 {
		c.ElevenLabs.TimeoutSeconds = defaultElevenLabsTimeout
	}
}

func (c *Config) normalizeWhisperX() {
	c.WhisperX.Model = strings.TrimSpace(c.WhisperX.Model)
	if c.WhisperX.Model == "" {
		c.WhisperX.Model = defaultWhisperXModel
	}
	c.WhisperX.Language = strings.ToLower(strings.TrimSpace(c.WhisperX.Language))
	c.WhisperX.VADMethod = strings.ToLower(strings.TrimSpace(c.WhisperX.VADMethod))
	if c.WhisperX.VADMethod == "" {
		c.WhisperX.VADMethod = defaultWhisperXVADMethod
	}
	c.WhisperX.HFToken = strings.TrimSpace(c.WhisperX.HFToken)
	if c.WhisperX.HFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.WhisperX.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.WhisperX.HFToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
