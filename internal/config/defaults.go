package config

const (
	defaultConfigPath             = "~/.config/dubber/config.toml"
	defaultWorkDir                = "~/.local/share/dubber/work"
	defaultLogDir                 = "~/.local/share/dubber/logs"
	defaultDeepLBaseURL           = "https://api-free.deepl.com"
	defaultDeepLProBaseURL        = "https://api.deepl.com"
	defaultDeepLTargetLang        = "RU"
	defaultDeepLTimeoutSeconds    = 30
	defaultElevenLabsBaseURL      = "https://api.elevenlabs.io"
	defaultElevenLabsVoiceID      = "21m00Tcm4TlvDq8ikWAM"
	defaultElevenLabsModelID      = "eleven_multilingual_v2"
	defaultElevenLabsOutputFormat = "pcm_16000"
	defaultElevenLabsStability    = 0.5
	defaultElevenLabsSimilarity   = 0.75
	defaultElevenLabsTimeout      = 120
	defaultWhisperXModel          = "small"
	defaultWhisperXVADMethod      = "silero"
	defaultDubbingWorkers         = 4
	defaultDubbingSampleRate      = 16000
	defaultDubbingUnitTimeout     = 180
	defaultDubbingRetryAttempts   = 5
	defaultOutputGain             = 7.0
	defaultNtfyTimeoutSeconds     = 10
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Placeholder credentials used when neither the config file nor the
// environment supplies a key.
const (
	PlaceholderDeepLKey      = "YOUR_DEEPL_API_KEY"
	PlaceholderElevenLabsKey = "YOUR_ELEVENLABS_API_KEY"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			LogDir:    defaultLogDir,
			CachePath: defaultCachePath(),
		},
		DeepL: DeepL{
			BaseURL:        defaultDeepLBaseURL,
			TargetLang:     defaultDeepLTargetLang,
			TimeoutSeconds: defaultDeepLTimeoutSeconds,
		},
		ElevenLabs: ElevenLabs{
			BaseURL:         defaultElevenLabsBaseURL,
			VoiceID:         defaultElevenLabsVoiceID,
			ModelID:         defaultElevenLabsModelID,
			OutputFormat:    defaultElevenLabsOutputFormat,
			Stability:       defaultElevenLabsStability,
			SimilarityBoost: defaultElevenLabsSimilarity,
			TimeoutSeconds:  defaultElevenLabsTimeout,
		},
		WhisperX: WhisperX{
			Model:     defaultWhisperXModel,
			VADMethod: defaultWhisperXVADMethod,
		},
		Dubbing: Dubbing{
			Workers:            defaultDubbingWorkers,
			SampleRate:         defaultDubbingSampleRate,
			UnitTimeoutSeconds: defaultDubbingUnitTimeout,
			RetryAttempts:      defaultDubbingRetryAttempts,
		},
		Output: Output{
			Gain: defaultOutputGain,
		},
		Cache: Cache{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
