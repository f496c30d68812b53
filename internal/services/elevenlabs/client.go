package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dubber/internal/audio"
	"dubber/internal/logging"
	"dubber/internal/services"
	"dubber/internal/services/httpretry"
)

const (
	defaultBaseURL      = "https://api.elevenlabs.io"
	defaultHTTPTimeout  = 120 * time.Second
	defaultOutputFormat = "pcm_16000"
	stageName           = "synthesis"
)

// Config captures the runtime settings required to talk to ElevenLabs.
type Config struct {
	APIKey          string
	BaseURL         string
	VoiceID         string
	ModelID         string
	OutputFormat    string
	Stability       float64
	SimilarityBoost float64
	TimeoutSeconds  int
}

// Client wraps the ElevenLabs text-to-speech streaming endpoint.
type Client struct {
	cfg        Config
	format     audio.PayloadFormat
	httpClient *http.Client
	retry      httpretry.Policy
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(policy httpretry.Policy) Option {
	return func(c *Client) {
		c.retry = policy
	}
}

// WithLogger attaches a logger used for retry warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient constructs a client. It fails only when OutputFormat cannot be parsed.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.VoiceID = strings.TrimSpace(cfg.VoiceID)
	cfg.ModelID = strings.TrimSpace(cfg.ModelID)
	cfg.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.OutputFormat))
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = defaultOutputFormat
	}
	format, err := audio.ParseOutputFormat(cfg.OutputFormat)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "init", "invalid output format", err)
	}

	client := &Client{
		cfg:        cfg,
		format:     format,
		httpClient: &http.Client{Timeout: timeout},
		retry:      httpretry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "elevenlabs")
	if client.retry.OnRetry == nil {
		client.retry.OnRetry = client.logRetry
	}
	return client, nil
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id,omitempty"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Synthesize renders text with the configured voice and decodes the streamed
// payload into mono PCM at the payload's native sample rate.
func (c *Client) Synthesize(ctx context.Context, text string) (*audio.Buffer, error) {
	if strings.TrimSpace(text) == "" {
		return nil, services.Wrap(services.ErrValidation, stageName, "synthesize", "text required", nil)
	}
	if c.cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "synthesize", "ElevenLabs API key required", nil)
	}
	if c.cfg.VoiceID == "" {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "synthesize", "voice id required", nil)
	}

	encoded, err := json.Marshal(speechRequest{
		Text:    text,
		ModelID: c.cfg.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       c.cfg.Stability,
			SimilarityBoost: c.cfg.SimilarityBoost,
		},
	})
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, stageName, "synthesize", "encode request", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s/stream?output_format=%s",
		c.cfg.BaseURL, url.PathEscape(c.cfg.VoiceID), url.QueryEscape(c.cfg.OutputFormat))

	body, err := c.retry.Do(ctx, c.httpClient, "elevenlabs synthesize", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("xi-api-key", c.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", acceptHeader(c.format))
		return req, nil
	})
	if err != nil {
		return nil, classify("synthesize", err)
	}

	buf, err := audio.DecodePayload(body, c.format)
	if err != nil {
		return nil, services.Wrap(services.ErrDecode, stageName, "synthesize", fmt.Sprintf("decode %d byte payload", len(body)), err)
	}
	return buf, nil
}

// Subscription reports character usage for the account.
type Subscription struct {
	Tier           string `json:"tier"`
	CharacterCount int64  `json:"character_count"`
	CharacterLimit int64  `json:"character_limit"`
}

// Subscription queries /v1/user/subscription. It doubles as a credential check.
func (c *Client) Subscription(ctx context.Context) (Subscription, error) {
	var sub Subscription
	if c.cfg.APIKey == "" {
		return sub, services.Wrap(services.ErrConfiguration, stageName, "subscription", "ElevenLabs API key required", nil)
	}
	body, err := c.retry.Do(ctx, c.httpClient, "elevenlabs subscription", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/user/subscription", nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("xi-api-key", c.cfg.APIKey)
		return req, nil
	})
	if err != nil {
		return sub, classify("subscription", err)
	}
	if err := json.Unmarshal(body, &sub); err != nil {
		return sub, services.Wrap(services.ErrDecode, stageName, "subscription", "decode response", err)
	}
	return sub, nil
}

func acceptHeader(format audio.PayloadFormat) string {
	if format.Codec == audio.CodecMP3 {
		return "audio/mpeg"
	}
	return "audio/pcm"
}

func (c *Client) logRetry(attempt int, delay time.Duration, err error) {
	logging.WarnWithContext(c.logger, "elevenlabs request failed; retrying", "elevenlabs_retry",
		logging.Int("attempt", attempt),
		logging.Duration("delay", delay),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check ElevenLabs status and character quota"),
		logging.String(logging.FieldImpact, "synthesis delayed"),
	)
}

func classify(operation string, err error) error {
	if httpretry.IsTimeout(err) {
		return services.Wrap(services.ErrTimeout, stageName, operation, "ElevenLabs request timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var statusErr *httpretry.StatusError
	if errors.As(err, &statusErr) {
		msg := fmt.Sprintf("ElevenLabs returned %d", statusErr.StatusCode)
		if statusErr.StatusCode == http.StatusUnauthorized {
			msg = "ElevenLabs rejected the API key"
		}
		return services.Wrap(services.ErrTransport, stageName, operation, msg, err)
	}
	return services.Wrap(services.ErrTransport, stageName, operation, "ElevenLabs request failed", err)
}
