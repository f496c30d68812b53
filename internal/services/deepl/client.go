package deepl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dubber/internal/logging"
	"dubber/internal/services"
	"dubber/internal/services/httpretry"
)

const (
	defaultBaseURL     = "https://api-free.deepl.com"
	defaultHTTPTimeout = 30 * time.Second
	stageName          = "translation"
)

// Config captures the runtime settings required to talk to DeepL.
type Config struct {
	APIKey         string
	BaseURL        string
	SourceLang     string
	TimeoutSeconds int
}

// Client wraps the DeepL v2 REST API.
type Client struct {
	cfg        Config
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

// NewClient constructs a DeepL client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			SourceLang:     strings.ToUpper(strings.TrimSpace(cfg.SourceLang)),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		retry:      httpretry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	client.logger = logging.NewComponentLogger(client.logger, "deepl")
	if client.retry.OnRetry == nil {
		client.retry.OnRetry = client.logRetry
	}
	return client
}

type translateResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

// Translate returns text rendered in targetLang (a DeepL target_lang code
// such as "RU" or "EN-US").
func (c *Client) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	targetLang = strings.ToUpper(strings.TrimSpace(targetLang))
	if targetLang == "" {
		return "", services.Wrap(services.ErrValidation, stageName, "translate", "target language required", nil)
	}
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, stageName, "translate", "DeepL API key required", nil)
	}

	form := url.Values{}
	form.Set("text", text)
	form.Set("target_lang", targetLang)
	if c.cfg.SourceLang != "" {
		form.Set("source_lang", c.cfg.SourceLang)
	}
	encoded := form.Encode()

	body, err := c.retry.Do(ctx, c.httpClient, "deepl translate", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v2/translate", strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "DeepL-Auth-Key "+c.cfg.APIKey)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return "", classify("translate", err)
	}

	var parsed translateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", services.Wrap(services.ErrDecode, stageName, "translate", "decode response", err)
	}
	if len(parsed.Translations) == 0 {
		return "", services.Wrap(services.ErrDecode, stageName, "translate", "response contained no translations", nil)
	}
	return parsed.Translations[0].Text, nil
}

// Usage reports the character quota for the current billing period.
type Usage struct {
	CharacterCount int64 `json:"character_count"`
	CharacterLimit int64 `json:"character_limit"`
}

// Usage queries /v2/usage. It doubles as a credential check.
func (c *Client) Usage(ctx context.Context) (Usage, error) {
	var usage Usage
	if c.cfg.APIKey == "" {
		return usage, services.Wrap(services.ErrConfiguration, stageName, "usage", "DeepL API key required", nil)
	}
	body, err := c.retry.Do(ctx, c.httpClient, "deepl usage", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v2/usage", nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "DeepL-Auth-Key "+c.cfg.APIKey)
		return req, nil
	})
	if err != nil {
		return usage, classify("usage", err)
	}
	if err := json.Unmarshal(body, &usage); err != nil {
		return usage, services.Wrap(services.ErrDecode, stageName, "usage", "decode response", err)
	}
	return usage, nil
}

func (c *Client) logRetry(attempt int, delay time.Duration, err error) {
	logging.WarnWithContext(c.logger, "deepl request failed; retrying", "deepl_retry",
		logging.Int("attempt", attempt),
		logging.Duration("delay", delay),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check DeepL status and quota"),
		logging.String(logging.FieldImpact, "translation delayed"),
	)
}

func classify(operation string, err error) error {
	if httpretry.IsTimeout(err) {
		return services.Wrap(services.ErrTimeout, stageName, operation, "DeepL request timed out", err)
	}
	var statusErr *httpretry.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return services.Wrap(services.ErrTransport, stageName, operation, "DeepL rejected the API key", err)
		case 456:
			return services.Wrap(services.ErrTransport, stageName, operation, "DeepL character quota exceeded", err)
		}
		return services.Wrap(services.ErrTransport, stageName, operation, fmt.Sprintf("DeepL returned %d", statusErr.StatusCode), err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return services.Wrap(services.ErrTransport, stageName, operation, "DeepL request failed", err)
}
