package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL        = "https://api.deepseek.com/v1"
	defaultModel          = "deepseek-chat"
	defaultTargetLanguage = "Simplified Chinese"
	defaultTemperature    = 0.2
	defaultHTTPTimeout    = 60 * time.Second
	defaultRetryAttempts  = 2
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
)

// ErrMissingCredential is returned before any request is made when no API key
// was configured.
var ErrMissingCredential = errors.New("deepseek: api key required")

// Client wraps the DeepSeek chat completion API for subtitle translation.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	target      string
	temperature float64
	httpClient  *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the DeepSeek client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithModel selects the chat model.
func WithModel(model string) Option {
	return func(c *Client) {
		if model = strings.TrimSpace(model); model != "" {
			c.model = model
		}
	}
}

// WithTargetLanguage sets the language named in the system prompt.
func WithTargetLanguage(target string) Option {
	return func(c *Client) {
		if target = strings.TrimSpace(target); target != "" {
			c.target = target
		}
	}
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(temperature float64) Option {
	return func(c *Client) {
		if temperature >= 0 {
			c.temperature = temperature
		}
	}
}

// WithTimeout bounds each HTTP request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count (defaults to 2).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a DeepSeek API client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:           strings.TrimSpace(apiKey),
		baseURL:          defaultBaseURL,
		model:            defaultModel,
		target:           defaultTargetLanguage,
		temperature:      defaultTemperature,
		httpClient:       &http.Client{Timeout: defaultHTTPTimeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// TargetLanguage reports the language translations are rendered into.
func (c *Client) TargetLanguage() string {
	return c.target
}

// Translate returns text rendered into the client's target language.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("deepseek translate: text required")
	}
	if c.apiKey == "" {
		return "", ErrMissingCredential
	}
	payload := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: TranslationPrompt(c.target)},
			{Role: "user", Content: text},
		},
		Temperature: c.temperature,
	}
	return c.completionWithRetry(ctx, payload, "deepseek translate")
}

// HealthCheck verifies the endpoint accepts the configured key.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.apiKey == "" {
		return ErrMissingCredential
	}
	payload := chatCompletionRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: "ping"}},
		Temperature: 0,
		MaxTokens:   1,
	}
	_, err := c.completionWithRetry(ctx, payload, "deepseek health")
	return err
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("deepseek request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (c *Client) completionWithRetry(ctx context.Context, payload chatCompletionRequest, op string) (string, error) {
	attempts := c.retryAttempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		content, err := c.sendOnce(ctx, payload)
		if err == nil {
			if content == "" && payload.MaxTokens == 0 {
				return "", fmt.Errorf("%s: empty content", op)
			}
			return content, nil
		}

		delay, retry := c.retryDelay(ctx, err, attempt)
		if !retry {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		if err := c.sleep(ctx, delay); err != nil {
			return "", err
		}
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

func (c *Client) sendOnce(ctx context.Context, payload chatCompletionRequest) (string, error) {
	endpoint, err := url.JoinPath(c.baseURL, "chat/completions")
	if err != nil {
		return "", fmt.Errorf("build url: %w", err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return "", &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}
	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("empty choices")
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
