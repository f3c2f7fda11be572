// Package llm is the client for the chat-completions endpoint that performs
// prompt rewrites. Without an API key it degrades to a deterministic mock so
// the full pipeline can run offline.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/voxlab/promptforge/internal/metrics"
	"github.com/voxlab/promptforge/internal/retry"
)

var tracer = otel.GetTracerProvider().Tracer("internal/llm")

// ProviderTogether is the only supported provider.
const ProviderTogether = "together"

// MockPrefix marks responses produced without a configured credential.
const MockPrefix = "[MOCK]"

var (
	// ErrUnsupportedProvider is returned for any provider other than the
	// supported one when a credential is configured.
	ErrUnsupportedProvider = errors.New("unsupported generative provider")

	// ErrRetriesExhausted is returned after the retry budget is spent
	// without a successful response.
	ErrRetriesExhausted = retry.ErrExhausted
)

// MalformedResponseError reports a 2xx response whose body could not be
// parsed into the expected content field. Never retried.
type MalformedResponseError struct {
	Body string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("unexpected chat completion response format: %s", truncate(e.Body, 500))
}

// UpstreamError reports a non-retryable, non-2xx response.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("generative request failed (%d): %s", e.StatusCode, truncate(e.Body, 500))
}

type Config struct {
	Provider    string
	Endpoint    string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

type Client struct {
	cfg         Config
	httpClient  *http.Client
	retryConfig retry.Config
}

func NewClient(cfg Config) *Client {
	if cfg.Provider == "" {
		cfg.Provider = ProviderTogether
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		retryConfig: retry.GenerativeConfig(),
	}
}

// Model reports the configured model identifier for run records.
func (c *Client) Model() string {
	return c.cfg.Model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateRequest carries one rewrite request. Zero MaxTokens or Temperature
// fall back to the client defaults.
type GenerateRequest struct {
	Prompt       string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
}

// Generate sends the prompt to the chat-completions endpoint and returns the
// generated text. Retryable statuses (429, 500, 502, 503) back off and retry
// up to 5 attempts; any other failure is immediate.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.generate", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("llm.model", c.cfg.Model),
		attribute.Int("llm.request.prompt_length", len(req.Prompt)),
	)

	if c.cfg.APIKey == "" {
		span.SetAttributes(attribute.Bool("llm.mock", true))
		return fmt.Sprintf("%s %s ...", MockPrefix, truncate(req.Prompt, 120)), nil
	}

	if c.cfg.Provider != ProviderTogether {
		err := fmt.Errorf("%w: %s", ErrUnsupportedProvider, c.cfg.Provider)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.cfg.MaxTokens
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.cfg.Temperature
	}

	body, err := json.Marshal(chatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    buildMessages(req.Prompt, req.SystemPrompt),
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	start := time.Now()
	var content string

	err = retry.WithBackoffHTTP(ctx, c.retryConfig, func(ctx context.Context, attempt int) (int, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
		if err != nil {
			return 0, fmt.Errorf("create chat request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return 0, fmt.Errorf("send chat request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return resp.StatusCode, fmt.Errorf("read chat response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return resp.StatusCode, &UpstreamError{StatusCode: resp.StatusCode, Body: string(respBody)}
		}

		parsed, err := parseContent(respBody)
		if err != nil {
			// A 200 with an unusable body will not improve on retry.
			return http.StatusOK, err
		}
		content = parsed
		return http.StatusOK, nil
	})

	metrics.GenerativeRequestDuration.WithLabelValues(c.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GenerativeRequestsTotal.WithLabelValues(c.cfg.Model, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	metrics.GenerativeRequestsTotal.WithLabelValues(c.cfg.Model, "ok").Inc()
	span.SetAttributes(attribute.Int("llm.response.content_length", len(content)))
	return content, nil
}

func buildMessages(prompt, systemPrompt string) []chatMessage {
	if systemPrompt == "" {
		systemPrompt = "You are a cautious optimization assistant helping refine voice agent prompts."
	}
	return []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	}
}

func parseContent(body []byte) (string, error) {
	var resp chatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &MalformedResponseError{Body: string(body)}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil {
		return "", &MalformedResponseError{Body: string(body)}
	}
	return *resp.Choices[0].Message.Content, nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
