// Package voicemetrics fetches live conversion snapshots from the voice
// agent's metrics endpoint. The snapshot feeds the conversion-delta score
// component; the optimizer must keep working when the agent is unreachable,
// so every failure here degrades to an absent snapshot instead of an error.
package voicemetrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/voxlab/promptforge/internal/domain"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Configured reports whether a base URL was provided. An unconfigured client
// always returns a nil snapshot.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// Snapshot fetches and normalizes the agent's current metrics. Any transport,
// status, or parse failure is logged at warn level and returns nil.
func (c *Client) Snapshot(ctx context.Context) domain.Snapshot {
	if !c.Configured() {
		return nil
	}

	url := c.baseURL + "/metrics"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Warn("voice metrics request build failed", "url", url, "error", err)
		return nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("voice metrics fetch failed", "url", url, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("voice metrics fetch returned non-OK status", "url", url, "status", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("voice metrics body read failed", "url", url, "error", err)
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		c.logger.Warn("voice metrics payload is not valid JSON", "url", url, "error", err)
		return nil
	}

	return normalize(raw)
}

// normalize reshapes the agent payload into the snapshot stored alongside
// runs. Counters become ints, the conversion rate a float, and recent_calls
// is capped at five entries.
func normalize(raw map[string]any) domain.Snapshot {
	snap := domain.Snapshot{
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"prompt_version": stringField(raw, "prompt_version"),
	}

	if v := stringField(raw, "timestamp"); v != "" {
		snap["timestamp"] = v
	}
	if v := stringField(raw, "dealership_id"); v != "" {
		snap["dealership_id"] = v
	}

	for _, key := range []string{"total_calls", "successful_calls", "failed_calls"} {
		snap[key] = intField(raw, key)
	}
	snap["conversion_rate"] = floatField(raw, "conversion_rate")

	if reasons, ok := raw["failure_reasons"].(map[string]any); ok {
		snap["failure_reasons"] = reasons
	} else {
		snap["failure_reasons"] = map[string]any{}
	}

	if calls, ok := raw["recent_calls"].([]any); ok {
		if len(calls) > 5 {
			calls = calls[:5]
		}
		snap["recent_calls"] = calls
	} else {
		snap["recent_calls"] = []any{}
	}

	return snap
}

func stringField(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

func intField(raw map[string]any, key string) int {
	switch v := raw[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return 0
}

func floatField(raw map[string]any, key string) float64 {
	switch v := raw[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	}
	return 0
}
