package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/promptfire/promptfire/internal/feeder"
	"github.com/promptfire/promptfire/internal/metrics"
	"github.com/promptfire/promptfire/internal/runner"
	"github.com/promptfire/promptfire/internal/tracing"
)

const maxLoggedBodyBytes = 1024

// generatePayload is the request body sent to the generation endpoint.
type generatePayload struct {
	Prompt      string  `json:"prompt"`
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

const (
	defaultTemperature = 0.6
	defaultMaxTokens   = 9999
)

// generateRequester issues one POST to the target per Do call, using a
// prompt sampled from the feeder. A response is a success only when the
// server answers 200; anything else is recorded as a failure.
type generateRequester struct {
	client    *http.Client
	feeder    feeder.Feeder
	collector *metrics.Collector
	targetURL string
	tracer    trace.Tracer
	propagate bool
}

func (r *generateRequester) Do(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := tracing.StartRequestSpan(ctx, r.tracer, r.targetURL)

	start := time.Now()
	err := r.doOnce(ctx)
	latency := time.Since(start)

	r.collector.RecordRequest(latency, err)
	tracing.EndSpan(span, err, attribute.Int64("promptfire.latency_ms", latency.Milliseconds()))
	return err
}

func (r *generateRequester) doOnce(ctx context.Context) error {
	prompt, err := r.feeder.Next(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(generatePayload{
		Prompt:      prompt,
		Stream:      false,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.targetURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, readErr := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBodyBytes))
		_, _ = io.Copy(io.Discard, resp.Body)
		if readErr != nil {
			return readErr
		}
		return &runner.HTTPError{
			StatusCode: resp.StatusCode,
			Body:       errorSnippet(snippet),
		}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// errorSnippet extracts a short human-readable message from an error
// response body. JSON bodies with an "error" or "detail" field collapse
// to that field; anything else is returned trimmed.
func errorSnippet(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if gjson.ValidBytes(body) {
		for _, field := range []string{"error", "detail", "message"} {
			if v := gjson.GetBytes(body, field); v.Exists() && v.String() != "" {
				return v.String()
			}
		}
	}
	return trimmed
}

type stderrFailureLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *stderrFailureLogger) LogFailure(err error) {
	if err == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "[promptfire] request failed: %v\n", err)
}
