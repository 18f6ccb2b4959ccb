package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrijs2005/grammarcheck/internal/logging"
)

const (
	tracerName = "github.com/dmitrijs2005/grammarcheck/internal/server/generator"

	defaultTimeout         = 30 * time.Second
	defaultMaxAttempts     = 3
	defaultInitialInterval = 500 * time.Millisecond
	maxErrorBody           = 512
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Model   string
	APIKey  string
	// Timeout bounds each HTTP attempt.
	Timeout time.Duration
	// MaxAttempts bounds the number of tries, including the first.
	MaxAttempts int
	// InitialInterval is the first backoff delay between attempts.
	InitialInterval time.Duration
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = defaultInitialInterval
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
}

// StatusError is returned when the provider answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.Code, e.Body)
}

// retryable reports whether another attempt may succeed.
func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Client sends prompts to a provider through a Dialect, retrying transport
// failures, 429 and 5xx answers with exponential backoff.
type Client struct {
	cfg     Config
	dialect Dialect
	http    *http.Client
	logger  logging.Logger
}

// New creates a Client for the registered dialect called name.
func New(name string, cfg Config, l logging.Logger) (*Client, error) {
	d, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return NewWithDialect(d, cfg, l)
}

// NewWithDialect creates a Client with an explicit dialect.
func NewWithDialect(d Dialect, cfg Config, l logging.Logger) (*Client, error) {
	if d == nil {
		return nil, errors.New("generator: dialect is required")
	}
	cfg.applyDefaults()
	if cfg.BaseURL == "" {
		return nil, errors.New("generator: base URL is required")
	}
	return &Client{
		cfg:     cfg,
		dialect: d,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  l.With("module", "generator", "dialect", d.Name()),
	}, nil
}

// Generate returns the model's completion for prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "generator.Generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.dialect", c.dialect.Name()),
			attribute.String("llm.model", c.cfg.Model),
		))
	defer span.End()

	body, err := c.dialect.BuildRequest(c.cfg.Model, prompt)
	if err != nil {
		return "", fmt.Errorf("generator: build request: %w", err)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("generator: encode request: %w", err)
	}

	attempt := 0
	op := func() (string, error) {
		attempt++
		out, err := c.do(ctx, payload)
		if err == nil {
			return out, nil
		}

		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return "", err
		}
		var se *StatusError
		if errors.As(err, &se) && !se.retryable() {
			return "", backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return "", backoff.Permanent(err)
		}
		c.logger.Warn(ctx, "generation attempt failed", "attempt", attempt, "error", err)
		return "", err
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.cfg.InitialInterval

	out, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(c.cfg.MaxAttempts)),
	)
	span.SetAttributes(attribute.Int("llm.attempts", attempt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+c.dialect.Path(c.cfg.Model), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.dialect.Headers(c.cfg.APIKey) {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return "", &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	out, err := c.dialect.ParseResponse(data)
	if err != nil {
		return "", backoff.Permanent(err)
	}
	return out, nil
}
