// Package generation turns a validated request into a contract artifact by
// calling a generative model and parsing its answer.
package generation

import (
	"context"
	"time"

	"github.com/davidahmann/lexgen/internal/metrics"
	"github.com/davidahmann/lexgen/internal/prompt"
	"github.com/davidahmann/lexgen/internal/rules"
	"github.com/davidahmann/lexgen/pkg/types"
	"go.uber.org/zap"
)

// Client generates artifacts with one Model.
type Client struct {
	model   Model
	options Options
	retry   RetryConfig
	timeout time.Duration
	logger  *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithOptions(opts Options) ClientOption {
	return func(c *Client) {
		c.options = opts
	}
}

func WithRetryConfig(cfg RetryConfig) ClientOption {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithTimeout bounds each model call. Zero means no timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(model Model, opts ...ClientOption) *Client {
	c := &Client{
		model:   model,
		options: DefaultOptions(),
		retry:   DefaultRetryConfig(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is a generated artifact and how it was obtained.
type Result struct {
	Artifact types.Artifact
	Outcome  Outcome
	// Reason is set when Outcome is OutcomeFallback.
	Reason   string
	Attempts int
}

// Generate builds the prompt for req, calls the model and parses the answer.
// Model failures return *ServiceError; structurally incomplete answers return
// *ParseError. Undecodable answers succeed with the fallback artifact.
func (c *Client) Generate(ctx context.Context, req types.GenerationRequest, set *rules.RuleSet) (Result, error) {
	text := prompt.Build(req, set)
	log := c.logger.With(
		zap.String("provider", c.model.Name()),
		zap.String("jurisdiction", req.Jurisdiction),
		zap.String("contract_type", req.ContractType),
	)
	log.Info("generating contract", zap.Int("prompt_bytes", len(text)))

	start := time.Now()
	raw, attempts, err := c.complete(ctx, text)
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues("service_error").Inc()
		log.Error("model call failed", zap.Int("attempts", attempts), zap.Error(err))
		return Result{}, &ServiceError{Provider: c.model.Name(), Err: err}
	}

	parsed := Parse(raw)
	switch parsed.Outcome {
	case OutcomeParseFailure:
		metrics.GenerationsTotal.WithLabelValues("parse_error").Inc()
		log.Warn("model response missing required structure", zap.String("reason", parsed.Reason))
		return Result{}, &ParseError{Reason: parsed.Reason}
	case OutcomeFallback:
		log.Warn("model response is not valid JSON, using fallback artifact", zap.String("reason", parsed.Reason))
	}

	metrics.GenerationsTotal.WithLabelValues(string(parsed.Outcome)).Inc()
	log.Info("contract generated",
		zap.String("outcome", string(parsed.Outcome)),
		zap.String("contract_name", parsed.Artifact.Metadata.ContractName()),
		zap.Int("attempts", attempts),
	)

	return Result{
		Artifact: parsed.Artifact,
		Outcome:  parsed.Outcome,
		Reason:   parsed.Reason,
		Attempts: attempts,
	}, nil
}

func (c *Client) complete(ctx context.Context, text string) (string, int, error) {
	maxAttempts := c.retry.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, err := c.call(ctx, text)
		if err == nil {
			metrics.ModelAttempts.WithLabelValues(c.model.Name(), "ok").Inc()
			return raw, attempt, nil
		}
		metrics.ModelAttempts.WithLabelValues(c.model.Name(), "error").Inc()
		lastErr = err

		if IsFatal(err) || ctx.Err() != nil {
			return "", attempt, err
		}

		if attempt < maxAttempts {
			backoff := c.retry.backoff(attempt)
			c.logger.Debug("model call failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxAttempts),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return "", attempt, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return "", maxAttempts, lastErr
}

func (c *Client) call(ctx context.Context, text string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.model.Complete(ctx, text, c.options)
}
