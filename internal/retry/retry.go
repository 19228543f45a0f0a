package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/pitchperfect/internal/model"
)

// RetryGenerator is a decorator that retries the transient "model loading"
// failure before giving up. Every other error is returned as is.
type RetryGenerator struct {
	inner      model.Generator
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	logger     *slog.Logger
}

// NewRetryGenerator wraps a Generator with retry logic.
// maxRetries is the number of additional attempts after the first failure (default: 1).
// The delay before a retry is the service's hint or baseDelay, whichever is
// longer, capped at maxDelay when maxDelay is positive.
func NewRetryGenerator(inner model.Generator, maxRetries int, baseDelay, maxDelay time.Duration, logger *slog.Logger) *RetryGenerator {
	return &RetryGenerator{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
		logger:     logger,
	}
}

// Generate calls the wrapped generator, retrying transient errors.
func (g *RetryGenerator) Generate(ctx context.Context, prompt string, params model.GenerationParams) (string, error) {
	text, err := g.inner.Generate(ctx, prompt, params)
	if err == nil {
		return text, nil
	}

	if !isRetryable(err) {
		return "", err
	}

	lastErr := err
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		delay := g.retryDelay(lastErr)

		g.logger.Warn("model not ready, retrying",
			"attempt", attempt,
			"max_retries", g.maxRetries,
			"delay", delay,
			"error", lastErr,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}

		text, err = g.inner.Generate(ctx, prompt, params)
		if err == nil {
			return text, nil
		}

		if !isRetryable(err) {
			return "", err
		}
		lastErr = err
	}

	return "", lastErr
}

func (g *RetryGenerator) retryDelay(err error) time.Duration {
	delay := g.baseDelay
	var transportErr *model.TransportError
	if errors.As(err, &transportErr) && transportErr.RetryAfter > delay {
		delay = transportErr.RetryAfter
	}
	if g.maxDelay > 0 && delay > g.maxDelay {
		delay = g.maxDelay
	}
	return delay
}

// isRetryable returns true only for the transient 503 condition.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are never retried.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var transportErr *model.TransportError
	return errors.As(err, &transportErr) && transportErr.Transient()
}
