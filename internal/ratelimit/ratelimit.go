package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/pitchperfect/internal/model"
)

// Limiter hands out call slots at least interval apart per key. Waiters are
// served in the order they arrive.
type Limiter struct {
	mu       sync.Mutex
	next     map[string]time.Time // key: endpoint URL
	interval time.Duration
}

// NewLimiter creates a limiter with the given spacing between calls.
func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{
		next:     make(map[string]time.Time),
		interval: interval,
	}
}

// Wait blocks until the caller's slot for key comes up. The slot stays
// reserved even if ctx is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	l.mu.Lock()
	now := time.Now()
	slot := l.next[key]
	if slot.Before(now) {
		slot = now
	}
	l.next[key] = slot.Add(l.interval)
	l.mu.Unlock()

	wait := slot.Sub(now)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", key, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// RateLimitedGenerator waits for a slot before delegating to the wrapped
// Generator. Generators that share an endpoint should share a Limiter.
type RateLimitedGenerator struct {
	inner   model.Generator
	limiter *Limiter
	key     string
}

// NewRateLimitedGenerator wraps inner with per-endpoint throttling.
func NewRateLimitedGenerator(inner model.Generator, limiter *Limiter, key string) *RateLimitedGenerator {
	return &RateLimitedGenerator{
		inner:   inner,
		limiter: limiter,
		key:     key,
	}
}

// Generate waits for the limiter, then calls the wrapped generator.
func (g *RateLimitedGenerator) Generate(ctx context.Context, prompt string, params model.GenerationParams) (string, error) {
	if err := g.limiter.Wait(ctx, g.key); err != nil {
		return "", err
	}
	return g.inner.Generate(ctx, prompt, params)
}
