package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amishk599/pitchperfect/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockGenerator calls a function on each invocation, tracking call count.
type mockGenerator struct {
	calls int
	fn    func(attempt int) (string, error)
}

func (m *mockGenerator) Generate(_ context.Context, _ string, _ model.GenerationParams) (string, error) {
	m.calls++
	return m.fn(m.calls)
}

func loading(retryAfter time.Duration) error {
	return &model.TransportError{StatusCode: 503, RetryAfter: retryAfter, Message: "Model is currently loading"}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	mock := &mockGenerator{fn: func(_ int) (string, error) {
		return "Dear client", nil
	}}

	rg := NewRetryGenerator(mock, 1, 10*time.Millisecond, time.Second, discardLogger())
	got, err := rg.Generate(context.Background(), "prompt", model.GenerationParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Dear client" {
		t.Fatalf("got %q", got)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_503ThenSuccess(t *testing.T) {
	mock := &mockGenerator{fn: func(attempt int) (string, error) {
		if attempt == 1 {
			return "", loading(0)
		}
		return "Dear client, here is my proposal.", nil
	}}

	rg := NewRetryGenerator(mock, 1, 10*time.Millisecond, time.Second, discardLogger())
	got, err := rg.Generate(context.Background(), "prompt", model.GenerationParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Dear client, here is my proposal." {
		t.Fatalf("got %q", got)
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_RetriesOnlyOnce(t *testing.T) {
	mock := &mockGenerator{fn: func(_ int) (string, error) {
		return "", loading(0)
	}}

	rg := NewRetryGenerator(mock, 1, time.Millisecond, time.Second, discardLogger())
	_, err := rg.Generate(context.Background(), "prompt", model.GenerationParams{})
	var transportErr *model.TransportError
	if !errors.As(err, &transportErr) || transportErr.StatusCode != 503 {
		t.Fatalf("expected 503 TransportError, got %v", err)
	}
	// 1 initial + 1 retry
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryOtherErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"service error", &model.ServiceError{StatusCode: 429, Message: "rate limited"}},
		{"500", &model.TransportError{StatusCode: 500, Message: "boom"}},
		{"network", &model.TransportError{Err: errors.New("connection refused")}},
		{"malformed", &model.MalformedResponseError{Err: errors.New("not json")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockGenerator{fn: func(_ int) (string, error) {
				return "", tt.err
			}}

			rg := NewRetryGenerator(mock, 1, time.Millisecond, time.Second, discardLogger())
			_, err := rg.Generate(context.Background(), "prompt", model.GenerationParams{})
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
			if mock.calls != 1 {
				t.Fatalf("expected 1 call (no retry), got %d", mock.calls)
			}
		})
	}
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	mock := &mockGenerator{fn: func(_ int) (string, error) {
		return "", loading(0)
	}}

	ctx, cancel := context.WithCancel(context.Background())
	// Cancel immediately so the backoff sleep is interrupted.
	cancel()

	rg := NewRetryGenerator(mock, 1, time.Second, 2*time.Second, discardLogger())
	_, err := rg.Generate(ctx, "prompt", model.GenerationParams{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", mock.calls)
	}
}

func TestRetryDelay(t *testing.T) {
	rg := NewRetryGenerator(nil, 1, 10*time.Second, 30*time.Second, discardLogger())

	tests := []struct {
		name string
		err  error
		want time.Duration
	}{
		{"no hint uses base", loading(0), 10 * time.Second},
		{"short hint uses base", loading(2 * time.Second), 10 * time.Second},
		{"longer hint wins", loading(20 * time.Second), 20 * time.Second},
		{"capped at max", loading(90 * time.Second), 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rg.retryDelay(tt.err); got != tt.want {
				t.Errorf("retryDelay = %v, want %v", got, tt.want)
			}
		})
	}
}
