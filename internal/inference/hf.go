package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/pitchperfect/internal/model"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

// Options are the request-level switches sent alongside the parameters.
type Options struct {
	WaitForModel bool
	UseCache     *bool
}

// HFClient calls a text-generation endpoint with a bearer credential.
type HFClient struct {
	endpoint   string
	apiKey     string
	options    Options
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHFClient creates a client for endpoint. The timeout of httpClient bounds
// every call.
func NewHFClient(endpoint, apiKey string, httpClient *http.Client, logger *slog.Logger) *HFClient {
	return &HFClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// WithOptions sets the options sent with every request and returns c.
func (c *HFClient) WithOptions(opts Options) *HFClient {
	c.options = opts
	return c
}

// generateRequest mirrors the endpoint's request body.
type generateRequest struct {
	Inputs     string                 `json:"inputs"`
	Parameters model.GenerationParams `json:"parameters"`
	Options    *requestOptions        `json:"options,omitempty"`
}

type requestOptions struct {
	WaitForModel bool  `json:"wait_for_model,omitempty"`
	UseCache     *bool `json:"use_cache,omitempty"`
}

// generation is one element of the response. Error may be a string or a
// list of strings depending on the backend.
type generation struct {
	GeneratedText *string         `json:"generated_text"`
	Error         json.RawMessage `json:"error"`
	EstimatedTime float64         `json:"estimated_time"`
}

func (g generation) hasError() bool {
	return len(g.Error) > 0 && string(g.Error) != "null"
}

// Generate sends prompt with params and returns the generated text with any
// echoed prompt removed and stop sequences enforced.
func (c *HFClient) Generate(ctx context.Context, prompt string, params model.GenerationParams) (string, error) {
	reqBody := generateRequest{
		Inputs:     prompt,
		Parameters: params,
	}
	if c.options.WaitForModel || c.options.UseCache != nil {
		reqBody.Options = &requestOptions{
			WaitForModel: c.options.WaitForModel,
			UseCache:     c.options.UseCache,
		}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	c.logger.Debug("inference request", "endpoint", c.endpoint, "prompt_chars", len(prompt))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &model.TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &model.TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read inference response: %w", err)}
	}

	c.logger.Debug("inference response",
		"status", resp.StatusCode,
		"bytes", len(respBytes),
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", statusError(resp, respBytes)
	}

	text, err := decodeGeneration(resp.StatusCode, respBytes)
	if err != nil {
		return "", err
	}

	if params.ReturnFullText == nil || *params.ReturnFullText {
		text = strings.TrimPrefix(text, prompt)
	}
	return truncateAtStop(text, params.StopSequences), nil
}

// statusError classifies a non-2xx response. 503 is the model-loading
// condition and stays a TransportError even when it carries an error
// payload, so callers can retry it.
func statusError(resp *http.Response, body []byte) error {
	var payload generation
	hasPayload := json.Unmarshal(body, &payload) == nil && payload.hasError()

	if resp.StatusCode == http.StatusServiceUnavailable {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		if payload.EstimatedTime > 0 {
			retryAfter = time.Duration(payload.EstimatedTime * float64(time.Second))
		}
		msg := snippet(body)
		if hasPayload {
			msg = errorMessage(payload.Error)
		}
		return &model.TransportError{
			StatusCode: resp.StatusCode,
			RetryAfter: retryAfter,
			Message:    msg,
		}
	}

	if hasPayload {
		return &model.ServiceError{StatusCode: resp.StatusCode, Message: errorMessage(payload.Error)}
	}
	return &model.TransportError{StatusCode: resp.StatusCode, Message: snippet(body)}
}

// decodeGeneration normalizes the two success shapes, a list of generations
// or a single object, into one string.
func decodeGeneration(status int, body []byte) (string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", &model.MalformedResponseError{Err: errors.New("empty body")}
	}

	var gen generation
	switch trimmed[0] {
	case '[':
		var list []generation
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return "", &model.MalformedResponseError{Body: snippet(body), Err: err}
		}
		if len(list) == 0 {
			return "", &model.MalformedResponseError{Body: snippet(body), Err: errors.New("empty generation list")}
		}
		gen = list[0]
	case '{':
		if err := json.Unmarshal(trimmed, &gen); err != nil {
			return "", &model.MalformedResponseError{Body: snippet(body), Err: err}
		}
	default:
		return "", &model.MalformedResponseError{Body: snippet(body), Err: errors.New("body is not a JSON object or array")}
	}

	if gen.hasError() {
		return "", &model.ServiceError{StatusCode: status, Message: errorMessage(gen.Error)}
	}
	if gen.GeneratedText == nil {
		return "", &model.MalformedResponseError{Body: snippet(body), Err: errors.New("missing generated_text")}
	}
	return *gen.GeneratedText, nil
}

// errorMessage renders an error payload as text. A string is returned as
// is; a list of strings is joined; anything else is returned raw.
func errorMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	return string(raw)
}

func truncateAtStop(text string, stops []string) string {
	cut := len(text)
	for _, stop := range stops {
		if stop == "" {
			continue
		}
		if i := strings.Index(text, stop); i >= 0 && i < cut {
			cut = i
		}
	}
	return text[:cut]
}

// parseRetryAfter parses a Retry-After header given in seconds. Returns zero
// if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func snippet(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
