package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrEmptyJobDescription is returned when neither pasted text nor an
// uploaded document produced any job description.
var ErrEmptyJobDescription = errors.New("empty job description")

// ErrDocumentTooLarge is returned when an upload exceeds the configured
// size limit.
var ErrDocumentTooLarge = errors.New("document exceeds size limit")

// ErrInvalidInput is wrapped around validation failures of request fields.
var ErrInvalidInput = errors.New("invalid input")

// UnsupportedFormatError reports a format tag the extractor cannot handle.
type UnsupportedFormatError struct {
	Format Format
}

func (e *UnsupportedFormatError) Error() string {
	if e.Format == "" {
		return "unsupported document format"
	}
	return fmt.Sprintf("unsupported document format %q", e.Format)
}

// CorruptDocumentError reports a byte stream the parser for Format could
// not decode.
type CorruptDocumentError struct {
	Format Format
	Err    error
}

func (e *CorruptDocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt %s document: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("corrupt %s document", e.Format)
}

func (e *CorruptDocumentError) Unwrap() error {
	return e.Err
}

// TransportError wraps a network failure or an unexpected HTTP status from
// the inference endpoint. StatusCode is zero when no response arrived.
type TransportError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After or estimated_time, zero if absent
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("inference transport: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("inference HTTP %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("inference HTTP %d", e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Transient reports whether the failure is the "model loading" condition
// that is expected to clear after a short wait.
func (e *TransportError) Transient() bool {
	return e.StatusCode == http.StatusServiceUnavailable
}

// MalformedResponseError reports a response body that is not JSON or lacks
// the generated_text field.
type MalformedResponseError struct {
	Body string // truncated
	Err  error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed inference response: %v", e.Err)
	}
	return "malformed inference response"
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// ServiceError carries an explicit error payload from the inference
// service. Message is the service's text, unmodified.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("inference service error: %s", e.Message)
}

// ErrorKind names the class of err for API responses and logs.
func ErrorKind(err error) string {
	var (
		unsupported *UnsupportedFormatError
		corrupt     *CorruptDocumentError
		transport   *TransportError
		malformed   *MalformedResponseError
		service     *ServiceError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, ErrEmptyJobDescription):
		return "empty_input"
	case errors.Is(err, ErrDocumentTooLarge):
		return "too_large"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.As(err, &unsupported):
		return "unsupported_format"
	case errors.As(err, &corrupt):
		return "corrupt_document"
	case errors.As(err, &service):
		return "service_error"
	case errors.As(err, &malformed):
		return "malformed_response"
	case errors.As(err, &transport):
		return "transport_error"
	default:
		return "internal"
	}
}

// UserMessage turns err into a message that tells the user what failed and
// what to try next.
func UserMessage(err error) string {
	var (
		unsupported *UnsupportedFormatError
		corrupt     *CorruptDocumentError
		transport   *TransportError
		service     *ServiceError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "Generation was cancelled before a proposal was produced."
	case errors.Is(err, ErrEmptyJobDescription):
		return "Please provide a job description."
	case errors.Is(err, ErrDocumentTooLarge):
		return "The document is too large. Upload a smaller file or paste the text instead."
	case errors.Is(err, ErrInvalidInput):
		if _, detail, ok := strings.Cut(err.Error(), ErrInvalidInput.Error()+": "); ok {
			return "Some fields are invalid: " + detail
		}
		return "Some fields are invalid."
	case errors.As(err, &unsupported):
		return "This file type is not supported. Upload a PDF, DOCX or TXT file."
	case errors.As(err, &corrupt):
		return "The document could not be parsed. Check the file or paste the text instead."
	case errors.As(err, &service):
		return "The generation service returned an error: " + service.Message
	case errors.As(err, &transport):
		if transport.StatusCode == 0 {
			return "The generation service could not be reached. Try again in a moment."
		}
		if transport.Transient() {
			return "The model is still loading. Try again in a minute."
		}
		return fmt.Sprintf("The generation service failed with HTTP %d. Try again later.", transport.StatusCode)
	default:
		var malformed *MalformedResponseError
		if errors.As(err, &malformed) {
			return "The generation service returned an unexpected response. Try again."
		}
		return "Something went wrong while generating the proposal."
	}
}
