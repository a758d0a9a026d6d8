// Package adapter holds what the tool adapters share: a bounded JSON fetch,
// the failure taxonomy and the progress callback.
package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rs/zerolog/log"
	"go-toolchat/pkg/logger"
	"go-toolchat/pkg/models"
)

type Kind string

const (
	KindNetwork    Kind = "network"
	KindStatus     Kind = "status"
	KindNotFound   Kind = "not_found"
	KindMalformed  Kind = "malformed"
	KindEmpty      Kind = "empty"
	KindValidation Kind = "validation"
)

// Error is a failed tool call. Message is safe to show to the user, Err is
// diagnostic detail that only goes to the log.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Fail(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Progress receives intermediate step descriptions while a tool runs.
type Progress func(step string)

// Step calls p when it is set.
func (p Progress) Step(step string) {
	if p != nil {
		p(step)
	}
}

// Result converts the outcome of a tool call into a ToolResult, logging the
// diagnostic part of any failure.
func Result(tool models.ToolName, res models.ToolResult, err error) models.ToolResult {
	if err == nil {
		return res
	}
	var e *Error
	if !errors.As(err, &e) {
		e = Fail(KindNetwork, "the service is unavailable right now", err)
	}
	log.Warn().Err(e.Err).Str(logger.ToolField, string(tool)).Str("kind", string(e.Kind)).Msg("tool call failed")
	return models.Failure(e.Message)
}

// NewHTTPClient returns a client whose every request is bounded by timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// Fetcher performs GET requests that decode a JSON body.
type Fetcher struct {
	Client    *http.Client
	UserAgent string
}

// StatusError carries the upstream status of a non 2xx response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return "unexpected status " + http.StatusText(e.Status)
}

// GetJSON fetches url and decodes the body into out. Transport failures and
// timeouts come back wrapped as they are, non 2xx statuses as *StatusError,
// undecodable bodies wrapped with goerr.
func (f *Fetcher) GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to create request", goerr.V("url", url))
	}
	req.Header.Set("Accept", "application/json")
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to send request", goerr.V("url", url))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return goerr.Wrap(&StatusError{Status: resp.StatusCode, Body: string(body)}, "upstream returned error",
			goerr.V("url", url),
			goerr.V("status", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerr.Wrap(&MalformedError{Err: err}, "failed to decode response", goerr.V("url", url))
	}
	return nil
}

// MalformedError marks a body that could not be decoded.
type MalformedError struct {
	Err error
}

func (e *MalformedError) Error() string {
	return "malformed response: " + e.Err.Error()
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// StatusOf returns the upstream status carried by err, or 0.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// Classify maps a GetJSON error to a failure with the given user message.
// Malformed bodies and 404s keep their own kinds.
func Classify(err error, msg string) *Error {
	var me *MalformedError
	switch {
	case errors.As(err, &me):
		return Fail(KindMalformed, msg, err)
	case StatusOf(err) == http.StatusNotFound:
		return Fail(KindNotFound, msg, err)
	case StatusOf(err) != 0:
		return Fail(KindStatus, msg, err)
	default:
		return Fail(KindNetwork, msg, err)
	}
}
