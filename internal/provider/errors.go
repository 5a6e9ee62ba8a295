package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

var (
	// ErrAllProvidersFailed is matched by the error Chain.Run returns when
	// every provider exhausted its retries.
	ErrAllProvidersFailed = errors.New("all providers failed")

	// ErrMissingCredential is returned by a provider client that has no API
	// key configured. The chain treats it as a permanent misconfiguration.
	ErrMissingCredential = errors.New("missing provider credential")

	// ErrEmptyOutput is returned when a provider answered successfully but
	// produced nothing usable.
	ErrEmptyOutput = errors.New("provider returned empty output")
)

// Kind classifies a provider failure.
type Kind int

const (
	KindTransient Kind = iota
	KindMisconfigured
	KindPermanent
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindMisconfigured:
		return "misconfigured"
	case KindPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// StatusError is a non-2xx response from a provider's HTTP API.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, body)
}

// Error is a provider failure normalized into the taxonomy.
type Error struct {
	Provider   string
	Kind       Kind
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Provider, e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Retryable reports whether another attempt against the same provider may succeed.
func (e *Error) Retryable() bool { return e.Kind == KindTransient }

// Normalize translates a provider-specific failure into an *Error. It is
// applied once at the provider boundary so the chain only sees the taxonomy.
func Normalize(providerName string, err error) *Error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) {
		return already
	}
	ne := &Error{Provider: providerName, Kind: Classify(err), Cause: err}
	var se *StatusError
	if errors.As(err, &se) {
		ne.StatusCode = se.StatusCode
	}
	return ne
}

// Classify maps an arbitrary error onto a failure Kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindTransient
	case errors.Is(err, ErrMissingCredential):
		return KindMisconfigured
	case errors.Is(err, ErrEmptyOutput):
		return KindPermanent
	case errors.Is(err, context.Canceled):
		return KindPermanent
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusRequestTimeout,
			se.StatusCode == http.StatusTooManyRequests,
			se.StatusCode >= http.StatusInternalServerError:
			return KindTransient
		case se.StatusCode == http.StatusUnauthorized, se.StatusCode == http.StatusForbidden:
			return KindMisconfigured
		default:
			return KindPermanent
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return KindPermanent
	}
	return KindTransient
}

// DecodeError wraps a failure to parse a provider response body.
type DecodeError struct {
	Provider string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode response: %v", e.Provider, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ExhaustedError is returned when every provider in a chain failed.
type ExhaustedError struct {
	Operation string
	Failures  []*Error
}

func (e *ExhaustedError) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("%s: no providers configured: %v", e.Operation, ErrAllProvidersFailed)
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("%s: %v: %s", e.Operation, ErrAllProvidersFailed, strings.Join(parts, "; "))
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrAllProvidersFailed
}

// Last returns the final provider failure, or nil if no provider was tried.
func (e *ExhaustedError) Last() *Error {
	if len(e.Failures) == 0 {
		return nil
	}
	return e.Failures[len(e.Failures)-1]
}
