package domain

import "errors"

var (
	// ErrUpstreamUnavailable wraps network failures, timeouts, open circuit
	// breakers and non-2xx responses from a source.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrParse wraps malformed or unexpected upstream payloads.
	ErrParse = errors.New("parse failure")
)
