// Package apperr defines the error kinds the pipeline reports to its callers.
// Every failure is wrapped around exactly one sentinel so the boundary layer
// can map it to a transport status with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIdentifier marks a supplied id that fails required shape,
	// e.g. a non-numeric episode id.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrInvalidParameter marks an enum-like parameter outside its allowed
	// set. Messages enumerate the allowed values.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNotFound marks a well-formed identifier that does not resolve to an
	// upstream resource.
	ErrNotFound = errors.New("not found")

	// ErrParse marks upstream markup that no longer matches the expected
	// structure. Distinct from ErrNotFound: it signals layout drift that
	// needs maintenance, not a missing resource.
	ErrParse = errors.New("parse error")

	// ErrUpstreamUnavailable marks a network, timeout, or non-2xx failure
	// reaching the upstream site.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrExtraction marks an embed page that was reachable but whose payload
	// could not be decoded into any playable stream.
	ErrExtraction = errors.New("extraction failed")
)

// InvalidIdentifierf wraps ErrInvalidIdentifier with a formatted message.
func InvalidIdentifierf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrInvalidIdentifier, args)...)
}

// InvalidParameterf wraps ErrInvalidParameter with a formatted message.
// The message should name the offending value and the allowed set.
func InvalidParameterf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrInvalidParameter, args)...)
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrNotFound, args)...)
}

// Parsef wraps ErrParse with a formatted message naming the missing anchor.
func Parsef(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrParse, args)...)
}

// Upstreamf wraps ErrUpstreamUnavailable, carrying the underlying cause text.
func Upstreamf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrUpstreamUnavailable, args)...)
}

// Extractionf wraps ErrExtraction with backend and stage context.
func Extractionf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, prepend(ErrExtraction, args)...)
}

func prepend(err error, args []any) []any {
	return append([]any{err}, args...)
}

// Kind returns the sentinel an error wraps, or nil for errors outside the
// taxonomy.
func Kind(err error) error {
	for _, sentinel := range []error{
		ErrInvalidIdentifier,
		ErrInvalidParameter,
		ErrNotFound,
		ErrParse,
		ErrUpstreamUnavailable,
		ErrExtraction,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}
