package seeds

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoSources is returned when the coordinator has an empty seed list; the
// caller distinguishes this from "every seed failed".
var ErrNoSources = errors.New("no seed sources configured")

// SourceError is a single seed's failure: network error, timeout, non-2xx
// status, malformed JSON, or an RPC-level error in the response body.
type SourceError struct {
	Source string
	Cause  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("seed %s: %v", e.Source, e.Cause)
}

func (e *SourceError) Unwrap() error {
	return e.Cause
}

// ExhaustedError aggregates the per-seed failures of one poll cycle in which
// no seed produced a usable payload. Terminal for that cycle.
type ExhaustedError struct {
	Errors []*SourceError
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, se := range e.Errors {
		parts = append(parts, se.Error())
	}
	return fmt.Sprintf("all %d seed sources failed: %s", len(e.Errors), strings.Join(parts, "; "))
}

// Causes returns one human-readable line per failed seed, for structured
// error bodies.
func (e *ExhaustedError) Causes() []string {
	causes := make([]string, 0, len(e.Errors))
	for _, se := range e.Errors {
		causes = append(causes, se.Error())
	}
	return causes
}
