// Package newsroomerr collects the sentinel and typed error values for the
// error-kind table in spec.md §7, so each subsystem can recognize and
// recover from the others' failures without importing them directly.
package newsroomerr

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per recovered-at boundary in the error-kind table.
var (
	ErrNoReportersForBeat     = errors.New("newsroom: no reporters available for beat")
	ErrReporterCoverFailed    = errors.New("newsroom: reporter declined to cover story")
	ErrMissingRequiredField   = errors.New("newsroom: missing required reporter field")
	ErrStoryIdentityCollision = errors.New("newsroom: story identity collision")
	ErrSettingsParse          = errors.New("newsroom: settings parse failure")

	// ErrMismatchedStory is a contract violation: Chyron.FileHeadline called
	// with a headline whose story identity doesn't match the Chyron's own.
	ErrMismatchedStory = errors.New("newsroom: headline story identity mismatch")
)

// NetworkError wraps a transport failure observed by a SharedPoller; it
// carries enough context to render a user-visible headline per spec.md §7.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("newsroom: network error polling %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTML renders the network error as a small HTML fragment, matching the
// original behavior of surfacing poll failures as headline payloads.
func (e *NetworkError) HTML() string {
	return fmt.Sprintf("<b>Polling error</b> (%s): %s", e.Endpoint, e.Err.Error())
}
