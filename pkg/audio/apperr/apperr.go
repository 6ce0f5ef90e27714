// Package apperr defines the engine-wide error taxonomy from spec §7:
// ConfigRejected, Unavailable, IOFailure, StreamFault and Internal. Every
// component that can fail synchronously or asynchronously returns or
// records one of these, so callers can dispatch with errors.As regardless
// of which component raised it.
package apperr

import (
	"errors"
	"fmt"
)

// ConfigRejected is returned synchronously from start/add operations when a
// configuration value is invalid. Never retried.
type ConfigRejected struct {
	Field  string
	Reason string
}

func (e *ConfigRejected) Error() string {
	return fmt.Sprintf("config rejected: %s: %s", e.Field, e.Reason)
}

// Unavailable reports that a device or process could not be opened.
type Unavailable struct {
	Resource string
	Cause    error
}

func (e *Unavailable) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unavailable: %s: %v", e.Resource, e.Cause)
	}
	return fmt.Sprintf("unavailable: %s", e.Resource)
}

func (e *Unavailable) Unwrap() error { return e.Cause }

// IOFailure occurs during a run; policy (spec §4.H): close the offending
// sink, continue the session, record last-error on the session.
type IOFailure struct {
	Sink    string
	OSError error
}

func (e *IOFailure) Error() string {
	return fmt.Sprintf("io failure: sink %s: %v", e.Sink, e.OSError)
}

func (e *IOFailure) Unwrap() error { return e.OSError }

// StreamFault is fatal for the source that raised it; policy: stop the
// session.
type StreamFault struct {
	Source string
	Cause  error
}

func (e *StreamFault) Error() string {
	return fmt.Sprintf("stream fault: source %s: %v", e.Source, e.Cause)
}

func (e *StreamFault) Unwrap() error { return e.Cause }

// Internal marks a broken invariant — a programmer error. Abort is
// acceptable.
type Internal struct {
	Invariant string
}

func (e *Internal) Error() string {
	return fmt.Sprintf("internal: invariant violated: %s", e.Invariant)
}

// StartFailed wraps the cause of a failed startSession, after rollback has
// already run (spec §4.H).
type StartFailed struct {
	Cause error
}

func (e *StartFailed) Error() string {
	return fmt.Sprintf("start failed: %v", e.Cause)
}

func (e *StartFailed) Unwrap() error { return e.Cause }

// ExitCode maps an error returned by a driver program to spec §6's exit
// code table. Errors not matching any known kind map to 5 (unexpected
// internal fault); nil maps to 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var cfg *ConfigRejected
	var unavail *Unavailable
	var ioErr *IOFailure
	switch {
	case errors.As(err, &cfg):
		return 2
	case errors.As(err, &unavail):
		return 3
	case errors.As(err, &ioErr):
		return 4
	default:
		return 5
	}
}
