// Package router implements the session/router — the admission and
// dispatch authority of spec §4.H: one Session aggregates a set of
// sources, an ordered list of destinations, a list of routing rules, and
// an optional mixer with its mixed-output destination.
//
// The critical deadlock rule, grounded on
// original_source/src/CaptureManager.cpp's mutex scope (confirmed by grep:
// the mutex guards only endpoint activation, never the blocking
// stop/join that follows): stopSession extracts owned handles under the
// session lock, releases it, then stops sources and closes destinations —
// a source's capture callback re-enters the session lock, so stopping a
// source while holding that lock would deadlock against its own callback.
package router
