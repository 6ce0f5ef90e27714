// Package source wraps a capture.Client with the identity and lifecycle
// surface the router consumes (spec §4.C): a stable SourceId, a display
// name, a category tag, and a pause gate. It never touches destinations —
// that belongs to pkg/audio/router.
package source
