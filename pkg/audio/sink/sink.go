package sink

import "github.com/oakmix/audioengine/pkg/audio/format"

// Sink is the contract every concrete encoder/device output implements
// (spec §4.D). Submit is non-blocking and always succeeds from the
// caller's point of view — a paused or closed sink simply drops the
// frame.
type Sink interface {
	// Submit copies frame into an owned chunk and enqueues it for the
	// writer goroutine. Non-blocking.
	Submit(frame []byte)

	// Close stops accepting frames, drains the queue, finalizes the
	// output and releases resources. Idempotent.
	Close() error

	// IsOpen reports whether the sink still accepts frames.
	IsOpen() bool

	// LastError returns the most recent write error observed by the
	// writer goroutine, or nil.
	LastError() error
}

// Writer is the format-specific half a concrete sink package supplies to
// an AsyncPipeline: turning drained chunks into bytes on disk/wire and
// producing a final footer/trailer on close.
type Writer interface {
	// WriteChunk is invoked by the pipeline's writer goroutine, never
	// concurrently, never under any pipeline lock.
	WriteChunk(frame []byte) error

	// Finalize is invoked exactly once after the queue has fully drained
	// following Close.
	Finalize() error
}

// Config is the common per-destination configuration every sink kind
// accepts (spec §3's destination config surface), layered with
// kind-specific fields by each concrete sink package.
type Config struct {
	Path             string
	AddTimestamp     bool
	Volume           float32
	SkipSilence      bool
	SilenceHoldoffMs int
}

// Format re-exports format.Format so sink subpackages depend on this
// package for their whole public surface.
type Format = format.Format

// HoldoffSamples converts a config's millisecond silence holdoff to the
// sample count AsyncPipeline gates on, at f's sample rate.
func HoldoffSamples(holdoffMs int, f Format) int {
	return holdoffMs * f.SampleRate / 1000
}
