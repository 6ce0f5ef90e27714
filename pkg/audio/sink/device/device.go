// Package device implements the live-monitor device sink (spec §4.E): a
// render endpoint opened with a ~100ms buffer, pre-filled half full with
// silence before playback starts, that drops excess frames rather than
// blocking when the buffer can't absorb a submission, and applies the
// configured volume in place with clipping.
package device

import (
	"time"

	"github.com/oakmix/audioengine/pkg/audio/format"
	"github.com/oakmix/audioengine/pkg/audio/portaudio"
	"github.com/oakmix/audioengine/pkg/audio/sink"
)

// bufferDuration sizes the render endpoint's shared-mode buffer (spec
// §4.E: "≈100 ms").
const bufferDuration = 100 * time.Millisecond

// Config carries device-sink-specific settings alongside the common
// sink.Config fields.
type Config struct {
	sink.Config
	DeviceID string // empty selects the host default render device
}

type writer struct {
	stream *portaudio.OutputStream
	format format.Format
	gain   format.AtomicGain
}

// New opens deviceID (or the host default if empty) for playback and
// returns a ready sink.Sink.
func New(deviceID string, f format.Format, cfg Config) (sink.Sink, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	deviceIndex := portaudio.DefaultDevice
	if deviceID != "" {
		devices, err := portaudio.Devices()
		if err != nil {
			return nil, err
		}
		for _, d := range devices {
			if d.Name == deviceID {
				deviceIndex = d.Index
				break
			}
		}
	}

	stream, err := portaudio.NewOutputStream(deviceIndex, f, bufferDuration)
	if err != nil {
		return nil, err
	}

	w := &writer{stream: stream, format: f}
	w.gain.Store(cfg.Volume)

	if err := w.prefillSilence(); err != nil {
		stream.Close()
		return nil, err
	}

	return sink.NewAsyncPipeline(w, f, cfg.SkipSilence, sink.HoldoffSamples(cfg.SilenceHoldoffMs, f)), nil
}

// prefillSilence writes half a buffer's worth of silence before real
// playback starts, reducing underrun risk while bounding added latency
// (spec §4.E).
func (w *writer) prefillSilence() error {
	half := make([]byte, w.format.BytesForFrames(w.stream.FramesPerBuffer()/2))
	_, err := w.stream.WriteFrame(half)
	return err
}

// SetVolume updates the in-place gain applied to outgoing frames.
func (w *writer) SetVolume(g float32) { w.gain.Store(g) }

// WriteChunk implements sink.Writer: drop-excess-on-overflow, apply
// volume in place with clipping.
func (w *writer) WriteChunk(frame []byte) error {
	available, err := w.stream.WriteAvailable()
	if err != nil {
		return err
	}

	requested := w.format.Frames(len(frame))
	n := requested
	if available < n {
		n = available
	}
	if n <= 0 {
		return nil
	}

	out := frame[:w.format.BytesForFrames(n)]
	format.ApplyGain(out, w.format, w.gain.Load())

	_, err = w.stream.WriteFrame(out)
	return err
}

// Finalize implements sink.Writer: closing the stream stops the client
// and releases the render buffer.
func (w *writer) Finalize() error {
	return w.stream.Close()
}
