// Package flac implements the FLAC encoder sink (spec §4.D): 1024-sample
// blocks, internal resolution capped at 24 bits. Float input in [-1, 1] is
// mapped to 24-bit signed by round(x * (2^23 - 1)); integer input of any
// other width is rescaled to 24 bits. Samples are handed interleaved to
// pkg/audio/codec/flac, which deinterleaves internally.
package flac

import (
	"math"

	"github.com/oakmix/audioengine/pkg/audio/codec/flac"
	"github.com/oakmix/audioengine/pkg/audio/format"
	"github.com/oakmix/audioengine/pkg/audio/sink"
)

// blockSize is the FLAC block size in samples per channel (spec §4.D).
const blockSize = 1024

const internalBitDepth = flac.BitDepth24

// Config carries FLAC-specific encoder settings.
type Config struct {
	sink.Config
	CompressionLevel int // 0-8, 0 selects libFLAC's default of 5
}

type writer struct {
	enc    *flac.Encoder
	format format.Format

	// pending holds accumulated int32 samples (right-justified to 24
	// bits), interleaved, awaiting a full blockSize-sample block.
	pending []int32
}

// New opens path and returns a ready sink.Sink.
func New(path string, f format.Format, cfg Config) (sink.Sink, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	enc, err := flac.NewEncoder(int(f.SampleRate), f.Channels, internalBitDepth)
	if err != nil {
		return nil, err
	}
	if cfg.CompressionLevel > 0 {
		if err := enc.SetCompressionLevel(cfg.CompressionLevel); err != nil {
			enc.Close()
			return nil, err
		}
	}
	if err := enc.InitFile(path); err != nil {
		enc.Close()
		return nil, err
	}

	w := &writer{enc: enc, format: f}
	return sink.NewAsyncPipeline(w, f, cfg.SkipSilence, sink.HoldoffSamples(cfg.SilenceHoldoffMs, f)), nil
}

// to24Bit converts one raw frame buffer to interleaved int32 samples
// right-justified to 24 bits, per spec §4.D's float/integer mapping rule.
func (w *writer) to24Bit(frame []byte) []int32 {
	n := w.format.Channels * w.format.Frames(len(frame))
	out := make([]int32, n)

	blockAlign := w.format.BlockAlign()
	bytesPerSample := w.format.SampleLayout.BytesPerSample()
	frames := len(frame) / blockAlign

	for fr := 0; fr < frames; fr++ {
		for ch := 0; ch < w.format.Channels; ch++ {
			off := fr*blockAlign + ch*bytesPerSample
			out[fr*w.format.Channels+ch] = sampleTo24Bit(frame[off:off+bytesPerSample], w.format.SampleLayout)
		}
	}
	return out
}

func sampleTo24Bit(b []byte, layout format.Layout) int32 {
	switch layout {
	case format.Float32:
		bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
		f := math.Float32frombits(bits)
		if f > 1 {
			f = 1
		} else if f < -1 {
			f = -1
		}
		return int32(math.Round(float64(f) * 8388607))
	case format.Int16:
		v := int16(uint16(b[0]) | uint16(b[1])<<8)
		return int32(v) << 8 // 16-bit -> 24-bit
	case format.Int24:
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if v&0x800000 != 0 {
			v |= ^0xFFFFFF
		}
		return v
	case format.Int32:
		v := int32(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
		return v >> 8 // 32-bit -> 24-bit
	default:
		return 0
	}
}

// WriteChunk implements sink.Writer.
func (w *writer) WriteChunk(frame []byte) error {
	w.pending = append(w.pending, w.to24Bit(frame)...)

	blockSamples := blockSize * w.format.Channels
	for len(w.pending) >= blockSamples {
		if err := w.enc.ProcessInterleaved(w.pending[:blockSamples], blockSize); err != nil {
			return err
		}
		w.pending = w.pending[blockSamples:]
	}
	return nil
}

// Finalize implements sink.Writer: process the final partial block, then
// finalize and close the encoder.
func (w *writer) Finalize() error {
	if len(w.pending) > 0 {
		remaining := len(w.pending) / w.format.Channels
		if err := w.enc.ProcessInterleaved(w.pending, remaining); err != nil {
			return err
		}
		w.pending = nil
	}
	if err := w.enc.Finish(); err != nil {
		return err
	}
	w.enc.Close()
	return nil
}
