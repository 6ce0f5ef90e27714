// Package opus implements the Opus/OGG encoder sink (spec §4.D): audio is
// resampled to the fixed internal rate (48 kHz, ≤2 channels) Opus
// requires, encoded 960 samples (20 ms) at a time via
// pkg/audio/codec/opus's libopus binding, and wrapped in an OGG stream via
// pkg/audio/codec/ogg's libogg binding: an OpusHead identification page, an
// OpusTags page, audio pages, then an end-of-stream page on close.
package opus

import (
	"encoding/binary"
	"os"

	"github.com/oakmix/audioengine/pkg/audio/apperr"
	"github.com/oakmix/audioengine/pkg/audio/codec/ogg"
	"github.com/oakmix/audioengine/pkg/audio/codec/opus"
	"github.com/oakmix/audioengine/pkg/audio/format"
	"github.com/oakmix/audioengine/pkg/audio/sink"
)

// internalSampleRate is Opus's fixed internal rate (spec §4.D).
const internalSampleRate = 48000

// frameSize is 20ms at 48kHz (spec §4.D).
const frameSize = 960

const preSkip = 3840 // standard encoder lookahead at 48kHz

// Config carries Opus-specific encoder settings.
type Config struct {
	sink.Config
	BitrateBps int // 0 selects libopus's default
}

type writer struct {
	file *os.File
	ogg  *ogg.Encoder
	enc  *opus.Encoder

	srcFormat    format.Format
	opusFormat   format.Format
	scratch      []byte
	pending      []byte // int16 PCM bytes, Opus's own format
	granulePos   int64
	packetNo     int64

	heldFrame []byte // most recently encoded frame, not yet written
	hasHeld   bool
}

// New opens path and returns a ready sink.Sink.
func New(path string, f format.Format, cfg Config) (sink.Sink, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	opusFormat := format.Format{
		Channels:     minInt(f.Channels, 2),
		SampleRate:   internalSampleRate,
		SampleLayout: format.Int16,
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	oggEnc, err := ogg.NewEncoder(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	enc, err := opus.NewAudioEncoder(internalSampleRate, opusFormat.Channels)
	if err != nil {
		file.Close()
		return nil, err
	}
	if cfg.BitrateBps > 0 {
		if err := enc.SetBitrate(cfg.BitrateBps); err != nil {
			enc.Close()
			file.Close()
			return nil, err
		}
	}

	w := &writer{
		file:       file,
		ogg:        oggEnc,
		enc:        enc,
		srcFormat:  f,
		opusFormat: opusFormat,
	}

	if err := w.writeHeaders(); err != nil {
		enc.Close()
		file.Close()
		return nil, &apperr.IOFailure{Sink: path, OSError: err}
	}

	return sink.NewAsyncPipeline(w, f, cfg.SkipSilence, sink.HoldoffSamples(cfg.SilenceHoldoffMs, f)), nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (w *writer) writeHeaders() error {
	head := make([]byte, 19)
	copy(head[0:8], "OpusHead")
	head[8] = 1 // version
	head[9] = byte(w.opusFormat.Channels)
	binary.LittleEndian.PutUint16(head[10:12], uint16(preSkip))
	binary.LittleEndian.PutUint32(head[12:16], uint32(w.srcFormat.SampleRate))
	binary.LittleEndian.PutUint16(head[16:18], 0) // output gain
	head[18] = 0                                  // channel mapping family

	if err := w.ogg.WritePacket(head, 0, true, false); err != nil {
		return err
	}
	w.packetNo++

	vendor := "audioengine"
	tags := make([]byte, 0, 8+4+len(vendor)+4)
	tags = append(tags, "OpusTags"...)
	tags = binary.LittleEndian.AppendUint32(tags, uint32(len(vendor)))
	tags = append(tags, vendor...)
	tags = binary.LittleEndian.AppendUint32(tags, 0) // 0 user comments

	if err := w.ogg.WritePacket(tags, 0, false, false); err != nil {
		return err
	}
	w.packetNo++
	return nil
}

// WriteChunk implements sink.Writer.
//
// A just-encoded frame is held rather than written immediately, so
// Finalize can flag whichever frame turns out to be last with the OGG
// end-of-stream bit instead of appending a synthetic silent frame just
// to carry it.
func (w *writer) WriteChunk(frame []byte) error {
	pcm := format.Convert(&w.scratch, frame, w.srcFormat, w.opusFormat)
	w.pending = append(w.pending, pcm...)

	frameBytes := frameSize * w.opusFormat.BlockAlign()
	for len(w.pending) >= frameBytes {
		opusFrame, err := w.enc.EncodeBytes(w.pending[:frameBytes], frameSize)
		if err != nil {
			return err
		}
		w.pending = w.pending[frameBytes:]

		if w.hasHeld {
			if err := w.writePacket(w.heldFrame, false); err != nil {
				return err
			}
		}
		w.heldFrame = opusFrame
		w.hasHeld = true
	}
	return nil
}

func (w *writer) writePacket(opusFrame []byte, eos bool) error {
	w.granulePos += frameSize
	w.packetNo++
	return w.ogg.WritePacket(opusFrame, w.granulePos, false, eos)
}

// Finalize implements sink.Writer: encode any trailing partial frame
// (padded with silence), flag the last packet end-of-stream, and close.
func (w *writer) Finalize() error {
	frameBytes := frameSize * w.opusFormat.BlockAlign()

	if len(w.pending) > 0 {
		padded := make([]byte, frameBytes)
		copy(padded, w.pending)
		w.pending = nil

		opusFrame, err := w.enc.EncodeBytes(padded, frameSize)
		if err != nil {
			return err
		}
		if w.hasHeld {
			if err := w.writePacket(w.heldFrame, false); err != nil {
				return err
			}
		}
		if err := w.writePacket(opusFrame, true); err != nil {
			return err
		}
	} else if w.hasHeld {
		if err := w.writePacket(w.heldFrame, true); err != nil {
			return err
		}
	}

	if err := w.ogg.Close(); err != nil {
		return err
	}
	w.enc.Close()
	return w.file.Close()
}
