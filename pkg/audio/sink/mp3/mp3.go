// Package mp3 implements the MP3 encoder sink (spec §4.D): frames are
// converted to interleaved int16 PCM and handed to
// pkg/audio/codec/mp3's LAME binding 1152 samples at a time, the
// frame size LAME's encode_buffer_interleaved call expects internally.
package mp3

import (
	"os"

	"github.com/oakmix/audioengine/pkg/audio/apperr"
	"github.com/oakmix/audioengine/pkg/audio/codec/mp3"
	"github.com/oakmix/audioengine/pkg/audio/format"
	"github.com/oakmix/audioengine/pkg/audio/sink"
)

// samplesPerFrame is the MP3 frame size in samples per channel (spec
// §4.D).
const samplesPerFrame = 1152

// Config carries MP3-specific encoder settings alongside the common
// sink.Config fields.
type Config struct {
	sink.Config
	BitrateKbps int // 0 selects LAME's default VBR quality
}

type writer struct {
	file   *os.File
	enc    *mp3.Encoder
	format format.Format

	pcmFormat format.Format // int16 target the encoder consumes
	scratch   []byte

	// frameBuf accumulates converted int16 bytes until a full
	// samplesPerFrame worth is available, matching LAME's expected
	// call granularity.
	frameBuf    []byte
	frameBytes  int
}

// New opens path and returns a ready sink.Sink.
func New(path string, f format.Format, cfg Config) (sink.Sink, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if f.Channels != 1 && f.Channels != 2 {
		return nil, &apperr.ConfigRejected{Field: "channels", Reason: "mp3 supports only mono or stereo"}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	opts := []mp3.EncoderOption{}
	if cfg.BitrateKbps > 0 {
		opts = append(opts, mp3.WithBitrate(cfg.BitrateKbps))
	}
	enc, err := mp3.NewEncoder(file, int(f.SampleRate), f.Channels, opts...)
	if err != nil {
		file.Close()
		return nil, err
	}

	pcmFormat := format.Format{
		Channels:     f.Channels,
		SampleRate:   f.SampleRate,
		SampleLayout: format.Int16,
	}

	w := &writer{
		file:       file,
		enc:        enc,
		format:     f,
		pcmFormat:  pcmFormat,
		frameBytes: samplesPerFrame * pcmFormat.BlockAlign(),
	}

	return sink.NewAsyncPipeline(w, f, cfg.SkipSilence, sink.HoldoffSamples(cfg.SilenceHoldoffMs, f)), nil
}

// WriteChunk implements sink.Writer.
func (w *writer) WriteChunk(frame []byte) error {
	pcm := format.Convert(&w.scratch, frame, w.format, w.pcmFormat)
	w.frameBuf = append(w.frameBuf, pcm...)

	for len(w.frameBuf) >= w.frameBytes {
		if _, err := w.enc.Write(w.frameBuf[:w.frameBytes]); err != nil {
			return err
		}
		w.frameBuf = w.frameBuf[w.frameBytes:]
	}
	return nil
}

// Finalize implements sink.Writer: flush any partial frame, finalize the
// LAME stream and close the file.
func (w *writer) Finalize() error {
	if len(w.frameBuf) > 0 {
		if _, err := w.enc.Write(w.frameBuf); err != nil {
			return err
		}
		w.frameBuf = nil
	}
	if err := w.enc.Flush(); err != nil {
		return err
	}
	if err := w.enc.Close(); err != nil {
		return err
	}
	return w.file.Close()
}
