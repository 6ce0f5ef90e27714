package netsink

import (
	"math/rand/v2"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"

	"github.com/oakmix/audioengine/pkg/audio/codec/opus"
	"github.com/oakmix/audioengine/pkg/audio/format"
	"github.com/oakmix/audioengine/pkg/audio/sink"
)

// internalSampleRate and frameSize mirror pkg/audio/sink/opus exactly:
// Opus's fixed internal rate and its 20ms frame size. opusPayloadType and
// the RTP timestamp clock follow RFC 7587: Opus always runs its RTP clock
// at 48kHz regardless of the encoder's actual channel count.
const (
	internalSampleRate = 48000
	frameSize          = 960
	opusPayloadType    = 111
)

// Config carries the relay's Opus encoder settings.
type Config struct {
	sink.Config
	BitrateBps int // 0 selects libopus's default
}

// writer encodes PCM to Opus and writes each frame as a raw RTP packet to
// a local WebRTC track, following the teacher's own WebRTCBridge.SendAudio
// pattern (cmd/giztoy/commands/gear/webrtc.go): manual rtp.Packet
// construction over TrackLocalStaticRTP rather than the
// TrackLocalStaticSample convenience wrapper, so sequence number and RTP
// timestamp are explicit.
type writer struct {
	track *webrtc.TrackLocalStaticRTP
	enc   *opus.Encoder
	ssrc  uint32

	srcFormat  format.Format
	opusFormat format.Format
	scratch    []byte
	pending    []byte
	seq        uint16
	timestamp  uint32
}

// New returns a sink.Sink that relays f-formatted frames as Opus RTP
// packets over track. track should already be registered with a peer
// connection via AddTrack.
func New(track *webrtc.TrackLocalStaticRTP, f format.Format, cfg Config) (sink.Sink, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	opusFormat := format.Format{
		Channels:     minInt(f.Channels, 2),
		SampleRate:   internalSampleRate,
		SampleLayout: format.Int16,
	}

	enc, err := opus.NewVoIPEncoder(internalSampleRate, opusFormat.Channels)
	if err != nil {
		return nil, err
	}
	if cfg.BitrateBps > 0 {
		if err := enc.SetBitrate(cfg.BitrateBps); err != nil {
			enc.Close()
			return nil, err
		}
	}

	w := &writer{
		track:      track,
		enc:        enc,
		ssrc:       rand.Uint32(),
		srcFormat:  f,
		opusFormat: opusFormat,
	}
	return sink.NewAsyncPipeline(w, f, cfg.SkipSilence, sink.HoldoffSamples(cfg.SilenceHoldoffMs, f)), nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// WriteChunk implements sink.Writer.
func (w *writer) WriteChunk(frame []byte) error {
	pcm := format.Convert(&w.scratch, frame, w.srcFormat, w.opusFormat)
	w.pending = append(w.pending, pcm...)

	frameBytes := frameSize * w.opusFormat.BlockAlign()
	for len(w.pending) >= frameBytes {
		if err := w.encodeAndWrite(w.pending[:frameBytes]); err != nil {
			return err
		}
		w.pending = w.pending[frameBytes:]
	}
	return nil
}

func (w *writer) encodeAndWrite(pcmChunk []byte) error {
	opusFrame, err := w.enc.EncodeBytes(pcmChunk, frameSize)
	if err != nil {
		return err
	}

	packet := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    opusPayloadType,
			SequenceNumber: w.seq,
			Timestamp:      w.timestamp,
			SSRC:           w.ssrc,
		},
		Payload: opusFrame,
	}
	w.seq++
	w.timestamp += frameSize

	if err := w.track.WriteRTP(packet); err != nil {
		return err
	}
	return nil
}

// Finalize implements sink.Writer: flush any trailing partial frame
// (padded with silence) and release the encoder. The track itself is
// owned by the caller's peer connection and is not closed here.
func (w *writer) Finalize() error {
	frameBytes := frameSize * w.opusFormat.BlockAlign()
	if len(w.pending) > 0 {
		padded := make([]byte, frameBytes)
		copy(padded, w.pending)
		if err := w.encodeAndWrite(padded); err != nil {
			w.enc.Close()
			return err
		}
		w.pending = nil
	}
	w.enc.Close()
	return nil
}
