package portaudio

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/oakmix/audioengine/pkg/audio/format"
)

// DefaultDevice selects the host's default device for a given direction.
const DefaultDevice = -1

// InputStream captures audio from a capture endpoint in an explicit format.
type InputStream struct {
	stream *Stream
	format format.Format
	frames int
	mu     sync.Mutex
	closed bool
}

// NewInputStream opens an input stream for recording. deviceIndex may be
// DefaultDevice to use the host's default capture device.
func NewInputStream(deviceIndex int, f format.Format, bufferDuration time.Duration) (*InputStream, error) {
	framesPerBuffer := f.FramesInDuration(bufferDuration)

	stream, err := openStream(deviceIndex, f.Channels, DefaultDevice, 0, f.SampleLayout, float64(f.SampleRate), framesPerBuffer)
	if err != nil {
		return nil, err
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, err
	}

	return &InputStream{
		stream: stream,
		format: f,
		frames: framesPerBuffer,
	}, nil
}

// ReadFrame reads one buffer's worth of raw frame bytes into buf, which
// must be at least Format().BytesForFrames(FramesPerBuffer()) long. Returns
// the number of bytes read.
func (is *InputStream) ReadFrame(buf []byte) (int, error) {
	is.mu.Lock()
	defer is.mu.Unlock()

	if is.closed {
		return 0, io.EOF
	}

	if err := is.stream.ReadFrames(buf, is.frames); err != nil {
		return 0, err
	}
	return is.frames * is.stream.BytesPerFrame(), nil
}

// FramesPerBuffer returns the frame count of one ReadFrame call.
func (is *InputStream) FramesPerBuffer() int {
	return is.frames
}

// Format returns the stream's PCM format.
func (is *InputStream) Format() format.Format {
	return is.format
}

// Close stops and closes the stream.
func (is *InputStream) Close() error {
	is.mu.Lock()
	defer is.mu.Unlock()

	if is.closed {
		return nil
	}
	is.closed = true

	return is.stream.Close()
}

// OutputStream plays audio to a render endpoint in an explicit format.
type OutputStream struct {
	stream *Stream
	format format.Format
	frames int
	buffer []byte
	mu     sync.Mutex
	closed bool
}

// NewOutputStream opens an output stream for playback. deviceIndex may be
// DefaultDevice to use the host's default render device.
func NewOutputStream(deviceIndex int, f format.Format, bufferDuration time.Duration) (*OutputStream, error) {
	framesPerBuffer := f.FramesInDuration(bufferDuration)

	stream, err := openStream(DefaultDevice, 0, deviceIndex, f.Channels, f.SampleLayout, float64(f.SampleRate), framesPerBuffer)
	if err != nil {
		return nil, err
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, err
	}

	return &OutputStream{
		stream: stream,
		format: f,
		frames: framesPerBuffer,
		buffer: make([]byte, f.BytesForFrames(framesPerBuffer)),
	}, nil
}

// FramesPerBuffer returns the frame count of one WriteFrame call.
func (os *OutputStream) FramesPerBuffer() int {
	return os.frames
}

// WriteFrame writes the whole frames in buf, at most one buffer's worth, to
// the output and returns the number of bytes written. Bytes beyond one
// buffer and a trailing partial frame are not written.
func (os *OutputStream) WriteFrame(buf []byte) (int, error) {
	os.mu.Lock()
	defer os.mu.Unlock()

	if os.closed {
		return 0, errors.New("portaudio: stream closed")
	}

	bpf := os.stream.BytesPerFrame()
	frames := min(len(buf)/bpf, os.frames)
	if frames == 0 {
		return 0, nil
	}
	n := copy(os.buffer, buf[:frames*bpf])

	if err := os.stream.WriteFrames(os.buffer, frames); err != nil {
		return 0, err
	}
	return n, nil
}

// WriteAvailable returns the number of frames that can be written without
// blocking — used by the device sink's drop-excess-on-overflow policy
// (spec §4.E).
func (os *OutputStream) WriteAvailable() (int, error) {
	return os.stream.WriteAvailable()
}

// Format returns the stream's PCM format.
func (os *OutputStream) Format() format.Format {
	return os.format
}

// Close stops and closes the stream.
func (os *OutputStream) Close() error {
	os.mu.Lock()
	defer os.mu.Unlock()

	if os.closed {
		return nil
	}
	os.closed = true

	return os.stream.Close()
}
