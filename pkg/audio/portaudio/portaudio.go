// Package portaudio provides Go bindings for the PortAudio library.
//
// This package uses CGO to interface with the PortAudio C library,
// providing a simple API for audio input/output operations. Streams are
// opened against an explicit format.Format so callers never hardcode a
// sample layout.
//
// For go build: requires portaudio installed via pkg-config (brew install portaudio)
package portaudio

/*
#cgo pkg-config: portaudio-2.0

#include <portaudio.h>
#include <stdlib.h>
#include <string.h>

// Wrapper functions using void* to avoid CGO type issues with PaStream
static PaError pa_open_stream(void **stream,
                              const PaStreamParameters *inputParams,
                              const PaStreamParameters *outputParams,
                              double sampleRate,
                              unsigned long framesPerBuffer,
                              PaStreamFlags streamFlags) {
    return Pa_OpenStream((PaStream**)stream, inputParams, outputParams, sampleRate,
                         framesPerBuffer, streamFlags, NULL, NULL);
}

static PaError pa_start_stream(void *stream) {
    return Pa_StartStream((PaStream*)stream);
}

static PaError pa_stop_stream(void *stream) {
    return Pa_StopStream((PaStream*)stream);
}

static PaError pa_close_stream(void *stream) {
    return Pa_CloseStream((PaStream*)stream);
}

static PaError pa_read_stream(void *stream, void *buffer, unsigned long frames) {
    return Pa_ReadStream((PaStream*)stream, buffer, frames);
}

static PaError pa_write_stream(void *stream, const void *buffer, unsigned long frames) {
    return Pa_WriteStream((PaStream*)stream, buffer, frames);
}

static long pa_stream_write_available(void *stream) {
    return Pa_GetStreamWriteAvailable((PaStream*)stream);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/oakmix/audioengine/pkg/audio/format"
)

var (
	initOnce sync.Once
	initErr  error
)

// paError converts a PortAudio error code to a Go error.
func paError(code C.PaError) error {
	if code == C.paNoError {
		return nil
	}
	return errors.New(C.GoString(C.Pa_GetErrorText(code)))
}

// Initialize initializes the PortAudio library. It is safe to call
// multiple times.
func Initialize() error {
	initOnce.Do(func() {
		initErr = paError(C.Pa_Initialize())
	})
	return initErr
}

// Terminate terminates the PortAudio library.
func Terminate() error {
	return paError(C.Pa_Terminate())
}

// DeviceInfo contains information about an audio device, the shape the
// device-enumerator collaborator from spec §6 reports.
type DeviceInfo struct {
	Index                    int
	Name                     string
	MaxInputChannels         int
	MaxOutputChannels        int
	DefaultLowInputLatency   float64
	DefaultHighInputLatency  float64
	DefaultLowOutputLatency  float64
	DefaultHighOutputLatency float64
	DefaultSampleRate        float64
	IsDefaultInput           bool
	IsDefaultOutput          bool
}

// Devices returns a list of available audio devices.
func Devices() ([]DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	count := int(C.Pa_GetDeviceCount())
	if count < 0 {
		return nil, paError(C.PaError(count))
	}

	defaultInput := int(C.Pa_GetDefaultInputDevice())
	defaultOutput := int(C.Pa_GetDefaultOutputDevice())

	devices := make([]DeviceInfo, count)
	for i := 0; i < count; i++ {
		info := C.Pa_GetDeviceInfo(C.PaDeviceIndex(i))
		if info == nil {
			continue
		}
		devices[i] = DeviceInfo{
			Index:                    i,
			Name:                     C.GoString(info.name),
			MaxInputChannels:         int(info.maxInputChannels),
			MaxOutputChannels:        int(info.maxOutputChannels),
			DefaultLowInputLatency:   float64(info.defaultLowInputLatency),
			DefaultHighInputLatency:  float64(info.defaultHighInputLatency),
			DefaultLowOutputLatency:  float64(info.defaultLowOutputLatency),
			DefaultHighOutputLatency: float64(info.defaultHighOutputLatency),
			DefaultSampleRate:        float64(info.defaultSampleRate),
			IsDefaultInput:           i == defaultInput,
			IsDefaultOutput:          i == defaultOutput,
		}
	}
	return devices, nil
}

// PrintDevices prints all available devices to stdout.
func PrintDevices() error {
	devices, err := Devices()
	if err != nil {
		return err
	}
	for _, d := range devices {
		marker := ""
		if d.IsDefaultInput {
			marker += " [DEFAULT INPUT]"
		}
		if d.IsDefaultOutput {
			marker += " [DEFAULT OUTPUT]"
		}
		fmt.Printf("%d: %s%s\n", d.Index, d.Name, marker)
		fmt.Printf("   Input channels: %d, Output channels: %d\n", d.MaxInputChannels, d.MaxOutputChannels)
		fmt.Printf("   Default sample rate: %.0f Hz\n", d.DefaultSampleRate)
	}
	return nil
}

// paSampleFormat maps a format.Layout to the matching PortAudio sample
// format constant.
func paSampleFormat(l format.Layout) (C.PaSampleFormat, error) {
	switch l {
	case format.Int16:
		return C.paInt16, nil
	case format.Int24:
		return C.paInt24, nil
	case format.Int32:
		return C.paInt32, nil
	case format.Float32:
		return C.paFloat32, nil
	default:
		return 0, fmt.Errorf("portaudio: unsupported sample layout %v", l)
	}
}

// Stream is a raw byte-oriented PortAudio stream. Frame size in bytes is
// fixed at open time by the caller's format.Format.
type Stream struct {
	stream      unsafe.Pointer
	buffer      unsafe.Pointer
	bufferBytes int
	bytesPerFrame int
	closed      bool
	mu          sync.Mutex
}

// deviceIndexFor resolves a device selector to a PaDeviceIndex: -1 means
// "use the host default" for the given direction.
func deviceIndexFor(deviceIndex int, input bool) (C.PaDeviceIndex, error) {
	if deviceIndex >= 0 {
		return C.PaDeviceIndex(deviceIndex), nil
	}
	var idx C.PaDeviceIndex
	if input {
		idx = C.Pa_GetDefaultInputDevice()
	} else {
		idx = C.Pa_GetDefaultOutputDevice()
	}
	if idx == C.paNoDevice {
		return 0, errors.New("portaudio: no default device available")
	}
	return idx, nil
}

// openStream opens a PortAudio stream with the given parameters.
// inputDevice/outputDevice of -1 select the host default for that
// direction; 0 channels on a direction disables it.
func openStream(inputDevice, inputChannels, outputDevice, outputChannels int, layout format.Layout, sampleRate float64, framesPerBuffer int) (*Stream, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	sampleFormat, err := paSampleFormat(layout)
	if err != nil {
		return nil, err
	}

	var inputParams, outputParams *C.PaStreamParameters

	if inputChannels > 0 {
		idx, err := deviceIndexFor(inputDevice, true)
		if err != nil {
			return nil, err
		}
		info := C.Pa_GetDeviceInfo(idx)
		inputParams = &C.PaStreamParameters{
			device:                    idx,
			channelCount:              C.int(inputChannels),
			sampleFormat:              sampleFormat,
			suggestedLatency:          info.defaultLowInputLatency,
			hostApiSpecificStreamInfo: nil,
		}
	}

	if outputChannels > 0 {
		idx, err := deviceIndexFor(outputDevice, false)
		if err != nil {
			return nil, err
		}
		info := C.Pa_GetDeviceInfo(idx)
		outputParams = &C.PaStreamParameters{
			device:                    idx,
			channelCount:              C.int(outputChannels),
			sampleFormat:              sampleFormat,
			suggestedLatency:          info.defaultLowOutputLatency,
			hostApiSpecificStreamInfo: nil,
		}
	}

	var paStream unsafe.Pointer
	err = paError(C.pa_open_stream(
		&paStream,
		inputParams,
		outputParams,
		C.double(sampleRate),
		C.ulong(framesPerBuffer),
		C.paClipOff,
	))
	if err != nil {
		return nil, err
	}

	channels := inputChannels
	if outputChannels > channels {
		channels = outputChannels
	}
	bytesPerFrame := channels * layout.BytesPerSample()
	bufferBytes := framesPerBuffer * bytesPerFrame

	return &Stream{
		stream:        paStream,
		buffer:        C.malloc(C.size_t(bufferBytes)),
		bufferBytes:   bufferBytes,
		bytesPerFrame: bytesPerFrame,
	}, nil
}

// Start starts the audio stream.
func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("stream closed")
	}
	return paError(C.pa_start_stream(s.stream))
}

// Stop stops the audio stream.
func (s *Stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	return paError(C.pa_stop_stream(s.stream))
}

// Close closes the audio stream.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	C.pa_stop_stream(s.stream)
	err := paError(C.pa_close_stream(s.stream))
	C.free(s.buffer)
	return err
}

// ReadFrames reads framesPerBuffer frames of raw bytes into buf, which must
// be at least framesPerBuffer*bytesPerFrame long.
func (s *Stream) ReadFrames(buf []byte, framesPerBuffer int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("stream closed")
	}

	if err := paError(C.pa_read_stream(s.stream, s.buffer, C.ulong(framesPerBuffer))); err != nil {
		return err
	}
	n := framesPerBuffer * s.bytesPerFrame
	C.memcpy(unsafe.Pointer(&buf[0]), s.buffer, C.size_t(n))
	return nil
}

// WriteFrames writes raw bytes in buf (exactly framesPerBuffer frames) to
// the output stream.
func (s *Stream) WriteFrames(buf []byte, framesPerBuffer int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("stream closed")
	}

	n := framesPerBuffer * s.bytesPerFrame
	C.memcpy(s.buffer, unsafe.Pointer(&buf[0]), C.size_t(n))
	return paError(C.pa_write_stream(s.stream, s.buffer, C.ulong(framesPerBuffer)))
}

// WriteAvailable returns the number of frames that can be written to an
// output stream's buffer without blocking.
func (s *Stream) WriteAvailable() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, errors.New("stream closed")
	}
	n := C.pa_stream_write_available(s.stream)
	if n < 0 {
		return 0, paError(C.PaError(n))
	}
	return int(n), nil
}

// BytesPerFrame returns the stream's configured frame size in bytes.
func (s *Stream) BytesPerFrame() int {
	return s.bytesPerFrame
}
