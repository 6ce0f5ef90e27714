package format

import (
	"fmt"
	"time"
)

// Layout identifies how a single sample is encoded on the wire.
type Layout int

const (
	// Int16 is a signed 16-bit little-endian integer sample.
	Int16 Layout = iota
	// Int24 is a signed 24-bit little-endian integer sample, packed into
	// 3 bytes (no padding byte).
	Int24
	// Int32 is a signed 32-bit little-endian integer sample.
	Int32
	// Float32 is an IEEE-754 little-endian float sample in [-1, 1].
	Float32
)

// BytesPerSample returns the on-wire size of one sample in this layout.
func (l Layout) BytesPerSample() int {
	switch l {
	case Int16:
		return 2
	case Int24:
		return 3
	case Int32, Float32:
		return 4
	default:
		panic("format: invalid sample layout")
	}
}

// String returns a human-readable layout name.
func (l Layout) String() string {
	switch l {
	case Int16:
		return "int16"
	case Int24:
		return "int24"
	case Int32:
		return "int32"
	case Float32:
		return "float32"
	default:
		return "invalid"
	}
}

// Format is the immutable description of a PCM stream's sample layout, per
// spec §3: channels (1-8), sample rate (1-192 kHz), sample layout, and an
// optional channel mask (e.g. for WAVE_FORMAT_EXTENSIBLE-style positional
// channel assignment; zero means "unspecified/default").
type Format struct {
	Channels    int
	SampleRate  int
	SampleLayout Layout
	ChannelMask uint32
}

// MaxChannels and MaxSampleRate are the bounds spec §3 places on AudioFormat.
const (
	MaxChannels   = 8
	MaxSampleRate = 192000
)

// Validate reports whether f satisfies spec §3's AudioFormat invariants.
func (f Format) Validate() error {
	if f.Channels < 1 || f.Channels > MaxChannels {
		return fmt.Errorf("format: channels %d out of range [1,%d]", f.Channels, MaxChannels)
	}
	if f.SampleRate < 1 || f.SampleRate > MaxSampleRate {
		return fmt.Errorf("format: sample rate %d out of range [1,%d]", f.SampleRate, MaxSampleRate)
	}
	switch f.SampleLayout {
	case Int16, Int24, Int32, Float32:
	default:
		return fmt.Errorf("format: unsupported sample layout %v", f.SampleLayout)
	}
	return nil
}

// BlockAlign returns the number of bytes per frame: channels * bytes per
// sample.
func (f Format) BlockAlign() int {
	return f.Channels * f.SampleLayout.BytesPerSample()
}

// Compatible reports whether f and other have identical fields, per spec
// §3's definition: "Two formats are compatible iff all fields equal."
func (f Format) Compatible(other Format) bool {
	return f == other
}

// Frames returns the number of whole frames contained in a buffer of n
// bytes. The caller guarantees alignment (spec §4.A).
func (f Format) Frames(n int) int {
	ba := f.BlockAlign()
	if ba == 0 {
		return 0
	}
	return n / ba
}

// BytesForFrames returns the byte length of n frames in this format.
func (f Format) BytesForFrames(n int) int {
	return n * f.BlockAlign()
}

// FramesInDuration returns how many frames of this format span duration d.
func (f Format) FramesInDuration(d time.Duration) int {
	return int(int64(f.SampleRate) * int64(d) / int64(time.Second))
}

// Duration returns the duration spanned by n frames of this format.
func (f Format) Duration(frames int) time.Duration {
	if f.SampleRate == 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// String returns a human-readable description, e.g. "2ch/48000Hz/float32".
func (f Format) String() string {
	return fmt.Sprintf("%dch/%dHz/%s", f.Channels, f.SampleRate, f.SampleLayout)
}
