package format

import (
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		f    Format
		ok   bool
	}{
		{"ok stereo float", Format{Channels: 2, SampleRate: 48000, SampleLayout: Float32}, true},
		{"ok mono int16", Format{Channels: 1, SampleRate: 16000, SampleLayout: Int16}, true},
		{"zero channels", Format{Channels: 0, SampleRate: 48000, SampleLayout: Int16}, false},
		{"too many channels", Format{Channels: 9, SampleRate: 48000, SampleLayout: Int16}, false},
		{"rate too high", Format{Channels: 2, SampleRate: 200000, SampleLayout: Int16}, false},
		{"rate zero", Format{Channels: 2, SampleRate: 0, SampleLayout: Int16}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.f.Validate()
			if (err == nil) != c.ok {
				t.Fatalf("Validate() error = %v, want ok=%v", err, c.ok)
			}
		})
	}
}

func TestBlockAlign(t *testing.T) {
	f := Format{Channels: 2, SampleRate: 48000, SampleLayout: Float32}
	if got := f.BlockAlign(); got != 8 {
		t.Fatalf("BlockAlign() = %d, want 8", got)
	}
	f.SampleLayout = Int24
	if got := f.BlockAlign(); got != 6 {
		t.Fatalf("BlockAlign() = %d, want 6", got)
	}
}

func TestCompatible(t *testing.T) {
	a := Format{Channels: 2, SampleRate: 48000, SampleLayout: Float32}
	b := a
	if !a.Compatible(b) {
		t.Fatal("expected identical formats to be compatible")
	}
	b.SampleRate = 44100
	if a.Compatible(b) {
		t.Fatal("expected differing sample rates to be incompatible")
	}
}

func TestFramesInDurationRoundTrip(t *testing.T) {
	f := Format{Channels: 2, SampleRate: 48000, SampleLayout: Float32}
	frames := f.FramesInDuration(2 * time.Second)
	if frames != 96000 {
		t.Fatalf("FramesInDuration(2s) = %d, want 96000", frames)
	}
	if got := f.BytesForFrames(frames); got != 96000*8 {
		t.Fatalf("BytesForFrames = %d, want %d", got, 96000*8)
	}
}
