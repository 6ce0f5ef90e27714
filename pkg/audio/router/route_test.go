package router

import (
	"testing"

	"github.com/oakmix/audioengine/pkg/audio/capture"
	"github.com/oakmix/audioengine/pkg/audio/format"
	"github.com/oakmix/audioengine/pkg/audio/source"
)

// recordingSink is a minimal sink.Sink fake that records every submitted
// frame verbatim, for asserting on what route forwards.
type recordingSink struct {
	frames [][]byte
}

func (s *recordingSink) Submit(frame []byte) {
	cp := make([]byte, len(frame))
	copy(cp, frame)
	s.frames = append(s.frames, cp)
}
func (s *recordingSink) Close() error     { return nil }
func (s *recordingSink) IsOpen() bool     { return true }
func (s *recordingSink) LastError() error { return nil }

func testRouteFormat() format.Format {
	return format.Format{Channels: 1, SampleRate: 48000, SampleLayout: format.Float32}
}

func newTestSourceEntry(id string) *sourceEntry {
	f := testRouteFormat()
	client := capture.NewClient(f)
	return &sourceEntry{
		cfg: SourceConfig{ID: id, Target: capture.SystemDefaultLoopback{}, DesiredFormat: f},
		src: source.New(capture.SystemDefaultLoopback{}, "", client),
	}
}

func TestRouteAppliesZeroVolumeAsMute(t *testing.T) {
	f := testRouteFormat()
	entry := newTestSourceEntry("s1")
	dest := &destinationEntry{cfg: DestinationConfig{ID: "d1"}, sink: &recordingSink{}}

	s := &Session{
		destinations: map[string]*destinationEntry{"d1": dest},
		rules:        []RoutingRuleConfig{{ID: "r1", SourceID: "*", DestinationID: "d1", Volume: 0}},
	}
	s.valid.Store(true)

	frame := make([]byte, f.BytesForFrames(4))
	for i := range frame {
		frame[i] = 0x7f // loud, non-zero bytes so a no-op gain would be obviously audible
	}

	s.route(entry, frame)

	rec := dest.sink.(*recordingSink)
	if len(rec.frames) != 1 {
		t.Fatalf("expected exactly 1 frame forwarded, got %d", len(rec.frames))
	}
	if !format.IsSilent(rec.frames[0], f, 0.01) {
		t.Fatalf("expected Volume:0 to mute the forwarded frame to silence, got %v", rec.frames[0])
	}
}

func TestRouteUnityVolumeForwardsUnchanged(t *testing.T) {
	f := testRouteFormat()
	entry := newTestSourceEntry("s1")
	dest := &destinationEntry{cfg: DestinationConfig{ID: "d1"}, sink: &recordingSink{}}

	s := &Session{
		destinations: map[string]*destinationEntry{"d1": dest},
		rules:        []RoutingRuleConfig{{ID: "r1", SourceID: "*", DestinationID: "d1", Volume: 1}},
	}
	s.valid.Store(true)

	frame := make([]byte, f.BytesForFrames(4))
	for i := range frame {
		frame[i] = 0x7f
	}

	s.route(entry, frame)

	rec := dest.sink.(*recordingSink)
	if len(rec.frames) != 1 {
		t.Fatalf("expected exactly 1 frame forwarded, got %d", len(rec.frames))
	}
	for i, b := range rec.frames[0] {
		if b != frame[i] {
			t.Fatalf("expected unity volume to forward the frame unchanged, byte %d = %d, want %d", i, b, frame[i])
		}
	}
}
