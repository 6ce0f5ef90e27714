package router

import (
	"math"

	"github.com/oakmix/audioengine/pkg/audio/format"
)

// route is the per-frame routing algorithm of spec §4.H, invoked from a
// source's capture callback. It first checks isValid and the session
// pause gate with no lock held, matching step 1; StartSession installs the
// callbacks before it sets the valid flag, so frames delivered during
// startup are dropped here.
func (s *Session) route(entry *sourceEntry, frame []byte) {
	if !s.valid.Load() || s.paused.Load() {
		return
	}

	s.mu.Lock()
	rules := make([]RoutingRuleConfig, 0, len(s.rules))
	for _, r := range s.rules {
		if r.SourceID == "*" || r.SourceID == entry.cfg.ID {
			rules = append(rules, r)
		}
	}
	// Snapshot the destination map rather than retaining a reference to
	// it: AddDestination/RemoveDestination mutate the live map under
	// s.mu from other goroutines, and maps are not safe for concurrent
	// unsynchronized access even across distinct variable names.
	destinations := make(map[string]*destinationEntry, len(s.destinations))
	for id, d := range s.destinations {
		destinations[id] = d
	}
	mixed := s.mixed
	mixerInst := s.mixerInst
	driverID := s.driverSourceID
	s.mu.Unlock()

	srcFormat := entry.src.Format()
	entry.peak.Store(math.Float32bits(format.Peak(frame, srcFormat)))

	var scratch []byte
	for _, rule := range rules {
		dest, ok := destinations[rule.DestinationID]
		if !ok {
			continue
		}

		out := frame
		if rule.Volume != 1.0 {
			if cap(scratch) < len(frame) {
				scratch = make([]byte, len(frame))
			}
			scratch = scratch[:len(frame)]
			copy(scratch, frame)
			format.ApplyGain(scratch, srcFormat, rule.Volume)
			out = scratch
			scratch = nil // force a fresh copy per rule; never share mutated buffers across rules
		}

		if rule.SkipSilence && format.IsSilent(out, srcFormat, 0.01) {
			continue
		}

		s.submitToDestination(dest, out)
	}

	if mixed.Enabled && mixerInst != nil {
		mixerInst.Add(entry.cfg.ID, frame, srcFormat)

		if entry.cfg.ID == driverID {
			buf := make([]byte, mixerInst.Target().BytesForFrames(4096))
			if n := mixerInst.PullMixed(buf); n > 0 {
				if dest, ok := destinations[mixed.DestinationID]; ok {
					s.submitToDestination(dest, buf[:mixerInst.Target().BytesForFrames(n)])
				}
			}
		}
	}
}

// submitToDestination forwards a frame to dest, removing and closing the
// destination on hard failure per the failure-isolation policy of spec
// §4.H: other destinations are unaffected.
func (s *Session) submitToDestination(dest *destinationEntry, frame []byte) {
	dest.sink.Submit(frame)
	if err := dest.sink.LastError(); err != nil {
		s.recordError(err)
		s.removeFailedDestination(dest)
	}
}

func (s *Session) removeFailedDestination(dest *destinationEntry) {
	s.mu.Lock()
	for id, e := range s.destinations {
		if e == dest {
			delete(s.destinations, id)
			break
		}
	}
	s.mu.Unlock()
	dest.sink.Close()
}
