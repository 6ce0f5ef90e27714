package router

import "math"

// SourceState is a point-in-time view of one registered source, exposed
// to external monitors via pkg/control.
type SourceState struct {
	ID          string
	DisplayName string
	Paused      bool
	PeakLevel   float32
}

// DestinationState is a point-in-time view of one registered destination.
type DestinationState struct {
	ID   string
	Kind SinkKind
	Open bool
}

// State is the full point-in-time snapshot of a Session, independent of
// any transport — pkg/control serializes it to JSON or msgpack for
// external monitors.
type State struct {
	SessionID    string
	Valid        bool
	Paused       bool
	Sources      []SourceState
	Destinations []DestinationState
	Rules        []RoutingRuleConfig
	MixedEnabled bool
	LastError    string
}

// Snapshot builds a State describing the session as it stands right now.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	sources := make([]SourceState, 0, len(s.sources))
	for id, e := range s.sources {
		sources = append(sources, SourceState{
			ID:          id,
			DisplayName: e.src.DisplayName(),
			Paused:      e.paused,
			PeakLevel:   math.Float32frombits(e.peak.Load()),
		})
	}
	destinations := make([]DestinationState, 0, len(s.destinations))
	for id, e := range s.destinations {
		destinations = append(destinations, DestinationState{
			ID:   id,
			Kind: e.cfg.Kind,
			Open: e.sink.IsOpen(),
		})
	}
	rules := make([]RoutingRuleConfig, len(s.rules))
	copy(rules, s.rules)
	mixedEnabled := s.mixed.Enabled
	s.mu.Unlock()

	var lastErr string
	if err := s.LastError(); err != nil {
		lastErr = err.Error()
	}

	return State{
		SessionID:    s.id,
		Valid:        s.IsValid(),
		Paused:       s.Paused(),
		Sources:      sources,
		Destinations: destinations,
		Rules:        rules,
		MixedEnabled: mixedEnabled,
		LastError:    lastErr,
	}
}
