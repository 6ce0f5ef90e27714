package router

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/oakmix/audioengine/pkg/audio/apperr"
	"github.com/oakmix/audioengine/pkg/audio/capture"
	"github.com/oakmix/audioengine/pkg/audio/mixer"
	"github.com/oakmix/audioengine/pkg/audio/sink"
	"github.com/oakmix/audioengine/pkg/audio/source"
)

type sourceEntry struct {
	cfg    SourceConfig
	src    *source.Source
	paused bool
	peak   atomic.Uint32 // float32 bits, last frame's peak level (format.Peak)
}

type destinationEntry struct {
	cfg  DestinationConfig
	sink sink.Sink
}

// Session is the router's aggregate: a set of sources, an ordered list of
// destinations, a list of routing rules, and an optional mixer with its
// mixed-output destination (spec §3/§4.H).
type Session struct {
	id string

	valid  atomic.Bool
	paused atomic.Bool

	mu           sync.Mutex
	sources      map[string]*sourceEntry
	destinations map[string]*destinationEntry
	rules        []RoutingRuleConfig

	mixed          MixedConfig
	mixerInst      *mixer.Mixer
	driverSourceID string

	lastErrMu sync.Mutex
	lastErr   error
}

// ID returns the session's identifier.
func (s *Session) ID() string { return s.id }

// IsValid reports the session's lock-free admission flag, checked by
// every producer callback before doing any work (spec §4.H step 1).
func (s *Session) IsValid() bool { return s.valid.Load() }

// Paused reports the session-level pause gate.
func (s *Session) Paused() bool { return s.paused.Load() }

// PauseSession sets the session pause flag; incoming callbacks
// short-circuit while paused, already-in-flight submissions complete.
func (s *Session) PauseSession() { s.paused.Store(true) }

// ResumeSession clears the session pause flag.
func (s *Session) ResumeSession() { s.paused.Store(false) }

// LastError returns the most recent recorded destination/source error.
func (s *Session) LastError() error {
	s.lastErrMu.Lock()
	defer s.lastErrMu.Unlock()
	return s.lastErr
}

func (s *Session) recordError(err error) {
	s.lastErrMu.Lock()
	s.lastErr = err
	s.lastErrMu.Unlock()
}

// StartSession validates cfg, opens every destination, activates every
// source, attaches routing callbacks, and starts capture. Any failure
// rolls back everything already started and returns a StartFailed
// wrapping the cause (spec §4.H).
func StartSession(id string, cfg SessionConfig) (*Session, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	s := &Session{
		id:           id,
		sources:      make(map[string]*sourceEntry),
		destinations: make(map[string]*destinationEntry),
		rules:        cfg.Rules,
		mixed:        cfg.Mixed,
	}

	now := time.Now()
	openedDestinations := make([]*destinationEntry, 0, len(cfg.Destinations))
	for _, dc := range cfg.Destinations {
		sk, err := openSink(dc, now)
		if err != nil {
			s.rollbackDestinations(openedDestinations)
			return nil, &apperr.StartFailed{Cause: err}
		}
		entry := &destinationEntry{cfg: dc, sink: sk}
		s.destinations[dc.ID] = entry
		openedDestinations = append(openedDestinations, entry)
	}

	startedSources := make([]*sourceEntry, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		entry, err := s.activateSource(sc)
		if err != nil {
			s.rollbackSources(startedSources)
			s.rollbackDestinations(openedDestinations)
			return nil, &apperr.StartFailed{Cause: err}
		}
		s.sources[sc.ID] = entry
		startedSources = append(startedSources, entry)
	}

	s.driverSourceID = selectDriver(cfg, s.sources)
	if cfg.Mixed.Enabled {
		driverFormat := s.sources[s.driverSourceID].src.Format()
		s.mixerInst = mixer.New(driverFormat)
	}

	for _, entry := range startedSources {
		entry := entry
		entry.src.Client().SetCallback(func(frame []byte) {
			s.route(entry, frame)
		})
	}

	for _, entry := range startedSources {
		if err := entry.src.Client().Start(); err != nil {
			s.rollbackSources(startedSources)
			s.rollbackDestinations(openedDestinations)
			return nil, &apperr.StartFailed{Cause: err}
		}
	}

	s.valid.Store(true)
	return s, nil
}

func (s *Session) activateSource(sc SourceConfig) (*sourceEntry, error) {
	client := capture.NewClient(sc.DesiredFormat)
	if err := client.InitializeEndpoint(sc.Target); err != nil {
		return nil, err
	}
	src := source.New(sc.Target, sc.DisplayName, client)
	return &sourceEntry{cfg: sc, src: src}, nil
}

func selectDriver(cfg SessionConfig, sources map[string]*sourceEntry) string {
	if cfg.Mixed.DriverSourceID != "" {
		return cfg.Mixed.DriverSourceID
	}
	best := ""
	var bestRate int
	for _, sc := range cfg.Sources {
		entry, ok := sources[sc.ID]
		if !ok {
			continue
		}
		rate := entry.src.Format().SampleRate
		if best == "" || rate > bestRate {
			best = sc.ID
			bestRate = rate
		}
	}
	return best
}

func (s *Session) rollbackSources(started []*sourceEntry) {
	for _, entry := range started {
		entry.src.Client().Destroy()
	}
}

func (s *Session) rollbackDestinations(opened []*destinationEntry) {
	for _, entry := range opened {
		entry.sink.Close()
	}
}

// StopSession atomically clears isValid, then — without holding the
// session lock — stops every source and closes every destination. This
// ordering is the critical deadlock rule of spec §4.H: a source's
// capture callback re-enters the session lock, so stopping it while
// holding that lock would deadlock.
func (s *Session) StopSession() {
	s.valid.Store(false)

	s.mu.Lock()
	sources := make([]*sourceEntry, 0, len(s.sources))
	for _, e := range s.sources {
		sources = append(sources, e)
	}
	destinations := make([]*destinationEntry, 0, len(s.destinations))
	for _, e := range s.destinations {
		destinations = append(destinations, e)
	}
	s.mu.Unlock()

	for _, e := range sources {
		e.src.Client().Destroy()
	}
	for _, e := range destinations {
		e.sink.Close()
	}
}

// AddSource activates and registers a new source under the session lock.
func (s *Session) AddSource(sc SourceConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sources[sc.ID]; exists {
		return &apperr.ConfigRejected{Field: "sources.id", Reason: "duplicate source id " + sc.ID}
	}

	entry, err := s.activateSource(sc)
	if err != nil {
		return err
	}
	entry.src.Client().SetCallback(func(frame []byte) {
		s.route(entry, frame)
	})
	if err := entry.src.Client().Start(); err != nil {
		entry.src.Client().Destroy()
		return err
	}

	s.sources[sc.ID] = entry
	return nil
}

// RemoveSource stops and unregisters a source.
func (s *Session) RemoveSource(id string) error {
	s.mu.Lock()
	entry, ok := s.sources[id]
	if !ok {
		s.mu.Unlock()
		return &apperr.ConfigRejected{Field: "sources.id", Reason: "no such source " + id}
	}
	delete(s.sources, id)
	s.mu.Unlock()

	entry.src.Client().Destroy()
	if s.mixerInst != nil {
		s.mixerInst.RemoveSource(id)
	}
	return nil
}

// AddDestination opens and registers a new destination.
func (s *Session) AddDestination(dc DestinationConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.destinations[dc.ID]; exists {
		return &apperr.ConfigRejected{Field: "destinations.id", Reason: "duplicate destination id " + dc.ID}
	}

	sk, err := openSink(dc, time.Now())
	if err != nil {
		return err
	}
	s.destinations[dc.ID] = &destinationEntry{cfg: dc, sink: sk}
	return nil
}

// RemoveDestination closes and unregisters a destination. Refuses to
// remove a destination the mixed-output collaborator still references.
func (s *Session) RemoveDestination(id string) error {
	s.mu.Lock()
	if s.mixed.Enabled && s.mixed.DestinationID == id {
		s.mu.Unlock()
		return &apperr.ConfigRejected{Field: "destinations.id", Reason: "destination is referenced by mixed output"}
	}
	entry, ok := s.destinations[id]
	if !ok {
		s.mu.Unlock()
		return &apperr.ConfigRejected{Field: "destinations.id", Reason: "no such destination " + id}
	}
	delete(s.destinations, id)
	s.mu.Unlock()

	return entry.sink.Close()
}

// AddRoutingRule appends a new rule under the session lock, rejecting
// duplicate IDs.
func (s *Session) AddRoutingRule(rc RoutingRuleConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.rules {
		if r.ID == rc.ID {
			return &apperr.ConfigRejected{Field: "rules.id", Reason: "duplicate rule id " + rc.ID}
		}
	}
	s.rules = append(s.rules, rc)
	return nil
}
