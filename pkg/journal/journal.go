package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/oakmix/audioengine/pkg/kv"
)

// EventType names the kind of lifecycle event a Record describes.
type EventType string

const (
	EventSessionStarted    EventType = "session_started"
	EventSessionStopped    EventType = "session_stopped"
	EventSessionPaused     EventType = "session_paused"
	EventSessionResumed    EventType = "session_resumed"
	EventSourceAdded       EventType = "source_added"
	EventSourceRemoved     EventType = "source_removed"
	EventDestinationAdded  EventType = "destination_added"
	EventDestinationFailed EventType = "destination_failed"
	EventError             EventType = "error"
)

// Record is one journal entry. ID is a UUIDv4 assigned at append time,
// used only to detect duplicate delivery; ordering within a session is
// governed by Sequence, not ID.
type Record struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sequence  uint64    `json:"sequence"`
	Type      EventType `json:"type"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Journal appends lifecycle Records for one or more sessions to a
// kv.Store, and replays them back in sequence order.
type Journal struct {
	store kv.Store

	seqMu sync.Mutex
	seq   map[string]*uint64
}

// New returns a Journal backed by store (typically a *kv.Badger opened
// against a durable directory).
func New(store kv.Store) *Journal {
	return &Journal{store: store, seq: make(map[string]*uint64)}
}

// nextSequence assigns the next sequence number for sessionID. The map
// lookup/insert is guarded by seqMu since concurrent Append calls for a
// session seen for the first time would otherwise race on the map
// write; once a counter exists, increments happen via atomic.AddUint64
// without holding the lock.
func (j *Journal) nextSequence(sessionID string) uint64 {
	j.seqMu.Lock()
	counter, ok := j.seq[sessionID]
	if !ok {
		counter = new(uint64)
		j.seq[sessionID] = counter
	}
	j.seqMu.Unlock()
	return atomic.AddUint64(counter, 1)
}

// Append records one lifecycle event for sessionID.
func (j *Journal) Append(ctx context.Context, sessionID string, eventType EventType, detail string) (Record, error) {
	rec := Record{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Sequence:  j.nextSequence(sessionID),
		Type:      eventType,
		Detail:    detail,
		Timestamp: time.Now(),
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("journal: marshal record: %w", err)
	}
	key := recordKey(sessionID, rec.Sequence)
	if err := j.store.Set(ctx, key, payload); err != nil {
		return Record{}, fmt.Errorf("journal: append: %w", err)
	}
	return rec, nil
}

// Replay returns every Record appended for sessionID, in sequence order.
func (j *Journal) Replay(ctx context.Context, sessionID string) ([]Record, error) {
	var records []Record
	for entry, err := range j.store.List(ctx, kv.Key{"session", sessionID}) {
		if err != nil {
			return nil, fmt.Errorf("journal: replay: %w", err)
		}
		var rec Record
		if err := json.Unmarshal(entry.Value, &rec); err != nil {
			return nil, fmt.Errorf("journal: unmarshal record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// LastRecord returns the most recently appended Record for sessionID, or
// false if the session has no journal history — the crash-recovery entry
// point: an orchestrator restarting after a crash reads this to decide
// whether a session needs to be restarted.
func (j *Journal) LastRecord(ctx context.Context, sessionID string) (Record, bool, error) {
	records, err := j.Replay(ctx, sessionID)
	if err != nil {
		return Record{}, false, err
	}
	if len(records) == 0 {
		return Record{}, false, nil
	}
	last := records[0]
	for _, r := range records[1:] {
		if r.Sequence > last.Sequence {
			last = r
		}
	}
	return last, true, nil
}

func recordKey(sessionID string, sequence uint64) kv.Key {
	return kv.Key{"session", sessionID, fmt.Sprintf("%020d", sequence)}
}
