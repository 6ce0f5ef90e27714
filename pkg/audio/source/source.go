package source

import (
	"github.com/oakmix/audioengine/pkg/audio/capture"
	"github.com/oakmix/audioengine/pkg/audio/format"
)

// ID is a globally unique, stable string naming a source (spec §3):
// process:<pid>, system:default, device:<hash> or mic:<hash>.
type ID string

// Category classifies a source for display and policy purposes.
type Category string

const (
	CategoryProcess      Category = "process"
	CategorySystem       Category = "system"
	CategoryInputDevice  Category = "input-device"
)

// idFor derives the stable ID for a capture target, matching spec §3's
// SourceId grammar exactly.
func idFor(target capture.Target) ID {
	switch t := target.(type) {
	case capture.SystemDefaultLoopback:
		return "system:default"
	case capture.ProcessLoopback:
		return ID(t.String())
	case capture.DeviceCapture:
		return ID("mic:" + t.DeviceID)
	case capture.DeviceLoopback:
		return ID("device:" + t.DeviceID)
	default:
		return ID(t.String())
	}
}

func categoryFor(target capture.Target) Category {
	switch target.(type) {
	case capture.SystemDefaultLoopback:
		return CategorySystem
	case capture.ProcessLoopback:
		return CategoryProcess
	case capture.DeviceCapture:
		return CategoryInputDevice
	case capture.DeviceLoopback:
		return CategorySystem
	default:
		return CategorySystem
	}
}

// Source is the identity and lifecycle wrapper the router consumes: a
// stable ID, display name, category tag, and a pause gate layered over a
// capture.Client's own pause/resume.
type Source struct {
	id          ID
	displayName string
	category    Category
	client      *capture.Client

	gatePaused bool
}

// New wraps client under the identity derived from target. client must
// already be past InitializeEndpoint for target.
func New(target capture.Target, displayName string, client *capture.Client) *Source {
	return &Source{
		id:          idFor(target),
		displayName: displayName,
		category:    categoryFor(target),
		client:      client,
	}
}

// ID returns the source's stable identifier.
func (s *Source) ID() ID { return s.id }

// DisplayName returns the human-readable name.
func (s *Source) DisplayName() string { return s.displayName }

// Category returns the source's category tag.
func (s *Source) Category() Category { return s.category }

// Format returns the underlying capture client's negotiated format.
func (s *Source) Format() format.Format { return s.client.GetFormat() }

// Client exposes the underlying capture client for router wiring
// (SetCallback, Start, Stop, Destroy).
func (s *Source) Client() *capture.Client { return s.client }

// SetGain forwards to the underlying capture client.
func (s *Source) SetGain(g float32) { s.client.SetGain(g) }

// Pause sets the pause gate that Paused reports. The router does not
// consult it, so frames from a paused source are still routed. The gate is
// separate from the capture client's own pause/resume.
func (s *Source) Pause() {
	s.gatePaused = true
}

// Resume clears the pause gate.
func (s *Source) Resume() {
	s.gatePaused = false
}

// Paused reports the pause gate's current state.
func (s *Source) Paused() bool {
	return s.gatePaused
}
