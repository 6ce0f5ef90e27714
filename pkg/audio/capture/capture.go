package capture

import (
	"sync"
	"time"

	"github.com/oakmix/audioengine/pkg/audio/apperr"
	"github.com/oakmix/audioengine/pkg/audio/format"
	"github.com/oakmix/audioengine/pkg/audio/portaudio"
)

// State is a position in the capture client's Idle → Ready → Running →
// Paused lifecycle (spec §4.B).
type State int

const (
	Idle State = iota
	Ready
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// CallbackFunc receives one raw captured frame. The slice is only valid for
// the duration of the call.
type CallbackFunc func(frame []byte)

// activation serializes endpoint initialize/start across every Client in
// the process, matching the original CaptureManager's mutex scope: held
// only around OS stack activation, never around blocking stop/join calls.
var activation sync.Mutex

// bufferDuration sizes each portaudio callback buffer.
const bufferDuration = 20 * time.Millisecond

// Client drives one OS capture endpoint.
type Client struct {
	mu     sync.Mutex
	state  State
	target Target
	format format.Format

	stream *portaudio.InputStream

	gain     format.AtomicGain
	callback CallbackFunc

	paused   bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	frameBuf []byte
}

// NewClient constructs an idle capture client for the given desired
// format. The format is a request: the opened stream may differ in ways
// reported back via Format() once initialized.
func NewClient(desired format.Format) *Client {
	c := &Client{
		state:  Idle,
		format: desired,
	}
	c.gain.Store(1.0)
	return c
}

// InitializeEndpoint opens the OS endpoint named by target. Must be called
// from Idle.
func (c *Client) InitializeEndpoint(target Target) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Idle {
		return &apperr.Internal{Invariant: "capture: initializeEndpoint from non-idle state"}
	}

	deviceIndex, err := resolveTarget(target)
	if err != nil {
		return err
	}

	activation.Lock()
	stream, err := portaudio.NewInputStream(deviceIndex, c.format, bufferDuration)
	activation.Unlock()
	if err != nil {
		return &apperr.Unavailable{Resource: target.String(), Cause: err}
	}

	c.target = target
	c.stream = stream
	c.format = stream.Format()
	c.frameBuf = make([]byte, c.format.BytesForFrames(stream.FramesPerBuffer()))
	c.state = Ready
	return nil
}

// resolveTarget maps a capture Target to a portaudio device index.
// ProcessLoopback is unconditionally Unavailable: the underlying PortAudio
// backend has no process-scoped loopback capability on any host platform
// (spec §9 open question: fail closed rather than silently widen capture
// to system-default).
func resolveTarget(target Target) (int, error) {
	switch t := target.(type) {
	case SystemDefaultLoopback:
		return portaudio.DefaultDevice, nil
	case ProcessLoopback:
		return 0, &apperr.Unavailable{Resource: t.String()}
	case DeviceCapture:
		idx, err := deviceIndexByID(t.DeviceID)
		if err != nil {
			return 0, &apperr.Unavailable{Resource: t.String(), Cause: err}
		}
		return idx, nil
	case DeviceLoopback:
		idx, err := deviceIndexByID(t.DeviceID)
		if err != nil {
			return 0, &apperr.Unavailable{Resource: t.String(), Cause: err}
		}
		return idx, nil
	default:
		return 0, &apperr.Internal{Invariant: "capture: unknown target kind"}
	}
}

// deviceIndexByID resolves a stable device identifier (its PortAudio name)
// to the index PortAudio currently assigns it. Device indices are not
// stable across reboots or hot-plug events, so callers identify devices by
// name, not by index.
func deviceIndexByID(id string) (int, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return 0, err
	}
	for _, d := range devices {
		if d.Name == id {
			return d.Index, nil
		}
	}
	return 0, &apperr.Unavailable{Resource: "device:" + id}
}

// GetFormat returns the stream's actual format. Valid once Ready or later.
func (c *Client) GetFormat() format.Format {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.format
}

// SetCallback installs the frame callback. Must be set before Start; it is
// safe to replace while Running, taking effect on the next delivered
// frame.
func (c *Client) SetCallback(fn CallbackFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callback = fn
}

// SetGain sets the linear gain applied to every captured frame before
// callback delivery. Thread-safe and lock-free.
func (c *Client) SetGain(g float32) {
	c.gain.Store(g)
}

// Start begins delivering frames to the installed callback. Idempotent.
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Running || c.state == Paused {
		return nil
	}
	if c.state != Ready {
		return &apperr.Internal{Invariant: "capture: start from non-ready state"}
	}

	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	c.state = Running
	go c.readLoop(c.stopCh, c.doneCh)
	return nil
}

// readLoop pulls frames from the stream and delivers them to the
// callback, applying gain, until stopCh closes.
func (c *Client) readLoop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	for {
		select {
		case <-stopCh:
			return
		default:
		}

		n, err := c.stream.ReadFrame(c.frameBuf)
		if err != nil {
			return
		}
		frame := c.frameBuf[:n]

		c.mu.Lock()
		paused := c.paused
		cb := c.callback
		f := c.format
		c.mu.Unlock()

		if paused {
			continue
		}

		gain := c.gain.Load()
		format.ApplyGain(frame, f, gain)

		if cb != nil {
			cb(frame)
		}
	}
}

// Pause suppresses callback delivery without releasing the endpoint.
func (c *Client) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Running {
		c.paused = true
		c.state = Paused
	}
}

// Resume reverses Pause.
func (c *Client) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Paused {
		c.paused = false
		c.state = Running
	}
}

// Stop halts frame delivery and returns to Ready. Idempotent. The stop
// signal and goroutine join happen outside any lock the reader goroutine
// might need, so Stop never deadlocks against a callback that calls back
// into the client.
func (c *Client) Stop() error {
	c.mu.Lock()
	if c.state != Running && c.state != Paused {
		c.mu.Unlock()
		return nil
	}
	stopCh := c.stopCh
	doneCh := c.doneCh
	c.state = Ready
	c.paused = false
	c.mu.Unlock()

	close(stopCh)
	<-doneCh
	return nil
}

// Destroy releases OS resources from any state.
func (c *Client) Destroy() error {
	_ = c.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		err := c.stream.Close()
		c.stream = nil
		c.state = Idle
		return err
	}
	c.state = Idle
	return nil
}

// State returns the client's current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
