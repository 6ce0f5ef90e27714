package sink

import (
	"sync"
	"sync/atomic"

	"github.com/oakmix/audioengine/pkg/audio/format"
)

// queueDepth bounds how many submitted chunks may be buffered ahead of the
// writer goroutine before Submit starts dropping. Encoder sinks are
// expected to keep up; this is a safety valve against OS-level stalls
// (e.g. an S3 archival upload behind a slow network), not a normal
// operating mode.
const queueDepth = 256

// silenceThreshold is the normalized amplitude below which a frame counts
// as silent for SkipSilence gating, per spec §4.A's documented default.
const silenceThreshold = 0.01

// AsyncPipeline is the shared writer-goroutine machinery every concrete
// Sink embeds (spec §4.F): producer callbacks copy a frame into an owned
// chunk and push it to a buffered channel; a single writer goroutine
// drains the channel and calls into a Writer, never under any lock.
type AsyncPipeline struct {
	writer Writer
	format format.Format

	queue chan []byte
	done  chan struct{}

	open   atomic.Bool
	paused atomic.Bool

	mu        sync.Mutex
	lastErr   error
	closeOnce sync.Once

	silenceHoldoff int
	silentRun      int
	skipSilence    bool
}

// NewAsyncPipeline starts the writer goroutine and returns a ready
// pipeline. silenceHoldoffSamples of 0 disables silence gating.
func NewAsyncPipeline(w Writer, f format.Format, skipSilence bool, silenceHoldoffSamples int) *AsyncPipeline {
	p := &AsyncPipeline{
		writer:         w,
		format:         f,
		queue:          make(chan []byte, queueDepth),
		done:           make(chan struct{}),
		skipSilence:    skipSilence,
		silenceHoldoff: silenceHoldoffSamples,
	}
	p.open.Store(true)
	go p.run()
	return p
}

// Submit enqueues a copy of frame. Dropped silently if the pipeline is
// closed, paused, or (when silence gating is enabled and the holdoff has
// elapsed) the frame is silent.
func (p *AsyncPipeline) Submit(frame []byte) {
	if !p.open.Load() || p.paused.Load() {
		return
	}

	if p.skipSilence {
		if format.IsSilent(frame, p.format, silenceThreshold) {
			p.silentRun += p.format.Frames(len(frame))
			if p.silentRun > p.silenceHoldoff {
				return
			}
		} else {
			p.silentRun = 0
		}
	}

	chunk := make([]byte, len(frame))
	copy(chunk, frame)

	select {
	case p.queue <- chunk:
	default:
		// Queue full: drop rather than block the producer callback.
	}
}

// Pause suppresses enqueue without stopping the writer goroutine; already
// queued chunks still drain.
func (p *AsyncPipeline) Pause() { p.paused.Store(true) }

// Resume reverses Pause.
func (p *AsyncPipeline) Resume() { p.paused.Store(false) }

// IsOpen reports whether the pipeline still accepts submissions.
func (p *AsyncPipeline) IsOpen() bool { return p.open.Load() }

// LastError returns the most recent write error, if any.
func (p *AsyncPipeline) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Close stops accepting new frames, signals the writer goroutine, and
// blocks until it has drained the queue and finalized the output.
// Idempotent.
func (p *AsyncPipeline) Close() error {
	p.closeOnce.Do(func() {
		p.open.Store(false)
		close(p.queue)
	})
	<-p.done
	return p.LastError()
}

// run is the pipeline's single writer goroutine: it drains the queue,
// writing each chunk outside any lock, then finalizes once the channel is
// closed and empty.
func (p *AsyncPipeline) run() {
	defer close(p.done)

	for chunk := range p.queue {
		if err := p.writer.WriteChunk(chunk); err != nil {
			p.recordError(err)
		}
	}

	if err := p.writer.Finalize(); err != nil {
		p.recordError(err)
	}
}

func (p *AsyncPipeline) recordError(err error) {
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
}
