package mixer

import (
	"math"
	"sort"
	"sync"

	"github.com/oakmix/audioengine/pkg/audio/format"
)

// sourceBuffer is one admitted source's append-only byte buffer plus its
// read cursor, matching AudioMixer.cpp's AudioBuffer.
type sourceBuffer struct {
	sourceFormat format.Format
	data         []byte
	readPos      int
	scratch      []byte
}

// Mixer accepts (sourceID, frame, srcFormat) additions and produces
// aligned mixed frames in its target format (spec §4.G).
type Mixer struct {
	target format.Format

	mu      sync.Mutex
	buffers map[string]*sourceBuffer
	order   []string // insertion order, for deterministic sum order
}

// New constructs a mixer that outputs in target format.
func New(target format.Format) *Mixer {
	return &Mixer{
		target:  target,
		buffers: make(map[string]*sourceBuffer),
	}
}

// Target returns the mixer's output format.
func (m *Mixer) Target() format.Format {
	return m.target
}

// Add admits a frame from sourceID. On first submission by a given
// sourceID, a buffer is allocated with its declared format. If srcFormat
// differs from the target, the frame is resampled into the target format
// before appending.
func (m *Mixer) Add(sourceID string, frame []byte, srcFormat format.Format) {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf, ok := m.buffers[sourceID]
	if !ok {
		buf = &sourceBuffer{sourceFormat: srcFormat}
		m.buffers[sourceID] = buf
		m.order = append(m.order, sourceID)
	}

	if srcFormat.Compatible(m.target) {
		buf.data = append(buf.data, frame...)
		return
	}

	converted := format.Convert(&buf.scratch, frame, srcFormat, m.target)
	buf.data = append(buf.data, converted...)
}

// RemoveSource drops sourceID. Future pulls compute minimums over the
// remaining sources.
func (m *Mixer) RemoveSource(sourceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.buffers, sourceID)
	for i, id := range m.order {
		if id == sourceID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// PullMixed produces the largest whole number of aligned target frames
// every registered source can currently supply, writing them into out and
// returning the number of frames written. If any source is empty (or
// there are no sources), it returns 0.
func (m *Mixer) PullMixed(out []byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.buffers) == 0 {
		return 0
	}

	blockAlign := m.target.BlockAlign()

	minAvailable := -1
	for _, id := range m.order {
		buf := m.buffers[id]
		available := len(buf.data) - buf.readPos
		if minAvailable == -1 || available < minAvailable {
			minAvailable = available
		}
	}

	if minAvailable <= 0 {
		return 0
	}

	frameCount := minAvailable / blockAlign
	if frameCount == 0 {
		return 0
	}

	bytesToMix := frameCount * blockAlign
	if len(out) < bytesToMix {
		frameCount = len(out) / blockAlign
		bytesToMix = frameCount * blockAlign
	}
	if frameCount == 0 {
		return 0
	}

	if len(m.order) == 1 {
		buf := m.buffers[m.order[0]]
		copy(out[:bytesToMix], buf.data[buf.readPos:buf.readPos+bytesToMix])
	} else {
		sources := make([][]byte, len(m.order))
		for i, id := range m.order {
			buf := m.buffers[id]
			sources[i] = buf.data[buf.readPos : buf.readPos+bytesToMix]
		}
		mixSamples(sources, out[:bytesToMix], frameCount, m.target)
	}

	for _, id := range m.order {
		buf := m.buffers[id]
		buf.readPos += bytesToMix
		m.compact(buf)
	}

	return frameCount
}

// compact drops the consumed prefix once a buffer's read cursor has moved
// past one second of target-format bytes, matching AudioMixer.cpp's
// "keep last second" policy but computed against this mixer's own target
// sample rate rather than a hardcoded 48000.
func (m *Mixer) compact(buf *sourceBuffer) {
	if buf.readPos >= len(buf.data) {
		buf.data = buf.data[:0]
		buf.readPos = 0
		return
	}

	oneSecondBytes := m.target.SampleRate * m.target.BlockAlign()
	if buf.readPos > oneSecondBytes {
		remaining := make([]byte, len(buf.data)-buf.readPos)
		copy(remaining, buf.data[buf.readPos:])
		buf.data = remaining
		buf.readPos = 0
	}
}

// mixSamples sums sources sample-by-sample and clips to the target
// format's range. Only int16 and float32 need direct summation support
// (spec §4.G): every buffer already carries the target format after the
// admission-time conversion, so the target layout is the only one that
// ever reaches this function.
func mixSamples(sources [][]byte, dest []byte, frameCount int, target format.Format) {
	bps := target.SampleLayout.BytesPerSample()
	sampleCount := frameCount * target.Channels

	switch target.SampleLayout {
	case format.Int16:
		for i := 0; i < sampleCount; i++ {
			off := i * bps
			sum := int32(0)
			for _, src := range sources {
				sum += int32(int16(uint16(src[off]) | uint16(src[off+1])<<8))
			}
			if sum > 32767 {
				sum = 32767
			} else if sum < -32768 {
				sum = -32768
			}
			dest[off] = byte(sum)
			dest[off+1] = byte(sum >> 8)
		}
	case format.Float32:
		for i := 0; i < sampleCount; i++ {
			off := i * bps
			var sum float32
			for _, src := range sources {
				bits := uint32(src[off]) | uint32(src[off+1])<<8 | uint32(src[off+2])<<16 | uint32(src[off+3])<<24
				sum += math.Float32frombits(bits)
			}
			if sum > 1.0 {
				sum = 1.0
			} else if sum < -1.0 {
				sum = -1.0
			}
			bits := math.Float32bits(sum)
			dest[off] = byte(bits)
			dest[off+1] = byte(bits >> 8)
			dest[off+2] = byte(bits >> 16)
			dest[off+3] = byte(bits >> 24)
		}
	default:
		// Every other layout is converted to the target at admission
		// time, so mixSamples is only ever called with int16 or
		// float32 targets in practice; other layouts fall back to a
		// straight copy of the first source to avoid silent data loss.
		if len(sources) > 0 {
			copy(dest, sources[0])
		}
	}
}

// SourceIDs returns the currently registered source IDs, sorted by ID.
func (m *Mixer) SourceIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, len(m.order))
	copy(ids, m.order)
	sort.Strings(ids)
	return ids
}
