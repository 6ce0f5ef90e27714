// Package wav implements the WAV encoder sink (spec §4.D): a header
// written with placeholder sizes at open, rewritten in place at close or
// at each 4 GiB part split. Grounded exactly on
// original_source/src/WavWriter.cpp's WriteWavHeader/UpdateWavHeader: RIFF
// size lives at the fixed offset 4; the data chunk's size lives at the
// *computed* offset 12 + 8 + fmtChunkSize + 4, which only coincides with a
// fixed byte offset for one particular fmt chunk size.
package wav

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/oakmix/audioengine/pkg/audio/format"
	"github.com/oakmix/audioengine/pkg/audio/sink"
)

// maxFileSize is the 4 GiB safety split threshold from spec §4.D.
const maxFileSize = 4 * 1024 * 1024 * 1024

const fmtChunkSize = 16 // standard PCM/IEEE-float fmt chunk, no extension

const (
	formatTagPCM       = 1
	formatTagIEEEFloat = 3
)

// writer is the sink.Writer half: it owns the open *os.File, the running
// data size, and the part-splitting logic.
type writer struct {
	basePath string
	format   format.Format

	file         *os.File
	dataSize     uint32
	totalWritten uint64
	partNumber   int
}

// Config carries the common sink settings; WAV has no format-specific
// options of its own.
type Config struct {
	sink.Config
}

// New opens path and returns a ready sink.Sink. path's extension (if any)
// is stripped to form the base name used for `_partN` splits.
func New(path string, f format.Format, cfg Config) (sink.Sink, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	w := &writer{
		basePath:   strings.TrimSuffix(path, ".wav"),
		format:     f,
		partNumber: 1,
	}
	if err := w.openFile(path); err != nil {
		return nil, err
	}

	return sink.NewAsyncPipeline(w, f, cfg.SkipSilence, sink.HoldoffSamples(cfg.SilenceHoldoffMs, f)), nil
}

func (w *writer) openFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	w.file = file
	w.dataSize = 0
	return w.writeHeader()
}

func (w *writer) writeHeader() error {
	formatTag := uint16(formatTagPCM)
	if w.format.SampleLayout == format.Float32 {
		formatTag = formatTagIEEEFloat
	}
	bitsPerSample := uint16(w.format.SampleLayout.BytesPerSample() * 8)
	blockAlign := uint16(w.format.BlockAlign())
	byteRate := uint32(w.format.SampleRate) * uint32(blockAlign)

	buf := make([]byte, 0, 44)
	buf = append(buf, "RIFF"...)
	buf = binary.LittleEndian.AppendUint32(buf, 0) // riff size placeholder
	buf = append(buf, "WAVE"...)

	buf = append(buf, "fmt "...)
	buf = binary.LittleEndian.AppendUint32(buf, fmtChunkSize)
	buf = binary.LittleEndian.AppendUint16(buf, formatTag)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(w.format.Channels))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(w.format.SampleRate))
	buf = binary.LittleEndian.AppendUint32(buf, byteRate)
	buf = binary.LittleEndian.AppendUint16(buf, blockAlign)
	buf = binary.LittleEndian.AppendUint16(buf, bitsPerSample)

	buf = append(buf, "data"...)
	buf = binary.LittleEndian.AppendUint32(buf, 0) // data size placeholder

	_, err := w.file.Write(buf)
	return err
}

// dataSizeOffset is the computed offset WavWriter.cpp's UpdateWavHeader
// uses: 12 (RIFF header) + 8 (fmt chunk id+size) + fmtChunkSize + 4 (data
// chunk id).
func dataSizeOffset() int64 {
	return 12 + 8 + fmtChunkSize + 4
}

func (w *writer) updateHeader() error {
	pos, err := w.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], uint32(pos)-8)
	if _, err := w.file.WriteAt(sizeBuf[:], 4); err != nil {
		return err
	}

	binary.LittleEndian.PutUint32(sizeBuf[:], w.dataSize)
	if _, err := w.file.WriteAt(sizeBuf[:], dataSizeOffset()); err != nil {
		return err
	}
	return nil
}

// WriteChunk implements sink.Writer.
func (w *writer) WriteChunk(frame []byte) error {
	currentFileSize := uint64(12+8+fmtChunkSize+8) + uint64(w.dataSize)
	if currentFileSize+uint64(len(frame)) > maxFileSize {
		if err := w.splitToNextFile(); err != nil {
			return err
		}
	}

	n, err := w.file.Write(frame)
	if err != nil {
		return err
	}
	w.dataSize += uint32(n)
	w.totalWritten += uint64(n)
	return nil
}

func (w *writer) splitToNextFile() error {
	if err := w.updateHeader(); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return err
	}

	w.partNumber++
	next := fmt.Sprintf("%s_part%d.wav", w.basePath, w.partNumber)
	return w.openFile(next)
}

// Finalize implements sink.Writer: rewrites the final header.
func (w *writer) Finalize() error {
	if err := w.updateHeader(); err != nil {
		return err
	}
	return w.file.Close()
}

// TotalBytesWritten reports cumulative audio bytes written across every
// part (spec §4.D: "total bytes across parts is reported cumulatively").
func (w *writer) TotalBytesWritten() uint64 {
	return w.totalWritten
}
