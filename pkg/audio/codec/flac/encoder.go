// Package flac provides Go bindings for libFLAC's stream encoder,
// adapted from a file-mode encoder: InitFile/ProcessInterleaved/Finish/Close
// around C.FLAC__StreamEncoder, dropping the write-callback/cgo.Handle
// plumbing a streaming encoder needs since every flac destination in this
// engine writes straight to a local file.
package flac

/*
#cgo pkg-config: flac
#include <FLAC/stream_encoder.h>
#include <stdlib.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"
)

const (
	BitDepth8  = 8
	BitDepth16 = 16
	BitDepth24 = 24
	BitDepth32 = 32
)

// Encoder wraps libFLAC's stream encoder in file-output mode.
type Encoder struct {
	encoder *C.FLAC__StreamEncoder

	sampleRate       int
	channels         int
	bitsPerSample    int
	compressionLevel int

	initialized bool
}

// NewEncoder creates a FLAC encoder for the given format. bitsPerSample
// must be 8, 16, 24 or 32 (spec §4.D: internal resolution ≤24 bits, so
// callers pass 24 even for float32-sourced audio after conversion).
func NewEncoder(sampleRate, channels, bitsPerSample int) (*Encoder, error) {
	if sampleRate < 1 || sampleRate > 655350 {
		return nil, fmt.Errorf("flac: invalid sample rate %d", sampleRate)
	}
	if channels < 1 || channels > 8 {
		return nil, fmt.Errorf("flac: invalid channels %d", channels)
	}
	if bitsPerSample != BitDepth8 && bitsPerSample != BitDepth16 &&
		bitsPerSample != BitDepth24 && bitsPerSample != BitDepth32 {
		return nil, fmt.Errorf("flac: invalid bits per sample %d", bitsPerSample)
	}

	enc := C.FLAC__stream_encoder_new()
	if enc == nil {
		return nil, errors.New("flac: failed to create encoder")
	}

	return &Encoder{
		encoder:          enc,
		sampleRate:       sampleRate,
		channels:         channels,
		bitsPerSample:    bitsPerSample,
		compressionLevel: 5,
	}, nil
}

// SetCompressionLevel sets compression (0=fastest, 8=best). Must be
// called before InitFile. Default 5.
func (e *Encoder) SetCompressionLevel(level int) error {
	if level < 0 || level > 8 {
		return fmt.Errorf("flac: invalid compression level %d", level)
	}
	e.compressionLevel = level
	return nil
}

func (e *Encoder) configure() error {
	if C.FLAC__stream_encoder_set_channels(e.encoder, C.uint32_t(e.channels)) == 0 {
		return errors.New("flac: set channels failed")
	}
	if C.FLAC__stream_encoder_set_bits_per_sample(e.encoder, C.uint32_t(e.bitsPerSample)) == 0 {
		return errors.New("flac: set bits per sample failed")
	}
	if C.FLAC__stream_encoder_set_sample_rate(e.encoder, C.uint32_t(e.sampleRate)) == 0 {
		return errors.New("flac: set sample rate failed")
	}
	if C.FLAC__stream_encoder_set_compression_level(e.encoder, C.uint32_t(e.compressionLevel)) == 0 {
		return errors.New("flac: set compression level failed")
	}
	return nil
}

// InitFile initializes the encoder to write directly to filePath.
func (e *Encoder) InitFile(filePath string) error {
	if e.initialized {
		return errors.New("flac: already initialized")
	}
	if err := e.configure(); err != nil {
		return err
	}

	cpath := C.CString(filePath)
	defer C.free(unsafe.Pointer(cpath))

	status := C.FLAC__stream_encoder_init_file(e.encoder, cpath, nil, nil)
	if status != C.FLAC__STREAM_ENCODER_INIT_STATUS_OK {
		return fmt.Errorf("flac: init file encoder failed: status %d", int(status))
	}
	e.initialized = true
	return nil
}

// ProcessInterleaved feeds interleaved int32 PCM samples, each value
// right-justified to bitsPerSample, numSamples per channel.
func (e *Encoder) ProcessInterleaved(samples []int32, numSamples int) error {
	if !e.initialized {
		return errors.New("flac: encoder not initialized")
	}
	if numSamples <= 0 {
		return nil
	}
	if len(samples) < numSamples*e.channels {
		return fmt.Errorf("flac: samples slice too small: need %d, got %d", numSamples*e.channels, len(samples))
	}

	ok := C.FLAC__stream_encoder_process_interleaved(
		e.encoder,
		(*C.FLAC__int32)(unsafe.Pointer(&samples[0])),
		C.uint32_t(numSamples),
	)
	if ok == 0 {
		return fmt.Errorf("flac: process interleaved failed, encoder state %d", int(C.FLAC__stream_encoder_get_state(e.encoder)))
	}
	return nil
}

// Finish finalizes encoding and flushes remaining data.
func (e *Encoder) Finish() error {
	if e.encoder == nil {
		return errors.New("flac: encoder not initialized")
	}
	ok := C.FLAC__stream_encoder_finish(e.encoder)
	e.initialized = false
	if ok == 0 {
		return errors.New("flac: finish failed (verify mismatch)")
	}
	return nil
}

// Close releases the encoder's C resources.
func (e *Encoder) Close() {
	if e.encoder == nil {
		return
	}
	if e.initialized {
		C.FLAC__stream_encoder_finish(e.encoder)
		e.initialized = false
	}
	C.FLAC__stream_encoder_delete(e.encoder)
	e.encoder = nil
}
