package flac

import (
	"testing"

	"github.com/oakmix/audioengine/pkg/audio/format"
)

func TestSampleTo24BitFloatFullScale(t *testing.T) {
	buf := make([]byte, 4)
	// +1.0 float32 little-endian
	bits := uint32(0x3F800000)
	buf[0] = byte(bits)
	buf[1] = byte(bits >> 8)
	buf[2] = byte(bits >> 16)
	buf[3] = byte(bits >> 24)

	got := sampleTo24Bit(buf, format.Float32)
	if got != 8388607 {
		t.Errorf("sampleTo24Bit(+1.0) = %d, want 8388607", got)
	}
}

func TestSampleTo24BitInt16Scaling(t *testing.T) {
	buf := []byte{0xFF, 0x7F} // 32767 little-endian int16
	got := sampleTo24Bit(buf, format.Int16)
	if got != 32767<<8 {
		t.Errorf("sampleTo24Bit(int16 max) = %d, want %d", got, 32767<<8)
	}
}
