package format

import "math"

// readSample reads the sample at byte offset off in the given layout and
// returns it normalized to [-1, 1].
func readSample(buf []byte, layout Layout, off int) float64 {
	switch layout {
	case Int16:
		v := int16(uint16(buf[off]) | uint16(buf[off+1])<<8)
		if v >= 0 {
			return float64(v) / 32767
		}
		return float64(v) / 32768
	case Int24:
		u := uint32(buf[off]) | uint32(buf[off+1])<<8 | uint32(buf[off+2])<<16
		// sign-extend from 24 to 32 bits.
		v := int32(u<<8) >> 8
		if v >= 0 {
			return float64(v) / 8388607
		}
		return float64(v) / 8388608
	case Int32:
		u := uint32(buf[off]) | uint32(buf[off+1])<<8 | uint32(buf[off+2])<<16 | uint32(buf[off+3])<<24
		v := int32(u)
		if v >= 0 {
			return float64(v) / 2147483647
		}
		return float64(v) / 2147483648
	case Float32:
		u := uint32(buf[off]) | uint32(buf[off+1])<<8 | uint32(buf[off+2])<<16 | uint32(buf[off+3])<<24
		return float64(math.Float32frombits(u))
	default:
		panic("format: invalid sample layout")
	}
}

// writeSample writes a normalized [-1, 1] sample value into buf at byte
// offset off in the given layout, clipping to the layout's range.
func writeSample(buf []byte, layout Layout, off int, v float64) {
	switch layout {
	case Int16:
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		var s int16
		if v >= 0 {
			s = int16(v * 32767)
		} else {
			s = int16(v * 32768)
		}
		buf[off] = byte(s)
		buf[off+1] = byte(s >> 8)
	case Int24:
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		var s int32
		if v >= 0 {
			s = int32(v * 8388607)
		} else {
			s = int32(v * 8388608)
		}
		buf[off] = byte(s)
		buf[off+1] = byte(s >> 8)
		buf[off+2] = byte(s >> 16)
	case Int32:
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		var s int32
		if v >= 0 {
			s = int32(v * 2147483647)
		} else {
			s = int32(v * 2147483648)
		}
		buf[off] = byte(s)
		buf[off+1] = byte(s >> 8)
		buf[off+2] = byte(s >> 16)
		buf[off+3] = byte(s >> 24)
	case Float32:
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		u := math.Float32bits(float32(v))
		buf[off] = byte(u)
		buf[off+1] = byte(u >> 8)
		buf[off+2] = byte(u >> 16)
		buf[off+3] = byte(u >> 24)
	default:
		panic("format: invalid sample layout")
	}
}
