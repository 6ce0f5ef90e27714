// Package format describes PCM sample layouts and provides the sample-level
// operations every other audio component builds on: gain, silence detection
// and format conversion (sample rate, channel count, sample layout).
//
// A Format is an immutable value. Two formats are compatible only if every
// field is equal; crossing a boundary between incompatible formats always
// goes through Convert.
package format
