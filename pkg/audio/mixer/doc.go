// Package mixer implements the push/pull audio mixer from spec §4.G:
// per-source buffers admit frames (resampling on admission when a
// source's format differs from the target), and PullMixed produces the
// largest whole number of aligned target frames every registered source
// can currently supply, summing with clipping.
//
// Grounded line-for-line on original_source/src/AudioMixer.cpp's
// AddAudioData/GetMixedAudio/MixSamples: minimum-available-bytes pull
// across sources, single-source fast-copy path, int16/float32-specific
// summation with clipping, and "keep last second" compaction once a
// buffer's read cursor runs past one second of target-format bytes. The
// one deliberate departure from the original: the compaction threshold is
// derived from the mixer's own target sample rate rather than the
// original's hardcoded 48000, since spec §3 states the invariant
// generically ("1 second worth of bytes") and this mixer's target rate is
// a runtime parameter, not a compile-time constant.
package mixer
