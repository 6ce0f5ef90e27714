// Package audio is an umbrella for the engine's capture/routing/mixing/
// delivery sub-packages:
//
//   - capture: OS-level capture endpoints (system loopback, process
//     loopback, device capture/loopback)
//   - format: PCM sample format description and conversion
//   - mixer: multi-source mix-down into a single driver-rate stream
//   - router: session lifecycle, routing rules, and destination dispatch
//   - sink: file/device/network output encoders
//   - source: the per-source wrapper around a capture.Client
//   - codec, netsink, archive, apperr, portaudio: supporting concerns for
//     the packages above
package audio
