// Package capture drives one OS audio capture endpoint through the
// Idle → Ready → Running → Paused lifecycle of spec §4.B, on top of
// pkg/audio/portaudio.
//
// Endpoint activation on most platforms is not safely reentrant across
// concurrent opens of the same backend, so Client.InitializeEndpoint holds
// a single package-level mutex while it opens and starts the PortAudio
// stream (Client.Start only launches the reader goroutine) — grounded
// on the original implementation's CaptureManager, which holds one mutex
// around endpoint activation but never around the blocking stop/join calls
// that follow it (see Client.Stop).
package capture
