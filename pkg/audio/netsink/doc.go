// Package netsink implements a WebRTC-based live-relay destination: the
// distributed-monitoring analogue of pkg/audio/sink/device's in-process
// device sink (spec §4.E), generalized per spec §9's "destination
// variant" redesign flag and grounded on original_source's
// DeviceOutputDestination family. Audio is encoded to Opus and written as
// raw RTP packets to a pion TrackLocalStaticRTP, following the same
// manual rtp.Packet construction as cmd/giztoy/commands/gear/webrtc.go's
// WebRTCBridge.SendAudio, so a remote peer can monitor the session live
// over the network. This sink is still single-host: the WebRTC peer is a
// passive listener, never a second host driving the engine (spec's
// Non-goals exclude cross-host session distribution).
package netsink
