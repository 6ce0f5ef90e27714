// Package control exposes a running router.Session over WebSocket to
// external monitors (spec §11's out-of-scope GUI shell is exactly this
// kind of collaborator). Outbound state snapshots are pushed as JSON by
// default, or msgpack for bandwidth-constrained monitors; inbound control
// messages (pause/resume session, add rule, remove source) are repaired with jsonrepair
// before unmarshalling, since external GUIs are a known source of
// malformed JSON fragments. Grounded on pkg/openai-realtime/websocket.go's
// session/event-loop shape and pkg/mqtt0/listener.go's gorilla/websocket
// server wiring.
package control
