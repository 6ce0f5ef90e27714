// Package journal records session lifecycle events (start, stop, pause,
// resume, destination removal, error) to a durable kv.Store so an
// external orchestrator can recover the last known state of a session
// after a crash without replaying any audio. Journal entries are
// metadata-only: no PCM frame ever passes through this package.
//
// Records are keyed hierarchically as {"session", sessionID, sequence}
// (kv.Key's path-segment model, as giztoy's pkg/kv already provides),
// so kv.Store.List with a {"session", sessionID} prefix replays one
// session's full history in sequence order.
package journal
