// Package sink defines the Sink contract and the AsyncPipeline shared by
// every concrete encoder (spec §4.D/4.F): one writer goroutine per sink,
// draining an MPSC queue fed by possibly-concurrent producer callbacks, with
// pause-drops-at-enqueue and an optional silence-gate holdoff.
//
// Threading model grounded on pkg/audio/pcm/mixer.go's notify-channel
// pattern (trackNotify/writeNotify): a buffered signal channel replaces a
// condition variable, since Go's goroutine scheduler makes a channel the
// idiomatic CV equivalent.
package sink
