// Package events carries the ordered stream a pipeline run emits: stage
// changes, progress updates, log lines and exactly one terminal result.
//
// Producers publish to a Sink. Dispatcher decouples a producer from a slow
// observer without reordering or blocking; Hub keeps a bounded history that
// HTTP and WebSocket consumers poll by sequence number; Recorder captures
// everything for tests.
package events
