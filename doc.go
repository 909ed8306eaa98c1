// Package avi is an embedded-style client for the AVI device messaging and
// streaming network. One Instance serves one device identity: it can publish
// and subscribe to topics, run bidirectional audio streams, and report button
// and sensor events over a datagram transport the host injects.
//
// The client owns no socket and spawns no goroutine. Producing operations
// (Connect, Subscribe, Publish, SendAudio, ...) validate their inputs and
// push a command onto a bounded queue; they never block and never perform
// I/O, so they are safe from any goroutine, including latency-sensitive
// callbacks. All network work happens inside Poll, which the host calls from
// a single loop: it drains queued commands in order, serializes each into the
// host-provided scratch buffer, hands the frames to the transport, and routes
// at most one inbound datagram per call.
//
// When the queue is full, producers get ErrQueueFull instead of blocking;
// the host decides whether to retry. See the Transport and MessageHandler
// interfaces for the callback contracts.
package avi
