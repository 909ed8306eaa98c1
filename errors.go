package avi

import (
	"errors"

	"github.com/Apoll011/avi-device/internal/command"
	"github.com/Apoll011/avi-device/internal/protocol"
	"github.com/Apoll011/avi-device/internal/queue"
	"github.com/Apoll011/avi-device/internal/stream"
	"github.com/Apoll011/avi-device/internal/transport"
)

// Error taxonomy. Producing operations distinguish exactly three outcomes:
// success, ErrInvalidParameter (nothing enqueued), and ErrQueueFull (nothing
// enqueued, retry later). Poll additionally surfaces ErrTransportFailure.
// Match with errors.Is; returned errors wrap these with detail.
var (
	// ErrInvalidInstance is returned for a nil or closed instance. The only
	// condition that makes an instance unusable.
	ErrInvalidInstance = errors.New("invalid instance")

	// ErrInvalidParameter is returned when a field exceeds its size ceiling,
	// a required field is empty, or an input is structurally malformed.
	ErrInvalidParameter = command.ErrInvalidParameter

	// ErrQueueFull is the producer-side backpressure signal. The command was
	// not enqueued; the queue is unchanged.
	ErrQueueFull = queue.ErrFull

	// ErrTransportFailure is surfaced from Poll when a host callback reports
	// failure. The failing command's transmission is lost; remaining queued
	// commands still execute that cycle.
	ErrTransportFailure = transport.ErrFailure

	// ErrStateConflict is returned for operations that do not match a
	// stream's current lifecycle state.
	ErrStateConflict = stream.ErrConflict

	// ErrStreamLimit is returned when starting a stream would exceed the
	// fixed bound of concurrent streams.
	ErrStreamLimit = stream.ErrLimit

	// ErrProtocol marks a malformed inbound frame. Logged and counted inside
	// Poll, never fatal and never returned from it.
	ErrProtocol = protocol.ErrMalformedFrame
)
