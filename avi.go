package avi

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Apoll011/avi-device/internal/command"
	"github.com/Apoll011/avi-device/internal/metrics"
	"github.com/Apoll011/avi-device/internal/protocol"
	"github.com/Apoll011/avi-device/internal/queue"
	"github.com/Apoll011/avi-device/internal/session"
	"github.com/Apoll011/avi-device/internal/stream"
	"github.com/Apoll011/avi-device/internal/transport"
)

// Size ceilings enforced by the producing operations.
const (
	MaxTopicSize      = command.MaxTopicSize
	MaxPublishSize    = command.MaxPublishSize
	MaxPeerSize       = command.MaxPeerSize
	MaxReasonSize     = command.MaxReasonSize
	MaxPCMSize        = command.MaxPCMSize
	MaxSensorNameSize = command.MaxSensorNameSize

	// MinScratchSize is the smallest usable scratch buffer: it must hold the
	// largest encoded frame.
	MinScratchSize = protocol.MaxFrameSize
)

// Default configuration values applied by New when a field is zero.
const (
	DefaultQueueCapacity   = 32
	DefaultMaxStreams      = 8
	DefaultCommandsPerPoll = 16
)

// PressType identifies how a button was pressed.
type PressType uint8

const (
	PressShort  PressType = 0
	PressLong   PressType = 1
	PressDouble PressType = 2
)

// Transport is the pair of datagram callbacks the host injects. The client
// never owns a socket. Send transmits one logical message; Receive fills buf
// with at most one pending datagram, returning 0 when nothing is available.
// Both are called synchronously from Poll and must not block.
type Transport = transport.Conn

// MessageHandler receives pub/sub deliveries during Poll. The data slice
// aliases the instance's scratch buffer and is only valid for the duration of
// the call; the handler must copy anything it retains.
type MessageHandler interface {
	HandleMessage(topic string, data []byte)
}

// MessageHandlerFunc adapts a function to the MessageHandler interface.
type MessageHandlerFunc func(topic string, data []byte)

// HandleMessage calls f.
func (f MessageHandlerFunc) HandleMessage(topic string, data []byte) {
	f(topic, data)
}

// Config holds the per-instance parameters. Zero values for the sizing fields
// fall back to the defaults above.
type Config struct {
	// DeviceID is the identity announced in the Hello frame.
	DeviceID uint64

	// QueueCapacity is the fixed capacity of the command queue. The queue
	// never grows; enqueueing beyond it returns ErrQueueFull.
	QueueCapacity int

	// MaxStreams bounds the number of simultaneously live audio streams.
	MaxStreams int

	// CommandsPerPoll bounds how many queued commands one Poll call drains,
	// so a deeply backed up queue cannot monopolize the caller.
	CommandsPerPoll int
}

// Instance is one device's complete client state: session, streams, command
// queue, callbacks, and scratch buffer. Producing operations are safe to call
// from any goroutine; Poll must be called from exactly one.
type Instance struct {
	cfg     Config
	scratch []byte
	adapter *transport.Adapter
	handler MessageHandler
	queue   *queue.Queue
	session *session.Session
	streams *stream.Manager
	logger  *slog.Logger
	metrics *metrics.Metrics
	closed  atomic.Bool
}

// Option configures optional instance collaborators.
type Option func(*Instance)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(in *Instance) { in.logger = logger }
}

// WithMetrics sets the metrics registerer. Without this option the instance
// records metrics into a private registry nobody scrapes.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(in *Instance) { in.metrics = metrics.New(reg) }
}

// New creates an instance bound to the given transport and message handler.
// The scratch buffer is borrowed from the caller for the instance's lifetime
// and must hold at least MinScratchSize bytes; it is only touched during Poll.
func New(cfg Config, scratch []byte, conn Transport, handler MessageHandler, opts ...Option) (*Instance, error) {
	if conn == nil {
		return nil, fmt.Errorf("%w: transport cannot be nil", ErrInvalidParameter)
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: message handler cannot be nil", ErrInvalidParameter)
	}
	if len(scratch) < MinScratchSize {
		return nil, fmt.Errorf("%w: scratch buffer %d bytes is below the %d byte minimum",
			ErrInvalidParameter, len(scratch), MinScratchSize)
	}
	if cfg.QueueCapacity == 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}
	if cfg.MaxStreams == 0 {
		cfg.MaxStreams = DefaultMaxStreams
	}
	if cfg.CommandsPerPoll == 0 {
		cfg.CommandsPerPoll = DefaultCommandsPerPoll
	}
	if cfg.QueueCapacity < 1 || cfg.MaxStreams < 1 || cfg.CommandsPerPoll < 1 {
		return nil, fmt.Errorf("%w: queue capacity, stream bound, and commands per poll must be positive",
			ErrInvalidParameter)
	}

	in := &Instance{
		cfg:     cfg,
		scratch: scratch,
		adapter: transport.NewAdapter(conn),
		handler: handler,
		queue:   queue.New(cfg.QueueCapacity),
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.logger == nil {
		in.logger = slog.Default()
	}
	if in.metrics == nil {
		in.metrics = metrics.New(prometheus.NewRegistry())
	}
	in.session = session.New(in.logger)
	in.streams = stream.NewManager(cfg.MaxStreams, in.logger)

	in.logger.Debug("instance created",
		slog.Uint64("device_id", cfg.DeviceID),
		slog.Int("queue_capacity", cfg.QueueCapacity),
		slog.Int("max_streams", cfg.MaxStreams),
	)
	return in, nil
}

// Close releases the instance. The caller must guarantee no Poll is in
// flight. Every subsequent operation returns ErrInvalidInstance.
func (in *Instance) Close() {
	if in == nil {
		return
	}
	in.closed.Store(true)
}

func (in *Instance) valid() error {
	if in == nil || in.closed.Load() {
		return ErrInvalidInstance
	}
	return nil
}

func (in *Instance) enqueue(cmd *command.Command) error {
	if err := in.queue.Enqueue(cmd); err != nil {
		in.metrics.RecordQueueFull()
		return fmt.Errorf("%s: %w", cmd.Kind, err)
	}
	in.metrics.RecordEnqueued(cmd.Kind.String(), in.queue.Len())
	return nil
}
