package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the device client.
type Metrics struct {
	// Command queue metrics
	CommandsEnqueued *prometheus.CounterVec
	QueueFull        prometheus.Counter
	QueueDepth       prometheus.Gauge

	// Transmit metrics
	FramesSent      prometheus.Counter
	SendErrors      prometheus.Counter
	CommandsDropped *prometheus.CounterVec

	// Receive metrics
	FramesReceived    prometheus.Counter
	DecodeErrors      prometheus.Counter
	UnknownFrames     prometheus.Counter
	MessagesDelivered prometheus.Counter

	// Session and stream metrics
	SessionConnects prometheus.Counter
	SessionResets   prometheus.Counter
	ActiveStreams   prometheus.Gauge
}

// New creates all client metrics on the given registerer. Pass a dedicated
// registry per instance; registering two instances on the same registry
// panics on duplicate collectors.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CommandsEnqueued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "avi_commands_enqueued_total",
			Help: "Total number of commands accepted into the queue",
		}, []string{"kind"}),
		QueueFull: factory.NewCounter(prometheus.CounterOpts{
			Name: "avi_queue_full_total",
			Help: "Total number of enqueue attempts rejected with queue full",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "avi_queue_depth",
			Help: "Current number of commands waiting in the queue",
		}),

		FramesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "avi_frames_sent_total",
			Help: "Total number of uplink frames handed to the transport",
		}),
		SendErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "avi_send_errors_total",
			Help: "Total number of transport send failures",
		}),
		CommandsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "avi_commands_dropped_total",
			Help: "Total number of drained commands dropped without transmission",
		}, []string{"kind", "cause"}),

		FramesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "avi_frames_received_total",
			Help: "Total number of downlink datagrams received",
		}),
		DecodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "avi_decode_errors_total",
			Help: "Total number of malformed downlink frames",
		}),
		UnknownFrames: factory.NewCounter(prometheus.CounterOpts{
			Name: "avi_unknown_frames_total",
			Help: "Total number of downlink frames with unrecognized type",
		}),
		MessagesDelivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "avi_messages_delivered_total",
			Help: "Total number of pub/sub deliveries handed to the host callback",
		}),

		SessionConnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "avi_session_connects_total",
			Help: "Total number of transitions into the connected state",
		}),
		SessionResets: factory.NewCounter(prometheus.CounterOpts{
			Name: "avi_session_resets_total",
			Help: "Total number of session resets to disconnected",
		}),
		ActiveStreams: factory.NewGauge(prometheus.GaugeOpts{
			Name: "avi_active_streams",
			Help: "Current number of non-closed audio streams",
		}),
	}
}

// RecordEnqueued records an accepted command and the resulting queue depth.
func (m *Metrics) RecordEnqueued(kind string, depth int) {
	m.CommandsEnqueued.WithLabelValues(kind).Inc()
	m.QueueDepth.Set(float64(depth))
}

// RecordQueueFull increments the backpressure counter.
func (m *Metrics) RecordQueueFull() {
	m.QueueFull.Inc()
}

// SetQueueDepth sets the queue depth gauge.
func (m *Metrics) SetQueueDepth(depth int) {
	m.QueueDepth.Set(float64(depth))
}

// RecordSent increments the sent frame counter.
func (m *Metrics) RecordSent() {
	m.FramesSent.Inc()
}

// RecordSendError increments the transport failure counter.
func (m *Metrics) RecordSendError() {
	m.SendErrors.Inc()
}

// RecordDropped records a drained command that was not transmitted.
func (m *Metrics) RecordDropped(kind, cause string) {
	m.CommandsDropped.WithLabelValues(kind, cause).Inc()
}

// RecordReceived increments the received datagram counter.
func (m *Metrics) RecordReceived() {
	m.FramesReceived.Inc()
}

// RecordDecodeError increments the malformed frame counter.
func (m *Metrics) RecordDecodeError() {
	m.DecodeErrors.Inc()
}

// RecordUnknownFrame increments the unrecognized frame counter.
func (m *Metrics) RecordUnknownFrame() {
	m.UnknownFrames.Inc()
}

// RecordDelivery increments the pub/sub delivery counter.
func (m *Metrics) RecordDelivery() {
	m.MessagesDelivered.Inc()
}

// RecordConnect increments the connect transition counter.
func (m *Metrics) RecordConnect() {
	m.SessionConnects.Inc()
}

// RecordReset increments the session reset counter.
func (m *Metrics) RecordReset() {
	m.SessionResets.Inc()
}

// SetActiveStreams sets the live stream gauge.
func (m *Metrics) SetActiveStreams(count int) {
	m.ActiveStreams.Set(float64(count))
}
