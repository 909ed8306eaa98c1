// Package metrics defines the Prometheus instrumentation for the device
// client: queue pressure, transmit/receive outcomes, and session and stream
// lifecycle counters.
package metrics
