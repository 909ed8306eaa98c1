// Package protocol implements the binary uplink encoder and downlink decoder.
// Frames carry a 1-byte type and a 2-byte big-endian payload length; the
// encoder writes into a caller-provided scratch buffer without allocating, and
// the decoder is defensive: malformed input yields an error, unknown frame
// types decode to FrameUnknown and are never fatal.
package protocol
