package transport

import (
	"errors"
	"fmt"
)

// ErrFailure wraps any error reported by the host callbacks. Surfaced from
// the poll call, never retried internally.
var ErrFailure = errors.New("transport failure")

// Conn is the pair of host-supplied datagram callbacks. Send transmits one
// logical message per call. Receive fills buf with at most one pending
// datagram and returns its length, or 0 when nothing is available this cycle.
// Both are invoked synchronously from the poll context and must not block.
type Conn interface {
	Send(buf []byte) error
	Receive(buf []byte) (int, error)
}

// Adapter is a thin synchronous wrapper around the injected callbacks. It
// performs at most one send per frame and one receive attempt per poll; it
// never loops waiting for data.
type Adapter struct {
	conn Conn
}

// NewAdapter wraps the host connection.
func NewAdapter(conn Conn) *Adapter {
	return &Adapter{conn: conn}
}

// Send forwards one frame to the host send callback.
func (a *Adapter) Send(frame []byte) error {
	if err := a.conn.Send(frame); err != nil {
		return fmt.Errorf("%w: send: %v", ErrFailure, err)
	}
	return nil
}

// TryReceive makes a single receive attempt. Returns 0 when no datagram is
// pending. A negative length from the host is treated as a failure.
func (a *Adapter) TryReceive(buf []byte) (int, error) {
	n, err := a.conn.Receive(buf)
	if err != nil {
		return 0, fmt.Errorf("%w: receive: %v", ErrFailure, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: receive returned negative length %d", ErrFailure, n)
	}
	if n > len(buf) {
		return 0, fmt.Errorf("%w: receive returned length %d beyond buffer %d", ErrFailure, n, len(buf))
	}
	return n, nil
}
