package main

import (
	"fmt"
	"net"
	"time"
)

// udpTransport adapts a PC UDP socket to the transport interface the client
// expects. On a real device the host would wrap its network stack the same
// way.
type udpTransport struct {
	conn *net.UDPConn
}

func newUDPTransport(bindAddress, gatewayAddress string) (*udpTransport, error) {
	raddr, err := net.ResolveUDPAddr("udp", gatewayAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve gateway address %s: %w", gatewayAddress, err)
	}

	var laddr *net.UDPAddr
	if bindAddress != "" {
		laddr, err = net.ResolveUDPAddr("udp", bindAddress)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve bind address %s: %w", bindAddress, err)
		}
	}

	conn, err := net.DialUDP("udp", laddr, raddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial gateway: %w", err)
	}

	return &udpTransport{conn: conn}, nil
}

// Send transmits one datagram to the gateway.
func (t *udpTransport) Send(buf []byte) error {
	_, err := t.conn.Write(buf)
	return err
}

// Receive makes a single non-blocking read attempt. A read deadline in the
// past turns the blocking socket read into a poll.
func (t *udpTransport) Receive(buf []byte) (int, error) {
	if err := t.conn.SetReadDeadline(time.Now()); err != nil {
		return 0, err
	}
	n, err := t.conn.Read(buf)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

// Close releases the socket.
func (t *udpTransport) Close() error {
	return t.conn.Close()
}
