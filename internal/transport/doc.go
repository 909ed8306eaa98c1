// Package transport adapts the host-injected datagram callbacks to the error
// taxonomy used by the rest of the client. The client never owns a socket;
// the host decides what Send and Receive actually talk to.
package transport
