// Package session implements the connection state machine
// (Disconnected, Connecting, Connected) and the subscription set that is
// replayed toward the server whenever the session re-enters Connected.
package session
