// Package stream tracks per-stream lifecycle for the small fixed set of
// concurrent audio streams an instance may hold. Streams move
// Idle -> Requested -> Active -> Closing -> Closed; Closed slots are reusable.
package stream
