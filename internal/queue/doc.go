// Package queue implements the bounded command queue that decouples command
// producers from the poll consumer. Enqueue never blocks: it either appends in
// FIFO order or fails with ErrFull, leaving the queue unchanged.
package queue
