package queue

import (
	"errors"
	"sync"

	"github.com/Apoll011/avi-device/internal/command"
)

// ErrFull is returned by Enqueue when the queue is at capacity. It is the
// backpressure signal: the caller decides whether to retry later, the queue
// never blocks and never drops silently.
var ErrFull = errors.New("command queue full")

// Queue is a fixed-capacity FIFO of commands. Enqueue is safe for concurrent
// producers; the critical section is a couple of index updates plus one value
// copy, so producers are never blocked for longer than that. Dequeue is meant
// for the single poll consumer.
type Queue struct {
	mu    sync.Mutex
	slots []command.Command
	head  int
	tail  int
	size  int
}

// New creates a queue with the given fixed capacity. Capacity never grows.
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{slots: make([]command.Command, capacity)}
}

// Enqueue appends the command at the tail, or returns ErrFull leaving the
// queue unchanged. O(1), non-blocking.
func (q *Queue) Enqueue(cmd *command.Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == len(q.slots) {
		return ErrFull
	}
	q.slots[q.tail] = *cmd
	q.tail = (q.tail + 1) % len(q.slots)
	q.size++
	return nil
}

// Dequeue copies the head command into dst and removes it. Returns false when
// the queue is empty. O(1).
func (q *Queue) Dequeue(dst *command.Command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		return false
	}
	*dst = q.slots[q.head]
	q.slots[q.head] = command.Command{}
	q.head = (q.head + 1) % len(q.slots)
	q.size--
	return true
}

// Len returns the number of queued commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the fixed capacity.
func (q *Queue) Cap() int {
	return len(q.slots)
}
