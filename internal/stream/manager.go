package stream

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrConflict is returned when an operation does not match the stream's
	// current state, e.g. starting an id that is already live or sending
	// audio on one that is not.
	ErrConflict = errors.New("stream state conflict")

	// ErrLimit is returned when starting a stream would exceed the fixed
	// bound of simultaneously live streams. Existing streams are never
	// evicted to make room.
	ErrLimit = errors.New("stream limit reached")
)

// State is the per-stream lifecycle state.
type State uint8

const (
	Idle State = iota
	Requested
	Active
	Closing
	Closed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requested:
		return "requested"
	case Active:
		return "active"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return "invalid"
	}
}

type stream struct {
	state      State
	targetPeer string
	reason     string
	sequence   uint32
}

// Manager tracks the lifecycle of up to maxStreams concurrent audio streams,
// each identified by a one-byte id unique among non-Closed streams. Producer
// contexts reserve and validate streams concurrently with the poll context,
// so the table sits behind a short mutex.
type Manager struct {
	mu         sync.Mutex
	streams    map[uint8]*stream
	maxStreams int
	logger     *slog.Logger
}

// NewManager creates a manager with the given fixed bound on live streams.
func NewManager(maxStreams int, logger *slog.Logger) *Manager {
	if maxStreams < 1 {
		maxStreams = 1
	}
	return &Manager{
		streams:    make(map[uint8]*stream),
		maxStreams: maxStreams,
		logger:     logger,
	}
}

// Start reserves a slot for the stream id, moving it to Requested. Fails with
// ErrConflict when the id is already live, ErrLimit when the bound of live
// streams is reached. A Closed slot with the same id is reused.
func (m *Manager) Start(id uint8, targetPeer, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st, ok := m.streams[id]; ok && st.state != Closed {
		return fmt.Errorf("%w: stream %d is %s", ErrConflict, id, st.state)
	}
	if m.liveCountLocked() >= m.maxStreams {
		return fmt.Errorf("%w: %d streams live", ErrLimit, m.maxStreams)
	}

	m.streams[id] = &stream{state: Requested, targetPeer: targetPeer, reason: reason}
	m.logger.Debug("stream requested",
		slog.Int("stream_id", int(id)),
		slog.String("target_peer", targetPeer),
		slog.String("reason", reason),
	)
	return nil
}

// Release removes a reservation made by Start that was never enqueued. Only
// valid while the stream is still Requested.
func (m *Manager) Release(id uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.streams[id]; ok && st.state == Requested {
		delete(m.streams, id)
	}
}

// CheckSendable verifies that audio may be sent on the stream. Audio is
// accepted while Requested (fire-and-forget before peer acceptance) and while
// Active.
func (m *Manager) CheckSendable(id uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.streams[id]
	if !ok || (st.state != Requested && st.state != Active) {
		return fmt.Errorf("%w: cannot send audio on stream %d in state %s",
			ErrConflict, id, m.stateLocked(id))
	}
	return nil
}

// NextSequence returns the next audio frame sequence number for the stream,
// or false when the stream cannot carry audio anymore.
func (m *Manager) NextSequence(id uint8) (uint32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.streams[id]
	if !ok || (st.state != Requested && st.state != Active) {
		return 0, false
	}
	st.sequence++
	return st.sequence, true
}

// RequestClose moves a live stream to Closing. Fails with ErrConflict when
// the stream is not Requested or Active.
func (m *Manager) RequestClose(id uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.streams[id]
	if !ok || (st.state != Requested && st.state != Active) {
		return fmt.Errorf("%w: cannot close stream %d in state %s",
			ErrConflict, id, m.stateLocked(id))
	}
	st.state = Closing
	return nil
}

// CancelClose undoes RequestClose when the close command could not be
// enqueued, returning the stream to Active.
func (m *Manager) CancelClose(id uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.streams[id]; ok && st.state == Closing {
		st.state = Active
	}
}

// MarkActive records peer acceptance, moving Requested to Active.
func (m *Manager) MarkActive(id uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.streams[id]
	if !ok {
		m.logger.Debug("acceptance for unknown stream", slog.Int("stream_id", int(id)))
		return
	}
	if st.state == Requested {
		st.state = Active
		m.logger.Info("stream active",
			slog.Int("stream_id", int(id)),
			slog.String("target_peer", st.targetPeer),
		)
	}
}

// MarkClosed moves the stream to its terminal state. The id becomes reusable
// by a subsequent Start. Safe to call for unknown ids.
func (m *Manager) MarkClosed(id uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.streams[id]
	if !ok || st.state == Closed {
		return
	}
	st.state = Closed
	m.logger.Debug("stream closed",
		slog.Int("stream_id", int(id)),
		slog.Uint64("frames_sent", uint64(st.sequence)),
	)
}

// State returns the lifecycle state for the id; unknown ids are Idle.
func (m *Manager) State(id uint8) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked(id)
}

// TargetPeer returns the peer the stream was started toward. Empty for
// unknown ids.
func (m *Manager) TargetPeer(id uint8) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.streams[id]; ok {
		return st.targetPeer
	}
	return ""
}

// LiveCount returns the number of non-Closed streams.
func (m *Manager) LiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.liveCountLocked()
}

func (m *Manager) liveCountLocked() int {
	n := 0
	for _, st := range m.streams {
		if st.state != Closed {
			n++
		}
	}
	return n
}

func (m *Manager) stateLocked(id uint8) State {
	if st, ok := m.streams[id]; ok {
		return st.state
	}
	return Idle
}
