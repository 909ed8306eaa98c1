package session

import (
	"log/slog"
	"sync"
)

// State is the connection lifecycle state.
type State uint8

const (
	Disconnected State = iota
	Connecting
	Connected
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "invalid"
	}
}

// Session owns the connection state machine and the subscription set. State
// transitions happen in the poll context; Connected is also read from
// producer contexts, so the whole session sits behind a short mutex.
type Session struct {
	mu     sync.Mutex
	state  State
	topics []string // unique, in subscription order
	logger *slog.Logger
}

// New creates a session in the Disconnected state.
func New(logger *slog.Logger) *Session {
	return &Session{logger: logger}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connected reports whether the session has received the server acknowledgment.
func (s *Session) Connected() bool {
	return s.State() == Connected
}

// MarkConnecting records that a Hello frame has been transmitted.
func (s *Session) MarkConnecting() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Disconnected {
		s.state = Connecting
		s.logger.Debug("session connecting")
	}
}

// MarkConnected records the server acknowledgment and returns the topics to
// replay, in subscription order. An acknowledgment only counts after a Hello
// has been transmitted: outside Connecting it is ignored and false is
// returned, so a stray or duplicate Welcome never re-sends subscriptions.
func (s *Session) MarkConnected() ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Connecting {
		return nil, false
	}
	s.state = Connected
	s.logger.Info("session connected", slog.Int("subscriptions", len(s.topics)))
	replay := make([]string, len(s.topics))
	copy(replay, s.topics)
	return replay, true
}

// Reset drops the session back to Disconnected. The subscription set is kept:
// it is replayed on the next transition into Connected.
func (s *Session) Reset(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Disconnected {
		return
	}
	s.state = Disconnected
	s.logger.Warn("session reset", slog.String("reason", reason))
}

// AddTopic inserts a topic into the subscription set. Returns false when the
// topic was already present.
func (s *Session) AddTopic(topic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.topics {
		if t == topic {
			return false
		}
	}
	s.topics = append(s.topics, topic)
	return true
}

// RemoveTopic deletes a topic from the subscription set. Returns false when
// the topic was not present.
func (s *Session) RemoveTopic(topic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.topics {
		if t == topic {
			s.topics = append(s.topics[:i], s.topics[i+1:]...)
			return true
		}
	}
	return false
}

// Topics returns a copy of the subscription set in subscription order.
func (s *Session) Topics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.topics))
	copy(out, s.topics)
	return out
}
