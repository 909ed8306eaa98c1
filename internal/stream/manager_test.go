package stream

import (
	"errors"
	"log/slog"
	"os"
	"testing"
)

func testManager(maxStreams int) *Manager {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewManager(maxStreams, logger)
}

func TestStartAndLifecycle(t *testing.T) {
	m := testManager(4)

	if err := m.Start(1, "gateway-1", "voice"); err != nil {
		t.Fatalf("Expected start to succeed: %v", err)
	}
	if m.State(1) != Requested {
		t.Errorf("Expected requested, got %s", m.State(1))
	}
	if m.TargetPeer(1) != "gateway-1" {
		t.Errorf("Expected peer 'gateway-1', got %q", m.TargetPeer(1))
	}

	m.MarkActive(1)
	if m.State(1) != Active {
		t.Errorf("Expected active, got %s", m.State(1))
	}

	if err := m.RequestClose(1); err != nil {
		t.Fatalf("Expected close to succeed: %v", err)
	}
	if m.State(1) != Closing {
		t.Errorf("Expected closing, got %s", m.State(1))
	}

	m.MarkClosed(1)
	if m.State(1) != Closed {
		t.Errorf("Expected closed, got %s", m.State(1))
	}
}

func TestStartConflicts(t *testing.T) {
	m := testManager(4)

	if err := m.Start(1, "peer", ""); err != nil {
		t.Fatalf("Expected start to succeed: %v", err)
	}

	states := []struct {
		name    string
		prepare func()
	}{
		{name: "requested", prepare: func() {}},
		{name: "active", prepare: func() { m.MarkActive(1) }},
		{name: "closing", prepare: func() { _ = m.RequestClose(1) }},
	}

	for _, tt := range states {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepare()
			if err := m.Start(1, "peer", ""); !errors.Is(err, ErrConflict) {
				t.Errorf("Expected ErrConflict while %s, got %v", tt.name, err)
			}
		})
	}

	// Closed slots are reusable with the same id.
	m.MarkClosed(1)
	if err := m.Start(1, "other-peer", "retry"); err != nil {
		t.Errorf("Expected reuse of closed id to succeed, got %v", err)
	}
}

func TestStreamLimit(t *testing.T) {
	m := testManager(2)

	if err := m.Start(1, "peer", ""); err != nil {
		t.Fatalf("Expected start to succeed: %v", err)
	}
	if err := m.Start(2, "peer", ""); err != nil {
		t.Fatalf("Expected start to succeed: %v", err)
	}
	if err := m.Start(3, "peer", ""); !errors.Is(err, ErrLimit) {
		t.Fatalf("Expected ErrLimit, got %v", err)
	}

	// An existing stream is never evicted; closing one frees a slot.
	if m.State(1) != Requested || m.State(2) != Requested {
		t.Error("Existing streams must survive a rejected start")
	}
	m.MarkClosed(1)
	if err := m.Start(3, "peer", ""); err != nil {
		t.Errorf("Expected start to succeed after freeing a slot, got %v", err)
	}
	if m.LiveCount() != 2 {
		t.Errorf("Expected 2 live streams, got %d", m.LiveCount())
	}
}

func TestSendableStates(t *testing.T) {
	m := testManager(4)

	if err := m.CheckSendable(5); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for idle stream, got %v", err)
	}

	_ = m.Start(5, "peer", "")
	if err := m.CheckSendable(5); err != nil {
		t.Errorf("Expected requested stream to accept audio, got %v", err)
	}

	m.MarkActive(5)
	if err := m.CheckSendable(5); err != nil {
		t.Errorf("Expected active stream to accept audio, got %v", err)
	}

	_ = m.RequestClose(5)
	if err := m.CheckSendable(5); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for closing stream, got %v", err)
	}
}

func TestSequenceNumbers(t *testing.T) {
	m := testManager(4)
	_ = m.Start(3, "peer", "")

	for want := uint32(1); want <= 3; want++ {
		seq, ok := m.NextSequence(3)
		if !ok {
			t.Fatalf("Expected sequence %d to be issued", want)
		}
		if seq != want {
			t.Errorf("Expected sequence %d, got %d", want, seq)
		}
	}

	m.MarkClosed(3)
	if _, ok := m.NextSequence(3); ok {
		t.Error("Expected no sequence for a closed stream")
	}
}

func TestReleaseRollsBackReservation(t *testing.T) {
	m := testManager(1)
	_ = m.Start(1, "peer", "")

	m.Release(1)
	if m.State(1) != Idle {
		t.Errorf("Expected idle after release, got %s", m.State(1))
	}
	if err := m.Start(2, "peer", ""); err != nil {
		t.Errorf("Expected released slot to be available, got %v", err)
	}

	// Release only undoes reservations, not live streams.
	m.MarkActive(2)
	m.Release(2)
	if m.State(2) != Active {
		t.Errorf("Expected active stream to survive release, got %s", m.State(2))
	}
}
