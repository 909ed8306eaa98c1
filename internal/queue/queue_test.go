package queue

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Apoll011/avi-device/internal/command"
)

func TestFIFOOrder(t *testing.T) {
	q := New(8)

	topics := []string{"a", "b", "c", "d", "e"}
	for _, topic := range topics {
		cmd, err := command.NewSubscribe(topic)
		if err != nil {
			t.Fatalf("Failed to build command: %v", err)
		}
		if err := q.Enqueue(&cmd); err != nil {
			t.Fatalf("Failed to enqueue %q: %v", topic, err)
		}
	}

	var cmd command.Command
	for i, want := range topics {
		if !q.Dequeue(&cmd) {
			t.Fatalf("Expected command %d but queue was empty", i)
		}
		if got := string(cmd.Topic()); got != want {
			t.Errorf("Position %d: expected topic %q, got %q", i, want, got)
		}
	}

	if q.Dequeue(&cmd) {
		t.Error("Expected empty queue after draining all commands")
	}
}

func TestFullLeavesQueueUnchanged(t *testing.T) {
	q := New(3)

	for i := 0; i < 3; i++ {
		cmd, _ := command.NewSubscribe(fmt.Sprintf("topic-%d", i))
		if err := q.Enqueue(&cmd); err != nil {
			t.Fatalf("Enqueue %d failed: %v", i, err)
		}
	}

	extra, _ := command.NewSubscribe("overflow")
	if err := q.Enqueue(&extra); !errors.Is(err, ErrFull) {
		t.Fatalf("Expected ErrFull, got %v", err)
	}

	if q.Len() != 3 {
		t.Errorf("Expected length 3 after rejected enqueue, got %d", q.Len())
	}

	var cmd command.Command
	for i := 0; i < 3; i++ {
		if !q.Dequeue(&cmd) {
			t.Fatalf("Expected command %d after rejected enqueue", i)
		}
		want := fmt.Sprintf("topic-%d", i)
		if got := string(cmd.Topic()); got != want {
			t.Errorf("Position %d: expected topic %q, got %q", i, want, got)
		}
	}
}

func TestReuseAfterDrain(t *testing.T) {
	q := New(2)
	var cmd command.Command

	for cycle := 0; cycle < 5; cycle++ {
		a, _ := command.NewSubscribe("first")
		b, _ := command.NewSubscribe("second")
		if err := q.Enqueue(&a); err != nil {
			t.Fatalf("Cycle %d: enqueue failed: %v", cycle, err)
		}
		if err := q.Enqueue(&b); err != nil {
			t.Fatalf("Cycle %d: enqueue failed: %v", cycle, err)
		}
		if err := q.Enqueue(&a); !errors.Is(err, ErrFull) {
			t.Fatalf("Cycle %d: expected ErrFull, got %v", cycle, err)
		}

		if !q.Dequeue(&cmd) || string(cmd.Topic()) != "first" {
			t.Fatalf("Cycle %d: expected 'first', got %q", cycle, cmd.Topic())
		}
		if !q.Dequeue(&cmd) || string(cmd.Topic()) != "second" {
			t.Fatalf("Cycle %d: expected 'second', got %q", cycle, cmd.Topic())
		}
	}
}

func TestConcurrentProducers(t *testing.T) {
	const producers = 8
	const perProducer = 100

	q := New(producers * perProducer)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				cmd, _ := command.NewSubscribe(fmt.Sprintf("p%d-%d", p, i))
				if err := q.Enqueue(&cmd); err != nil {
					t.Errorf("Producer %d enqueue %d failed: %v", p, i, err)
					return
				}
			}
		}(p)
	}
	wg.Wait()

	if q.Len() != producers*perProducer {
		t.Fatalf("Expected %d queued commands, got %d", producers*perProducer, q.Len())
	}

	// Per-producer order must be preserved even though producers interleave.
	next := make(map[string]int)
	var cmd command.Command
	for q.Dequeue(&cmd) {
		var p, i int
		if _, err := fmt.Sscanf(string(cmd.Topic()), "p%d-%d", &p, &i); err != nil {
			t.Fatalf("Unparseable topic %q: %v", cmd.Topic(), err)
		}
		key := fmt.Sprintf("p%d", p)
		if i != next[key] {
			t.Fatalf("Producer %d: expected sequence %d, got %d", p, next[key], i)
		}
		next[key]++
	}
}

func TestMinimumCapacity(t *testing.T) {
	q := New(0)
	if q.Cap() != 1 {
		t.Errorf("Expected capacity to be clamped to 1, got %d", q.Cap())
	}
}
