package api

import (
	"testing"
	"time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	runID := "run1"
	ch := b.Subscribe(runID)

	evt := SSEEvent{Type: "run.completed", Data: map[string]any{"x": 1}}
	b.Publish(runID, evt)

	select {
	case got := <-ch:
		if got.Type != evt.Type {
			t.Fatalf("got type %s, want %s", got.Type, evt.Type)
		}
		if got.Data["x"].(int) != 1 {
			t.Fatalf("bad payload: %+v", got.Data)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	b.Unsubscribe(runID, ch)
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("channel should be closed after unsubscribe")
		}
	case <-time.After(50 * time.Millisecond):
		// acceptable if already drained and closed
	}
}

func TestBrokerDropsWhenSubscriberSlow(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("run2")
	defer b.Unsubscribe("run2", ch)

	// Fill the buffer and some more; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish("run2", SSEEvent{Type: "e", Data: map[string]any{"i": i}})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}
}
