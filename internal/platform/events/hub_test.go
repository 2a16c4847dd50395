package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func newClient(topics ...string) *Client {
	return &Client{
		ID:     "test-client",
		Topics: topics,
		Send:   make(chan []byte, 8),
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub()
	c := newClient("appointments")

	hub.Register(c)
	if hub.ClientCount() != 1 || hub.TopicCount("appointments") != 1 {
		t.Fatalf("after register: clients=%d topic=%d", hub.ClientCount(), hub.TopicCount("appointments"))
	}

	hub.Unregister(c)
	if hub.ClientCount() != 0 || hub.TopicCount("appointments") != 0 {
		t.Fatalf("after unregister: clients=%d topic=%d", hub.ClientCount(), hub.TopicCount("appointments"))
	}

	// Double unregister must be a no-op, not a panic on a closed channel.
	hub.Unregister(c)
}

func TestHubBroadcastReachesSubscribersOnly(t *testing.T) {
	hub := NewHub()
	sub := newClient("appointments")
	other := newClient("inbox:42")
	hub.Register(sub)
	hub.Register(other)

	ev, err := NewEvent("appointment.booked", "appointments", map[string]string{"id": "a1"})
	if err != nil {
		t.Fatalf("NewEvent failed: %v", err)
	}
	if err := hub.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case raw := <-sub.Send:
		var got Event
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		if got.Type != "appointment.booked" || got.Topic != "appointments" {
			t.Errorf("got event %+v", got)
		}
	default:
		t.Fatal("subscriber received nothing")
	}

	select {
	case <-other.Send:
		t.Fatal("client on an unrelated topic received the event")
	default:
	}
}

func TestHubDynamicSubscription(t *testing.T) {
	hub := NewHub()
	c := newClient()
	hub.Register(c)

	hub.ProcessMessage(c, ClientMessage{Action: "subscribe", Topics: []string{"doctor:d1"}})
	if hub.TopicCount("doctor:d1") != 1 {
		t.Fatal("subscribe did not take effect")
	}

	hub.ProcessMessage(c, ClientMessage{Action: "unsubscribe", Topics: []string{"doctor:d1"}})
	if hub.TopicCount("doctor:d1") != 0 {
		t.Fatal("unsubscribe did not take effect")
	}
	if len(c.Topics) != 0 {
		t.Errorf("client still tracks topics %v", c.Topics)
	}
}

func TestHubFullClientBufferDoesNotBlock(t *testing.T) {
	hub := NewHub()
	c := &Client{ID: "slow", Topics: []string{"t"}, Send: make(chan []byte)} // no buffer, never drained
	hub.Register(c)

	ev, _ := NewEvent("x", "t", nil)
	done := make(chan struct{})
	go func() {
		hub.Broadcast("t", ev)
		close(done)
	}()
	<-done // must return promptly even though the client cannot receive
}

func TestFanoutContinuesPastFailure(t *testing.T) {
	var delivered []string
	ok := publisherFunc(func(_ context.Context, ev Event) error {
		delivered = append(delivered, ev.Topic)
		return nil
	})
	failing := publisherFunc(func(context.Context, Event) error {
		return context.DeadlineExceeded
	})

	f := Fanout{failing, ok}
	ev, _ := NewEvent("x", "t", nil)
	if err := f.Publish(context.Background(), ev); err == nil {
		t.Error("expected the first sink's error to surface")
	}
	if len(delivered) != 1 {
		t.Errorf("later sink not reached: %v", delivered)
	}
}

func TestLogSink(t *testing.T) {
	sink := NewLogSink(zerolog.Nop())
	ev, err := NewEvent("appointment.booked", "appointments", map[string]int{"n": 1})
	if err != nil {
		t.Fatalf("NewEvent failed: %v", err)
	}
	if err := sink.Publish(context.Background(), ev); err != nil {
		t.Errorf("LogSink.Publish failed: %v", err)
	}
}

type publisherFunc func(context.Context, Event) error

func (f publisherFunc) Publish(ctx context.Context, ev Event) error { return f(ctx, ev) }
