package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	t.Parallel()
	d := NewInMemoryDispatcher()

	var seen []string
	d.Subscribe(EventTicketCreated, func(_ context.Context, event Event) error {
		seen = append(seen, "first:"+event.TicketID)
		return nil
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, event Event) error {
		seen = append(seen, "second:"+event.TicketID)
		return nil
	})
	d.Subscribe(EventTicketAssigned, func(_ context.Context, _ Event) error {
		t.Error("wrong event type delivered")
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(seen) != 2 || seen[0] != "first:t1" || seen[1] != "second:t1" {
		t.Errorf("deliveries = %v", seen)
	}
}

func TestDispatcherHandlerErrorDoesNotStopDelivery(t *testing.T) {
	t.Parallel()
	d := NewInMemoryDispatcher()

	delivered := false
	d.Subscribe(EventTicketStatusChanged, func(_ context.Context, _ Event) error {
		return errors.New("handler blew up")
	})
	d.Subscribe(EventTicketStatusChanged, func(_ context.Context, _ Event) error {
		delivered = true
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketStatusChanged, TicketID: "t1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !delivered {
		t.Error("later handler skipped after earlier handler error")
	}
}

func TestDispatcherNoSubscribers(t *testing.T) {
	t.Parallel()
	d := NewInMemoryDispatcher()
	if err := d.Publish(context.Background(), Event{Type: EventTicketMessageAdded}); err != nil {
		t.Errorf("publish without subscribers: %v", err)
	}
}
