package stratacache

import (
	"testing"
	"time"
)

func TestLocalInvalidationBusDeliversToOtherSubscribers(t *testing.T) {
	bus := newLocalInvalidationBus()
	defer bus.Close()

	ch, unsubscribe := bus.Subscribe("instance-b")
	defer unsubscribe()

	bus.Publish("instance-a", "user:1")

	select {
	case msg := <-ch:
		if msg.key != "user:1" || msg.originID != "instance-a" {
			t.Errorf("got %+v, want key=user:1 originID=instance-a", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for invalidation message")
	}
}

func TestLocalInvalidationBusWildcardForClear(t *testing.T) {
	bus := newLocalInvalidationBus()
	defer bus.Close()

	ch, unsubscribe := bus.Subscribe("instance-b")
	defer unsubscribe()

	bus.Publish("instance-a", invalidationWildcard)

	select {
	case msg := <-ch:
		if msg.key != invalidationWildcard {
			t.Errorf("key = %q, want wildcard", msg.key)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for wildcard invalidation")
	}
}

func TestLocalInvalidationBusClosePreventsFurtherPublish(t *testing.T) {
	bus := newLocalInvalidationBus()
	ch, unsubscribe := bus.Subscribe("instance-b")
	defer unsubscribe()

	bus.Close()
	bus.Publish("instance-a", "user:1") // must not panic or block

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to be closed, not to receive a message")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close after bus.Close()")
	}
}

func TestLocalInvalidationBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := newLocalInvalidationBus()
	defer bus.Close()

	ch, unsubscribe := bus.Subscribe("instance-b")
	unsubscribe()

	bus.Publish("instance-a", "user:1")

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("unsubscribed channel should not receive further messages")
		}
	case <-time.After(50 * time.Millisecond):
		// No message and channel not closed-with-value: acceptable, since
		// unsubscribe closes the channel immediately.
	}
}
