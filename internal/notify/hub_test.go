// README: Hub coalescing and filtering tests.
package notify

import (
	"testing"
	"time"
)

func TestPublishReachesMatchingSubscribers(t *testing.T) {
	hub := NewHub()

	all, cancelAll := hub.Subscribe(Filter{})
	defer cancelAll()
	mine, cancelMine := hub.Subscribe(Filter{PassengerID: "p1"})
	defer cancelMine()
	other, cancelOther := hub.Subscribe(Filter{PassengerID: "p2"})
	defer cancelOther()

	hub.RideChanged("r1", "p1", "update")

	select {
	case e := <-all:
		if e.RideID != "r1" || e.Kind != "update" || e.Table != "rides" {
			t.Fatalf("unexpected event: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("unfiltered subscriber did not receive the event")
	}

	select {
	case e := <-mine:
		if e.PassengerID != "p1" {
			t.Fatalf("unexpected event: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("matching subscriber did not receive the event")
	}

	select {
	case e := <-other:
		t.Fatalf("non-matching subscriber received event: %+v", e)
	default:
	}
}

func TestPublishCoalescesWhenUndrained(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(Filter{RideID: "r1"})
	defer cancel()

	// Three rapid changes while the subscriber is not reading. At least one
	// event must survive so the subscriber still wakes up and re-fetches.
	hub.RideChanged("r1", "p1", "update")
	hub.RideChanged("r1", "p1", "update")
	hub.RideChanged("r1", "p1", "update")

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected at least one coalesced event")
	}

	select {
	case e := <-ch:
		t.Fatalf("expected coalesced delivery, got extra event %+v", e)
	default:
	}
}

func TestCancelClosesChannel(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(Filter{})
	cancel()
	// cancel is idempotent
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after cancel")
	}

	// Publishing after cancel must not panic or deliver.
	hub.RideChanged("r1", "p1", "update")
}

func TestFilterByRide(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(Filter{RideID: "r1"})
	defer cancel()

	hub.RideChanged("r2", "p1", "update")
	select {
	case e := <-ch:
		t.Fatalf("subscriber for r1 received event for %s", e.RideID)
	default:
	}

	hub.RideChanged("r1", "p1", "update")
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("subscriber for r1 did not receive its event")
	}
}
