// README: Bridge fallback tests; no live Redis required.
package notify

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func TestBridgeDeliversLocallyWhenBrokerUnreachable(t *testing.T) {
	hub := NewHub()
	events, cancel := hub.Subscribe(Filter{})
	defer cancel()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()
	bridge := NewBridge(rdb, hub, log)

	start := time.Now()
	bridge.RideChanged("r1", "p1", "update")
	if elapsed := time.Since(start); elapsed > publishTimeout+time.Second {
		t.Fatalf("publish against a dead broker took %s", elapsed)
	}

	select {
	case e := <-events:
		if e.RideID != "r1" || e.Kind != "update" {
			t.Fatalf("unexpected event: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("event was not delivered to the local hub")
	}
}
