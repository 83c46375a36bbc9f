// README: Redis pub/sub bridge; fans ride changes out across API instances
// before they reach each instance's local hub.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

const (
	channel = "shuttle:ride_changes"

	// Publishing happens on the controller's commit path; a wedged broker
	// must not hold a transition hostage.
	publishTimeout = 2 * time.Second
)

// Bridge publishes ride changes to a Redis channel and forwards messages
// received on it into the local hub. Controllers notify the bridge, not the
// hub, so every instance's subscribers wake up.
type Bridge struct {
	redis *redis.Client
	hub   *Hub
	log   *logrus.Logger
}

func NewBridge(rdb *redis.Client, hub *Hub, log *logrus.Logger) *Bridge {
	if log == nil {
		log = logrus.New()
	}
	return &Bridge{redis: rdb, hub: hub, log: log}
}

// RideChanged implements the ride controller's notifier. Publish failures are
// logged and the event is delivered to the local hub regardless, so the
// originating instance's subscribers are never starved by a broker outage.
func (b *Bridge) RideChanged(rideID, passengerID types.ID, kind string) {
	e := Event{Table: "rides", Kind: kind, RideID: rideID, PassengerID: passengerID}
	payload, err := json.Marshal(e)
	if err != nil {
		b.hub.Publish(e)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := b.redis.Publish(ctx, channel, payload).Err(); err != nil {
		b.log.WithError(err).Warn("ride change publish failed; delivering locally only")
		b.hub.Publish(e)
	}
}

// Run consumes the Redis channel and feeds the local hub until ctx ends.
func (b *Bridge) Run(ctx context.Context) {
	sub := b.redis.Subscribe(ctx, channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				b.log.WithError(err).Warn("dropping malformed ride change message")
				continue
			}
			b.hub.Publish(e)
		}
	}
}
