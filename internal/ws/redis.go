package ws

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/VaibhavRohilla/plinko/internal/config"
)

var rdbClient *redis.Client
var wsConfig *config.Config

func SetRedisClient(r *redis.Client, cfg *config.Config) {
	rdbClient = r
	wsConfig = cfg
}

// StartEventSubscriber subscribes to the plinko_events channel and relays
// resolve/void events to connected spectators. Going through Redis rather
// than calling the hub directly keeps multi-instance deployments in sync:
// every instance sees every instance's settlements.
func StartEventSubscriber(ctx context.Context) {
	if rdbClient == nil {
		log.Println("[WS] Redis client not set; event subscriber not started")
		return
	}

	pubsub := rdbClient.Subscribe(ctx, "plinko_events")
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Println("[WS] plinko_events subscriber started")
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				BoardHub.broadcastRaw([]byte(msg.Payload))
			}
		}
	}()
}
