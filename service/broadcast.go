package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// RedisBroadcaster publishes unit availability on a per-unit channel so
// websocket clients watching a sector see holds and sales live.
type RedisBroadcaster struct {
	client *redis.Client
}

func NewRedisBroadcaster(client *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{client: client}
}

// ChannelFor names the pub/sub channel of one inventory unit.
func ChannelFor(unitID string) string {
	return fmt.Sprintf("inventory:%s", unitID)
}

func (b *RedisBroadcaster) Availability(unitID string, available int) {
	payload, _ := json.Marshal(map[string]any{
		"unitId":    unitID,
		"available": available,
	})
	if err := b.client.Publish(context.Background(), ChannelFor(unitID), payload).Err(); err != nil {
		log.Printf("broadcast %s: %v", unitID, err)
	}
}
