package handler

import (
	"club_manager/service"
	"context"
	"log"

	"github.com/gofiber/contrib/websocket"
)

// InventoryFeed streams availability updates for one inventory unit over
// websocket, backed by the redis channel the ledger broadcasts on.
func (h *Handler) InventoryFeed(c *websocket.Conn) {
	unitID := c.Params("unitId")
	defer c.Close()

	pubsub := h.Redis.Subscribe(context.Background(), service.ChannelFor(unitID))
	defer pubsub.Close()

	// Writer: forward redis messages to the socket.
	go func() {
		for msg := range pubsub.Channel() {
			if err := c.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.Printf("inventory feed %s: %v", unitID, err)
				pubsub.Close()
				return
			}
		}
	}()

	// Reader: keep the connection until the client goes away.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
