package handlers

import (
	"context"
	"io"
	"log"

	"cafeteria/internal/services"

	"github.com/gin-gonic/gin"
)

// OrderEventSource delivers order-change notifications; backed by the
// Redis pub/sub channel.
type OrderEventSource interface {
	SubscribeOrderEvents(ctx context.Context) (<-chan string, func() error)
}

type StreamHandler struct {
	orderService services.OrderService
	events       OrderEventSource
}

func NewStreamHandler(orderService services.OrderService, events OrderEventSource) *StreamHandler {
	return &StreamHandler{orderService: orderService, events: events}
}

// StreamOrders pushes the full order collection over SSE: one snapshot
// on connect and one after every order write. Entry order within a
// snapshot carries no meaning.
func (h *StreamHandler) StreamOrders(c *gin.Context) {
	ctx := c.Request.Context()
	events, closeSub := h.events.SubscribeOrderEvents(ctx)
	defer func() {
		if err := closeSub(); err != nil {
			log.Printf("Warning: failed to close order event subscription: %v", err)
		}
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	sendSnapshot := func() {
		orders, err := h.orderService.GetAllOrders()
		if err != nil {
			log.Printf("Warning: failed to load orders for stream: %v", err)
			return
		}
		c.SSEvent("snapshot", orders)
	}

	sendSnapshot()
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case _, ok := <-events:
			if !ok {
				return false
			}
			sendSnapshot()
			return true
		case <-ctx.Done():
			return false
		}
	})
}
