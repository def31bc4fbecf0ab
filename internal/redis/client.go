package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"cafeteria/internal/models"

	"github.com/go-redis/redis/v8"
)

const orderEventsChannel = "orders:events"

type Client struct {
	rdb *redis.Client
}

func Initialize(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Cart slots
//
// Each device owns one cart, stored as a JSON array under a fixed key
// prefix. A blob that fails to parse is discarded and replaced with an
// empty cart rather than surfaced to the caller.

func (c *Client) SetCart(deviceID string, items []models.CartItem, ttl time.Duration) error {
	ctx := context.Background()
	jsonData, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}

	return c.rdb.Set(ctx, "cart:"+deviceID, jsonData, ttl).Err()
}

func (c *Client) GetCart(deviceID string) ([]models.CartItem, error) {
	ctx := context.Background()
	val, err := c.rdb.Get(ctx, "cart:"+deviceID).Result()
	if err != nil {
		if err == redis.Nil {
			return []models.CartItem{}, nil
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(val), &items); err != nil {
		log.Printf("Warning: discarding unparseable cart for device %s: %v", deviceID, err)
		c.rdb.Del(ctx, "cart:"+deviceID)
		return []models.CartItem{}, nil
	}

	return items, nil
}

func (c *Client) DeleteCart(deviceID string) error {
	ctx := context.Background()
	return c.rdb.Del(ctx, "cart:"+deviceID).Err()
}

// Menu cache

func (c *Client) SetMenuCache(items []models.MenuItem, ttl time.Duration) error {
	ctx := context.Background()
	jsonData, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal menu cache: %w", err)
	}

	return c.rdb.Set(ctx, "cache:menu", jsonData, ttl).Err()
}

func (c *Client) GetMenuCache() ([]models.MenuItem, error) {
	ctx := context.Background()
	val, err := c.rdb.Get(ctx, "cache:menu").Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("menu cache miss")
		}
		return nil, fmt.Errorf("failed to get menu cache: %w", err)
	}

	var items []models.MenuItem
	if err := json.Unmarshal([]byte(val), &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal menu cache: %w", err)
	}

	return items, nil
}

func (c *Client) InvalidateMenuCache() error {
	ctx := context.Background()
	return c.rdb.Del(ctx, "cache:menu").Err()
}

// Order events
//
// Every order write publishes the order id on a pub/sub channel;
// subscribers re-query the full collection and push a fresh snapshot.

func (c *Client) PublishOrderEvent(orderID string) error {
	ctx := context.Background()
	return c.rdb.Publish(ctx, orderEventsChannel, orderID).Err()
}

// SubscribeOrderEvents returns a channel of order ids and a closer.
// The channel is closed when the context is cancelled or the closer is
// called.
func (c *Client) SubscribeOrderEvents(ctx context.Context) (<-chan string, func() error) {
	pubsub := c.rdb.Subscribe(ctx, orderEventsChannel)
	events := make(chan string)

	go func() {
		defer close(events)
		for {
			select {
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				select {
				case events <- msg.Payload:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, pubsub.Close
}

// Close Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
