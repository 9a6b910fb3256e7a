package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// EventChannel is the pubsub channel carrying session events for an account.
func EventChannel(accountID string) string {
	return fmt.Sprintf("events:%s", accountID)
}

// StatsKey is the cache key for an account's dashboard stats.
func StatsKey(accountID string) string {
	return fmt.Sprintf("stats:dashboard:%s", accountID)
}
