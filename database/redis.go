package database

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"bookingtrack/api/config"
)

type RedisClient struct {
	Client *redis.Client
}

func NewRedisClient(cfg config.RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.Database,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	log.Printf("Connected to Redis at %s (db=%d)", cfg.Address, cfg.Database)
	return &RedisClient{Client: client}, nil
}

func (c *RedisClient) Close() {
	if c.Client != nil {
		if err := c.Client.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
			return
		}
		log.Println("Redis connection closed.")
	}
}
