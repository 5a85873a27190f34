package redisconnect

import (
	"context"
	"fmt"

	nrredis "github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
)

// NewClient builds a client with the New Relic hook installed, without connecting
func NewClient(config RedisConfig) *redis.Client {
	opts := &redis.Options{
		Addr:     config.Addr(),
		Password: config.Password,
		DB:       config.DB,
	}
	redisClient := redis.NewClient(opts)
	redisClient.AddHook(nrredis.NewHook(opts))
	return redisClient
}

func ConnectRedis(config RedisConfig) (redisClient *redis.Client, err error) {
	redisClient = NewClient(config)
	if err = redisClient.Ping(context.Background()).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("failed to connect to redis %s: %w", config.Addr(), err)
	}
	return redisClient, nil
}
