package redisconnect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClientUsesConfig(t *testing.T) {
	client := NewClient(RedisConfig{Host: "cache", Port: "6380", DB: 2})
	defer client.Close()

	assert.Equal(t, "cache:6380", client.Options().Addr)
	assert.Equal(t, 2, client.Options().DB)
}
