package cache

import (
	"testing"
	"time"
)

func TestNew_Memory(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute})
	defer func() { _ = c.Close() }()
	if _, ok := c.(*MemoryCache); !ok {
		t.Errorf("New() = %T, want *MemoryCache", c)
	}
}

func TestNew_RedisFallback(t *testing.T) {
	// Port 1 is never a Redis server.
	c := New(Config{RedisURL: "redis://127.0.0.1:1/0", DefaultTTL: time.Minute})
	defer func() { _ = c.Close() }()
	if _, ok := c.(*MemoryCache); !ok {
		t.Errorf("New() with unreachable redis = %T, want *MemoryCache", c)
	}
}
