package cache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNilCacheAlwaysMisses(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	if _, err := c.Get(ctx, "key"); err != ErrMiss {
		t.Errorf("expected ErrMiss, got %v", err)
	}

	// must not panic
	c.Set(ctx, "key", "value")
	c.Delete(ctx, "key")
	c.Close()
}

func TestNewWithoutAddr(t *testing.T) {
	c, err := New("", time.Minute, zap.NewNop())
	if err != nil {
		t.Fatalf("New with empty addr: %v", err)
	}
	if c != nil {
		t.Error("expected nil cache when no address is configured")
	}
}
