package cli

import (
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/matzehuels/layermap/pkg/cache"
	"github.com/matzehuels/layermap/pkg/store"
)

func TestServerCache(t *testing.T) {
	c := New(os.Stderr, LogInfo)
	ctx := withLogger(context.Background(), c.Logger)

	t.Run("redis", func(t *testing.T) {
		mr, err := miniredis.Run()
		if err != nil {
			t.Fatalf("miniredis: %v", err)
		}
		defer mr.Close()

		cch, err := c.serverCache(ctx, serveConfig{redisAddr: mr.Addr()})
		if err != nil {
			t.Fatalf("serverCache: %v", err)
		}
		defer cch.Close()
		if _, ok := cch.(*cache.RedisCache); !ok {
			t.Errorf("serverCache = %T, want *RedisCache", cch)
		}
	})

	t.Run("no-cache ignores redis", func(t *testing.T) {
		cch, err := c.serverCache(ctx, serveConfig{redisAddr: "127.0.0.1:1", noCache: true})
		if err != nil {
			t.Fatalf("serverCache: %v", err)
		}
		if _, ok := cch.(cache.NullCache); !ok {
			t.Errorf("serverCache = %T, want NullCache", cch)
		}
	})
}

func TestOpenStoreDefaultsToMemory(t *testing.T) {
	st, err := openStore(context.Background(), serveConfig{})
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer st.Close(context.Background())
	if _, ok := st.(*store.MemoryStore); !ok {
		t.Errorf("openStore = %T, want *MemoryStore", st)
	}
}
