package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/layermap/pkg/cache"
)

func TestNewCache(t *testing.T) {
	t.Run("no-cache", func(t *testing.T) {
		c, err := newCache(true)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := c.(cache.NullCache); !ok {
			t.Errorf("newCache(true) = %T, want NullCache", c)
		}
	})

	t.Run("xdg", func(t *testing.T) {
		base := t.TempDir()
		t.Setenv("XDG_CACHE_HOME", base)

		c, err := newCache(false)
		if err != nil {
			t.Fatal(err)
		}
		fc, ok := c.(*cache.FileCache)
		if !ok {
			t.Fatalf("newCache(false) = %T, want *FileCache", c)
		}
		if want := filepath.Join(base, appName); fc.Dir() != want {
			t.Errorf("cache dir = %q, want %q", fc.Dir(), want)
		}
	})
}

func TestCacheClearCommand(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", base)

	fc, err := cache.NewFileCache(cache.DefaultDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, key := range []string{"a", "b", "c"} {
		if err := fc.Set(ctx, key, []byte(key), 0); err != nil {
			t.Fatal(err)
		}
	}

	root := New(os.Stderr, LogInfo).RootCommand()
	root.SetArgs([]string{"cache", "clear"})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache clear: %v", err)
	}

	for _, key := range []string{"a", "b", "c"} {
		if _, ok, _ := fc.Get(ctx, key); ok {
			t.Errorf("key %q survived cache clear", key)
		}
	}
	if !strings.HasPrefix(fc.Dir(), base) {
		t.Errorf("cache dir %q outside XDG_CACHE_HOME", fc.Dir())
	}
}
