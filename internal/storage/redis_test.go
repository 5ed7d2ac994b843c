package storage

import (
	"os"
	"testing"

	"github.com/google/uuid"
)

// Runs only when THREADLINE_TEST_REDIS_ADDR points at a disposable server.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("THREADLINE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("THREADLINE_TEST_REDIS_ADDR not set")
	}

	store, err := NewRedisStore(RedisConfig{Addr: addr, Prefix: "threadline-test-" + uuid.NewString()})
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer store.Close()

	if _, ok, err := store.Get(KeyCredentials); err != nil || ok {
		t.Fatalf("Expected absent key, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(KeyCredentials, `{"accounts":[]}`); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}
	if v, ok, _ := store.Get(KeyCredentials); !ok || v != `{"accounts":[]}` {
		t.Errorf("Unexpected value %q", v)
	}

	if err := store.Remove(KeyCredentials); err != nil {
		t.Fatalf("Failed to remove: %v", err)
	}
	if _, ok, _ := store.Get(KeyCredentials); ok {
		t.Error("Expected key to be removed")
	}
}

func TestNewRedisStoreRequiresAddr(t *testing.T) {
	if _, err := NewRedisStore(RedisConfig{}); err == nil {
		t.Error("Expected error for empty address")
	}
}
