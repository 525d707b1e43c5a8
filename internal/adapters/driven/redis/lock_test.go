package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis starts miniredis and returns a client plus cleanup
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestLock_OwnerID_Unique(t *testing.T) {
	client, _ := setupTestRedis(t)

	lock1 := NewLock(client)
	lock2 := NewLock(client)

	if lock1.OwnerID() == "" {
		t.Fatal("expected non-empty owner ID")
	}
	if lock1.OwnerID() == lock2.OwnerID() {
		t.Errorf("expected unique owner IDs, got same: %s", lock1.OwnerID())
	}
}

func TestLock_AcquireRelease(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	lock1 := NewLock(client)
	lock2 := NewLock(client)

	acquired, err := lock1.Acquire(ctx, "query-log-retention", 10*time.Second)
	if err != nil || !acquired {
		t.Fatalf("expected first lock to acquire, got %v (%v)", acquired, err)
	}
	if got, _ := mr.Get(lockPrefix + "query-log-retention"); got != lock1.OwnerID() {
		t.Errorf("expected lock value %s, got %s", lock1.OwnerID(), got)
	}

	acquired, err = lock2.Acquire(ctx, "query-log-retention", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acquired {
		t.Error("expected second lock to fail")
	}

	// a foreign release leaves the lock in place
	if err := lock2.Release(ctx, "query-log-retention"); err != nil {
		t.Fatalf("unexpected error on release: %v", err)
	}
	if !mr.Exists(lockPrefix + "query-log-retention") {
		t.Fatal("expected lock to survive a foreign release")
	}

	if err := lock1.Release(ctx, "query-log-retention"); err != nil {
		t.Fatalf("unexpected error on release: %v", err)
	}
	acquired, err = lock2.Acquire(ctx, "query-log-retention", 10*time.Second)
	if err != nil || !acquired {
		t.Errorf("expected lock to be free after release, got %v (%v)", acquired, err)
	}
}

func TestLock_Expires(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	lock := NewLock(client)
	if ok, _ := lock.Acquire(ctx, "job", time.Second); !ok {
		t.Fatal("expected to acquire lock")
	}

	mr.FastForward(2 * time.Second)

	if ok, _ := NewLock(client).Acquire(ctx, "job", time.Second); !ok {
		t.Error("expected expired lock to be acquirable")
	}
}

func TestLock_Release_NotHeld(t *testing.T) {
	client, _ := setupTestRedis(t)

	if err := NewLock(client).Release(context.Background(), "never-acquired"); err != nil {
		t.Errorf("expected no error releasing a free lock, got %v", err)
	}
}

func TestLock_Ping(t *testing.T) {
	client, mr := setupTestRedis(t)
	lock := NewLock(client)

	if err := lock.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}

	mr.Close()
	if err := lock.Ping(context.Background()); err == nil {
		t.Error("expected ping to fail after shutdown")
	}
}
