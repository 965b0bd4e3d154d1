package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRedisStore struct {
	values map[string]string
	setNXs int
}

func newFakeRedisStore() *fakeRedisStore {
	return &fakeRedisStore{values: map[string]string{}}
}

func (f *fakeRedisStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.setNXs++
	if _, exists := f.values[key]; exists {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeRedisStore) Get(_ context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeRedisStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestRedisLockAcquireAndRelease(t *testing.T) {
	store := newFakeRedisStore()
	lock, err := NewRedisLock(store, "locks:cron", time.Minute)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}
	ctx := context.Background()

	ok, err := lock.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed, ok=%v err=%v", ok, err)
	}
	if ok, _ := lock.Acquire(ctx); ok {
		t.Fatalf("expected second acquire to fail while held")
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, exists := store.values["locks:cron"]; exists {
		t.Fatalf("expected lock key deleted after release")
	}
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatalf("expected re-acquire after release")
	}
}

func TestRedisLockReleaseSkipsForeignOwner(t *testing.T) {
	store := newFakeRedisStore()
	lock, err := NewRedisLock(store, "locks:cron", time.Minute)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}
	ctx := context.Background()
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatalf("expected acquire to succeed")
	}
	// simulate a lease expiry followed by another replica taking the lock
	store.values["locks:cron"] = "someone-else"
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.values["locks:cron"] != "someone-else" {
		t.Fatalf("expected foreign lock untouched")
	}
}

func TestRedisLockReleaseNoopsWhenKeyGone(t *testing.T) {
	store := newFakeRedisStore()
	lock, err := NewRedisLock(store, "locks:cron", time.Minute)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}
	ctx := context.Background()
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatalf("expected acquire to succeed")
	}
	delete(store.values, "locks:cron")
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("expected release to tolerate missing key, got %v", err)
	}
}

func TestNewRedisLockValidation(t *testing.T) {
	if _, err := NewRedisLock(nil, "key", time.Minute); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if _, err := NewRedisLock(newFakeRedisStore(), "", time.Minute); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
