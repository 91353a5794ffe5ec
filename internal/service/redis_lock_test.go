package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestRedisLockerSerializesSameKey(t *testing.T) {
	_, rdb := newTestRedis(t)
	l := NewRedisLocker(rdb, 5*time.Second)
	l.RetryDelay = time.Millisecond
	key := attemptLockKey(1, 42)

	var (
		mu      sync.Mutex
		inside  int
		overlap bool
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), key)
			if err != nil {
				t.Errorf("Lock: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > 1 {
				overlap = true
			}
			mu.Unlock()

			time.Sleep(2 * time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	if overlap {
		t.Fatalf("two holders inside the same key at once")
	}
	if n, err := rdb.Exists(context.Background(), "lock:"+key).Result(); err != nil || n != 0 {
		t.Fatalf("lock key left behind: exists = %d, %v", n, err)
	}
}

func TestRedisLockerTimesOut(t *testing.T) {
	_, rdb := newTestRedis(t)
	key := attemptLockKey(2, 42)

	holder := NewRedisLocker(rdb, 5*time.Second)
	unlock, err := holder.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer unlock()

	waiter := &RedisLocker{Redis: rdb, TTL: 5 * time.Second, RetryDelay: 5 * time.Millisecond, MaxWait: 30 * time.Millisecond}
	if _, err := waiter.Lock(context.Background(), key); !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("second Lock error = %v, want ErrLockTimeout", err)
	}
}

func TestRedisLockerReleasesOnlyOwnToken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	key := attemptLockKey(3, 42)
	redisKey := "lock:" + key
	l := NewRedisLocker(rdb, time.Second)

	unlockA, err := l.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("Lock A: %v", err)
	}

	// A 的锁过期后由 B 获得
	mr.FastForward(2 * time.Second)
	unlockB, err := l.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("Lock B after expiry: %v", err)
	}

	unlockA()
	if !mr.Exists(redisKey) {
		t.Fatalf("stale holder released the current holder's lock")
	}

	unlockB()
	if mr.Exists(redisKey) {
		t.Fatalf("lock key still present after owner released it")
	}
}
