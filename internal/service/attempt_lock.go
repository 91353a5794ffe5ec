package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"lms_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Locker 为 (quiz, student) 开始答题提供互斥，返回的 unlock 必须调用
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

func attemptLockKey(quizID, studentID uint) string {
	return fmt.Sprintf("quiz:%d:student:%d:start", quizID, studentID)
}

// LocalLocker 单实例部署时使用的按 key 互斥锁
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*keyLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, kl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.ch
			l.release(key, kl)
		})
	}, nil
}

func (l *LocalLocker) release(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

var ErrLockTimeout = errors.New("timed out acquiring attempt lock")

// 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker 多实例部署时基于 SET NX PX 的分布式锁
type RedisLocker struct {
	Redis      *redis.Client
	TTL        time.Duration
	RetryDelay time.Duration
	MaxWait    time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		Redis:      rdb,
		TTL:        ttl,
		RetryDelay: 25 * time.Millisecond,
		MaxWait:    ttl,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.New().String()
	redisKey := "lock:" + key
	deadline := time.Now().Add(l.MaxWait)

	for {
		ok, err := l.Redis.SetNX(ctx, redisKey, token, l.TTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-time.After(l.RetryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// 请求上下文可能已取消，释放锁使用独立上下文
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.Redis, []string{redisKey}, token).Err(); err != nil {
				logger.Log.Warn("Failed to release attempt lock", zap.String("key", redisKey), zap.Error(err))
			}
		})
	}, nil
}
