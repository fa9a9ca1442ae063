package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/DeeipChheda/warmup-master-main/internal/lock"
)

const (
	defaultLockTTL   = 30 * time.Second
	lockRetryStep    = 10 * time.Millisecond
	lockRetryMax     = 100 * time.Millisecond
	lockReleaseLimit = 2 * time.Second
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

var _ lock.Locker = (*RedisLocker)(nil)

// RedisLocker is a distributed lock keyed per identity or tenant, shared by
// the API, the dispatch workers and the warmup cycle.
type RedisLocker struct {
	client   *goredis.Client
	ttl      time.Duration
	newToken func() string
	sleep    func(ctx context.Context, d time.Duration) error
	logger   *zap.Logger
}

func NewRedisLocker(client *goredis.Client, ttl time.Duration, logger *zap.Logger) (*RedisLocker, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RedisLocker{
		client:   client,
		ttl:      ttl,
		newToken: uuid.NewString,
		sleep:    sleepWithContext,
		logger:   logger,
	}, nil
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("lock key is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisKey := "warmup:lock:" + key
	token := l.newToken()

	backoff := lockRetryStep
	for {
		acquired, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if acquired {
			break
		}

		if err := l.sleep(ctx, backoff); err != nil {
			return nil, err
		}
		backoff = min(backoff+lockRetryStep, lockRetryMax)
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(redisKey, token) })
	}, nil
}

// release runs on a fresh context so a cancelled caller still frees the key.
func (l *RedisLocker) release(redisKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), lockReleaseLimit)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
		l.logger.Warn("failed to release lock",
			zap.String("key", redisKey),
			zap.Error(err),
		)
	}
}
