package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyCheckout is idem:checkout:{user_id}:{idempotency_key}. Keys are scoped
// per user so one caller cannot replay another caller's response.
const KeyCheckout = "idem:checkout:%d:%s"

const pendingMarker = "pending"

var ErrInProgress = errors.New("a request with this idempotency key is already in progress")

// Response is the stored result of a completed request.
type Response struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
}

type Store interface {
	// Begin reserves key for the caller. A non-nil Response means the request
	// already completed and must be replayed instead of executed again.
	Begin(ctx context.Context, userID uint, key string) (*Response, error)
	Complete(ctx context.Context, userID uint, key string, resp Response) error
	Release(ctx context.Context, userID uint, key string) error
}

type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type RedisStore struct {
	rdb        redisClient
	ttl        time.Duration
	pendingTTL time.Duration
}

// NewClient opens a client for addr. The connection is established lazily.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// NewRedisStore keeps completed responses for ttl. A reservation whose
// request never completes expires after pendingTTL.
func NewRedisStore(rdb redisClient, ttl, pendingTTL time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, pendingTTL: pendingTTL}
}

func Key(userID uint, key string) string {
	return fmt.Sprintf(KeyCheckout, userID, key)
}

func (s *RedisStore) Begin(ctx context.Context, userID uint, key string) (*Response, error) {
	k := Key(userID, key)

	reserved, err := s.rdb.SetNX(ctx, k, pendingMarker, s.pendingTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if reserved {
		return nil, nil
	}

	val, err := s.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("read idempotency key: %w", err)
	}
	if val == pendingMarker {
		return nil, ErrInProgress
	}

	var resp Response
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		return nil, fmt.Errorf("decode idempotent response: %w", err)
	}
	return &resp, nil
}

func (s *RedisStore) Complete(ctx context.Context, userID uint, key string, resp Response) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, Key(userID, key), b, s.ttl).Err()
}

// Release drops a reservation so that a failed request can be retried with
// the same key.
func (s *RedisStore) Release(ctx context.Context, userID uint, key string) error {
	return s.rdb.Del(ctx, Key(userID, key)).Err()
}
