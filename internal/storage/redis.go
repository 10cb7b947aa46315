package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRedisNotReady     = errors.New("storage: redis did not become ready")
	ErrRedisHealthcheck  = errors.New("storage: redis healthcheck failed")
	errRedisAddrRequired = errors.New("storage: redis address is required")
)

// RedisOptions configures ConnectRedis.
type RedisOptions struct {
	Addr           string
	Username       string
	Password       string
	DB             int
	ConnectRetries int
	RetryDelay     time.Duration
}

// ConnectRedis dials redis and pings it until it answers or the attempts run out.
func ConnectRedis(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	if opts.Addr == "" {
		return nil, errRedisAddrRequired
	}
	attempts := opts.ConnectRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := range attempts {
		client := redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Username: opts.Username,
			Password: opts.Password,
			DB:       opts.DB,
		})
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(opts.RetryDelay):
		}
	}
	return nil, errors.Join(ErrRedisNotReady, lastErr)
}

// Redis stores items as plain redis strings.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedis wraps client. A positive ttl expires records that are not rewritten within it.
func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) GetItem(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("storage: redis get: %w", err)
	}
	return value, nil
}

func (r *Redis) SetItem(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("storage: redis set: %w", err)
	}
	return nil
}

func (r *Redis) RemoveItem(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("storage: redis del: %w", err)
	}
	return nil
}

// Healthcheck pings the server.
func (r *Redis) Healthcheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return errors.Join(ErrRedisHealthcheck, err)
	}
	return nil
}

// Close terminates the client connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
