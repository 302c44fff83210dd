package rules

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/toko-discount/internal/discount"
)

// DefaultRedisKey holds the rules document when no key is configured.
const DefaultRedisKey = "discount:rules"

// ErrNotFound is returned when the rules key does not exist.
var ErrNotFound = errors.New("rules document not found")

// Redis stores the rules document as a JSON string under a single key.
type Redis struct {
	client redis.UniversalClient
	key    string
}

// NewRedis constructs a Redis-backed source.
func NewRedis(client redis.UniversalClient, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key}
}

// Key reports the Redis key in use.
func (r *Redis) Key() string { return r.key }

// Load implements Source.
func (r *Redis) Load(ctx context.Context) (discount.Tables, error) {
	if r == nil || r.client == nil {
		return discount.Tables{}, errors.New("redis rules source not configured")
	}
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return discount.Tables{}, fmt.Errorf("%w: key %s", ErrNotFound, r.key)
		}
		return discount.Tables{}, fmt.Errorf("load rules: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Store validates tables and writes them without expiry.
func (r *Redis) Store(ctx context.Context, tables discount.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("store rules: %w", err)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, tables); err != nil {
		return fmt.Errorf("store rules: %w", err)
	}
	return r.client.Set(ctx, r.key, buf.Bytes(), 0).Err()
}

// Ping implements Pinger.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
