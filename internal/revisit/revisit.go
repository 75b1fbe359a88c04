// Package revisit decides whether a URL was crawled recently enough to be
// skipped by a new run.
package revisit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"webindexer/internal/storage"
)

const (
	ModeOff     = "off"
	ModeRedis   = "redis"
	ModeIndexed = "indexed"
)

const keyPrefix = "webindexer:crawled:"

// Guard is consulted before a fetch and told after a successful store.
type Guard interface {
	Recent(ctx context.Context, url string) (bool, error)
	Mark(ctx context.Context, url string) error
}

// ParseMode validates a revisit mode name; "" means off.
func ParseMode(s string) (string, error) {
	switch m := strings.ToLower(strings.TrimSpace(s)); m {
	case "", ModeOff:
		return ModeOff, nil
	case ModeRedis, ModeIndexed:
		return m, nil
	default:
		return "", fmt.Errorf("unknown revisit mode %q", s)
	}
}

// Redis remembers crawled URLs as keys that expire after a fixed TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) key(url string) string {
	return keyPrefix + url
}

// Mark sets a key with the TTL so the URL counts as recent until it expires.
func (r *Redis) Mark(ctx context.Context, url string) error {
	return r.client.Set(ctx, r.key(url), "1", r.ttl).Err()
}

func (r *Redis) Recent(ctx context.Context, url string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(url)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Indexed treats every URL the store already holds as recent. Mark is a
// no-op because the store write itself is the record.
type Indexed struct {
	store storage.Store
}

func NewIndexed(store storage.Store) *Indexed {
	return &Indexed{store: store}
}

func (i *Indexed) Recent(ctx context.Context, url string) (bool, error) {
	return i.store.Exists(ctx, url)
}

func (i *Indexed) Mark(context.Context, string) error {
	return nil
}
