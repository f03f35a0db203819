// Package redisstore persists geocode cache entries in a Redis hash so
// several service instances can share one cache.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/disaster-rtd-service/internal/enrich"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is the hash holding one field per normalized place name.
const DefaultKey = "rtd:geocache"

type hashClient interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// Store implements enrich.Store on a Redis hash.
type Store struct {
	client hashClient
	key    string
	logger *slog.Logger
}

// New connects to addr and verifies the server responds.
func New(ctx context.Context, addr string, logger *slog.Logger) (*Store, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return newStore(client, DefaultKey, logger), client, nil
}

func newStore(client hashClient, key string, logger *slog.Logger) *Store {
	return &Store{client: client, key: key, logger: logger}
}

func (s *Store) Load(ctx context.Context) ([]enrich.Entry, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", s.key, err)
	}
	out := make([]enrich.Entry, 0, len(fields))
	for field, raw := range fields {
		var e enrich.Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			s.logger.Warn("skipping malformed geocache field", "field", field, "error", err)
			continue
		}
		e.Key = field
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) Save(ctx context.Context, e enrich.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, s.key, e.Key, string(data)).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", s.key, err)
	}
	return nil
}

// CheckReadiness pings the server.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
