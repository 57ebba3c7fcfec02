package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/LiveTalk/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const defaultCacheTTL = 10 * time.Minute

// CachedStore is a read-through, write-through redis cache in front of another
// Store. Cache failures are logged and never fail the request.
type CachedStore struct {
	Store
	client *redis.Client
	ttl    time.Duration
}

func NewCachedStore(ctx context.Context, next Store, redisURL string, ttl time.Duration) (*CachedStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return newCachedStore(next, client, ttl), nil
}

func newCachedStore(next Store, client *redis.Client, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedStore{Store: next, client: client, ttl: ttl}
}

func accountKey(id string) string {
	return fmt.Sprintf("account:%s", id)
}

func (s *CachedStore) Get(ctx context.Context, id string) (*domain.Account, error) {
	doc, err := s.client.Get(ctx, accountKey(id)).Bytes()
	switch {
	case err == nil:
		if a, derr := decodeAccount(doc); derr == nil {
			return a, nil
		}
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Str("module", "store.redis").Msg("cache get")
	}

	a, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, a)
	return a, nil
}

func (s *CachedStore) Put(ctx context.Context, a *domain.Account) error {
	if err := s.Store.Put(ctx, a); err != nil {
		return err
	}
	s.fill(ctx, a)
	return nil
}

func (s *CachedStore) fill(ctx context.Context, a *domain.Account) {
	doc, err := encodeAccount(a)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, accountKey(a.ID), doc, s.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("module", "store.redis").Msg("cache set")
	}
}

func (s *CachedStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return s.Store.Ping(ctx)
}

func (s *CachedStore) Close() error {
	err := s.client.Close()
	if cerr := s.Store.Close(); cerr != nil {
		return cerr
	}
	return err
}
