// Package store persists accounts and credentials.
//
// Accounts are kept as whole JSON documents keyed by identity id, mirroring a
// document store: Get returns the full record, Put overwrites it in one write.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/LiveTalk/internal/domain"
	"github.com/rs/zerolog/log"
)

// Store is implemented by every backend.
type Store interface {
	Get(ctx context.Context, id string) (*domain.Account, error)
	Put(ctx context.Context, a *domain.Account) error
	GetCredential(ctx context.Context, email string) (*domain.Credential, error)
	CreateCredential(ctx context.Context, c *domain.Credential) error
	Ping(ctx context.Context) error
	Close() error
}

type Options struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
	RedisURL    string
	CacheTTL    time.Duration
}

var ErrUnknownDriver = errors.New("unknown store driver")

// Open builds the configured backend, wrapping it in a redis cache when RedisURL is set.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch opts.Driver {
	case "", "memory":
		s = NewMemoryStore()
	case "sqlite":
		s, err = NewSQLiteStore(ctx, opts.SQLitePath)
	case "postgres":
		s, err = NewPostgresStore(ctx, opts.PostgresDSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", opts.Driver, err)
	}
	log.Info().Str("module", "store").Str("driver", opts.Driver).Msg("store opened")

	if opts.RedisURL == "" {
		return s, nil
	}
	cached, err := NewCachedStore(ctx, s, opts.RedisURL, opts.CacheTTL)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("open redis cache: %w", err)
	}
	return cached, nil
}

func encodeAccount(a *domain.Account) ([]byte, error) {
	if a == nil || a.ID == "" {
		return nil, errors.New("account without id")
	}
	cp := a.Clone()
	return json.Marshal(cp)
}

func decodeAccount(b []byte) (*domain.Account, error) {
	var a domain.Account
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	if a.OwnedItems == nil {
		a.OwnedItems = []string{}
	}
	return &a, nil
}
