package store

import (
	"context"
	"sync"

	"github.com/dkeye/LiveTalk/internal/domain"
)

// MemoryStore keeps everything in process. Used by tests and the default dev config.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string][]byte
	creds    map[string]domain.Credential
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string][]byte),
		creds:    make(map[string]domain.Credential),
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	doc, ok := s.accounts[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return decodeAccount(doc)
}

func (s *MemoryStore) Put(_ context.Context, a *domain.Account) error {
	doc, err := encodeAccount(a)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.accounts[a.ID] = doc
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetCredential(_ context.Context, email string) (*domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.creds[email]
	if !ok {
		return nil, domain.ErrNoSuchAccount
	}
	return &c, nil
}

func (s *MemoryStore) CreateCredential(_ context.Context, c *domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.creds[c.Email]; ok {
		return domain.ErrEmailInUse
	}
	s.creds[c.Email] = *c
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
func (s *MemoryStore) Close() error               { return nil }
