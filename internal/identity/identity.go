// Package identity is a self-hosted credential service: bcrypt digests keyed by
// normalized email, identities minted as UUIDs.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dkeye/LiveTalk/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// CredentialStore persists credentials. GetCredential returns domain.ErrNoSuchAccount
// for an unknown email; CreateCredential returns domain.ErrEmailInUse on conflict.
type CredentialStore interface {
	GetCredential(ctx context.Context, email string) (*domain.Credential, error)
	CreateCredential(ctx context.Context, c *domain.Credential) error
}

type Service struct {
	store CredentialStore
	cost  int
	now   func() time.Time
}

func NewService(store CredentialStore, cost int) *Service {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{store: store, cost: cost, now: time.Now}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Verify(ctx context.Context, email, password string) (string, error) {
	c, err := s.store.GetCredential(ctx, normalize(email))
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.Hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("compare hash: %w", err)
	}
	return c.ID, nil
}

func (s *Service) Create(ctx context.Context, email, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	c := &domain.Credential{
		ID:        uuid.NewString(),
		Email:     normalize(email),
		Hash:      string(hash),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateCredential(ctx, c); err != nil {
		return "", err
	}
	log.Info().Str("module", "identity").Str("identity", c.ID).Msg("identity created")
	return c.ID, nil
}
