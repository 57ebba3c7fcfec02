package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/dkeye/LiveTalk/internal/domain"
	"github.com/dkeye/LiveTalk/internal/store"
	"golang.org/x/crypto/bcrypt"
)

func TestCreateAndVerify(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), bcrypt.MinCost)
	ctx := context.Background()

	id, err := svc.Create(ctx, " Layla@Example.com ", "secret")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == "" {
		t.Fatalf("empty identity id")
	}
	got, err := svc.Verify(ctx, "layla@example.com", "secret")
	if err != nil || got != id {
		t.Fatalf("Verify = %q %v, want %q", got, err, id)
	}
	if _, err := svc.Verify(ctx, "layla@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Verify(ctx, "nobody@example.com", "secret"); !errors.Is(err, domain.ErrNoSuchAccount) {
		t.Fatalf("expected ErrNoSuchAccount, got %v", err)
	}
	if _, err := svc.Create(ctx, "LAYLA@example.com", "other"); !errors.Is(err, domain.ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}
}

func TestSecretIsNotStoredInPlain(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewService(s, bcrypt.MinCost)
	ctx := context.Background()
	if _, err := svc.Create(ctx, "a@b.c", "plain-secret"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	c, err := s.GetCredential(ctx, "a@b.c")
	if err != nil {
		t.Fatalf("GetCredential: %v", err)
	}
	if c.Hash == "plain-secret" || c.Hash == "" {
		t.Fatalf("secret stored in plain")
	}
}

func TestInvalidCostFallsBackToDefault(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), 99)
	if svc.cost != bcrypt.DefaultCost {
		t.Fatalf("cost = %d, want default", svc.cost)
	}
}
