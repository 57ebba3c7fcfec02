package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tok := NewTokens("s3cret", time.Hour)
	raw, err := tok.Issue("acc-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	id, err := tok.Parse(raw)
	if err != nil || id != "acc-1" {
		t.Fatalf("Parse = %q %v", id, err)
	}
}

func TestTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	issuer := NewTokens("one", time.Minute)
	raw, _ := issuer.Issue("acc-1")

	if _, err := NewTokens("two", time.Minute).Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}

	later := NewTokens("one", time.Minute)
	later.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := later.Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	if _, err := issuer.Parse("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}
