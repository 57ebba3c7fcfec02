// Package auth turns submitted credentials into a ready-to-use account.
//
// It owns the login/register branching and the reserved administrative identity
// that is provisioned on its first sign-in. The credential service and the account
// store are reached only through the Credentials and AccountStore interfaces.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/dkeye/LiveTalk/internal/domain"
	"github.com/dkeye/LiveTalk/internal/metrics"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

func (m Mode) String() string {
	if m == ModeRegister {
		return "register"
	}
	return "login"
}

const (
	StartingCoins  = 5000
	AdminCustomID  = 777777
	AdminVIPLevel  = 12
	AdminName      = "Root Admin"
	AdminCoins     = 999999
	minCustomID    = 100000
	customIDSpread = 900000
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrRecordMissingAfterAuth = errors.New("account record missing after authentication")
)

// Credentials is the external identity provider.
// Verify fails with domain.ErrInvalidCredentials or domain.ErrNoSuchAccount;
// Create fails with domain.ErrEmailInUse for a taken email.
type Credentials interface {
	Verify(ctx context.Context, email, password string) (string, error)
	Create(ctx context.Context, email, password string) (string, error)
}

// AccountStore is the document store holding one Account per identity.
// Get returns domain.ErrAccountNotFound when no record exists.
type AccountStore interface {
	Get(ctx context.Context, id string) (*domain.Account, error)
	Put(ctx context.Context, a *domain.Account) error
}

type AdminConfig struct {
	Email          string
	FallbackSecret string
	// Provision enables first sign-in auto-provisioning of the reserved identity.
	// It only fires for a sign-in presenting FallbackSecret, so an empty secret
	// disables it.
	Provision bool
	Avatar    string
}

type Request struct {
	Mode        Mode
	Email       string
	Password    string
	DisplayName string
}

type Bootstrap struct {
	creds      Credentials
	accounts   AccountStore
	admin      AdminConfig
	avatarBase string
	now        func() time.Time
	customID   func() int
	provision  singleflight.Group
}

type Option func(*Bootstrap)

func WithClock(now func() time.Time) Option {
	return func(b *Bootstrap) { b.now = now }
}

// WithCustomIDs replaces the random 6-digit display id generator.
func WithCustomIDs(gen func() int) Option {
	return func(b *Bootstrap) { b.customID = gen }
}

func NewBootstrap(creds Credentials, accounts AccountStore, admin AdminConfig, avatarBase string, opts ...Option) *Bootstrap {
	admin.Email = normalizeEmail(admin.Email)
	b := &Bootstrap{
		creds:      creds,
		accounts:   accounts,
		admin:      admin,
		avatarBase: avatarBase,
		now:        time.Now,
		customID:   func() int { return minCustomID + rand.Intn(customIDSpread) },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsReserved reports whether email is the reserved administrative address.
func (b *Bootstrap) IsReserved(email string) bool {
	return b.admin.Email != "" && normalizeEmail(email) == b.admin.Email
}

func (b *Bootstrap) effectivePassword(email, password string) string {
	if b.IsReserved(email) && password == "" {
		return b.admin.FallbackSecret
	}
	return password
}

// Authenticate resolves req into an account, persisting a new record for
// registrations and for the first sign-in of the reserved identity.
func (b *Bootstrap) Authenticate(ctx context.Context, req Request) (*domain.Account, error) {
	acc, err := b.authenticate(ctx, req)
	metrics.AuthAttempts.WithLabelValues(req.Mode.String(), resultLabel(err)).Inc()
	return acc, err
}

func (b *Bootstrap) authenticate(ctx context.Context, req Request) (*domain.Account, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	password := b.effectivePassword(email, req.Password)
	// The reserved identity never authenticates, or is created, without a secret.
	if b.IsReserved(email) && password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	switch req.Mode {
	case ModeLogin:
		if b.IsReserved(email) {
			return b.reservedLogin(ctx, email, password)
		}
		return b.login(ctx, email, password)
	case ModeRegister:
		name := strings.TrimSpace(req.DisplayName)
		if err := domain.ValidateName(name); err != nil {
			return nil, fmt.Errorf("%w: display name: %v", ErrInvalidInput, err)
		}
		return b.register(ctx, email, password, name)
	}
	return nil, fmt.Errorf("%w: unknown mode", ErrInvalidInput)
}

func (b *Bootstrap) login(ctx context.Context, email, password string) (*domain.Account, error) {
	id, err := b.creds.Verify(ctx, email, password)
	if err != nil {
		if b.IsReserved(email) && b.mayProvision(password) && errors.Is(err, domain.ErrNoSuchAccount) {
			return b.provisionAdmin(ctx, email, password)
		}
		return nil, fmt.Errorf("verify credentials: %w", err)
	}
	acc, err := b.accounts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			log.Error().Str("module", "auth").Str("account", id).Msg("credentials verified but no account record")
			return nil, ErrRecordMissingAfterAuth
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	log.Info().Str("module", "auth").Str("account", id).Msg("login")
	return acc, nil
}

func (b *Bootstrap) register(ctx context.Context, email, password, name string) (*domain.Account, error) {
	id, err := b.creds.Create(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}
	acc := &domain.Account{
		ID:         id,
		CustomID:   b.customID(),
		Name:       name,
		Avatar:     b.avatarFor(id),
		Email:      email,
		Level:      domain.LevelNew,
		Coins:      StartingCoins,
		OwnedItems: []string{},
		CreatedAt:  b.now().UTC(),
	}
	if err := b.accounts.Put(ctx, acc); err != nil {
		return nil, fmt.Errorf("store account: %w", err)
	}
	log.Info().Str("module", "auth").Str("account", id).Int("custom_id", acc.CustomID).Msg("registered")
	return acc, nil
}

// reservedLogin collapses overlapping sign-ins of the reserved identity with the same
// secret into one attempt, so its first sign-in provisions exactly once.
func (b *Bootstrap) reservedLogin(ctx context.Context, email, password string) (*domain.Account, error) {
	sum := sha256.Sum256([]byte(password))
	key := b.admin.Email + ":" + hex.EncodeToString(sum[:])
	v, err, _ := b.provision.Do(key, func() (any, error) {
		return b.login(ctx, email, password)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Account).Clone(), nil
}

// mayProvision reports whether password unlocks first-run provisioning of the
// reserved identity. Only the operator-configured secret does.
func (b *Bootstrap) mayProvision(password string) bool {
	secret := b.admin.FallbackSecret
	if !b.admin.Provision || secret == "" || password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(secret)) == 1
}

// provisionAdmin creates the reserved identity and its account. An identity or
// record left by another process is reused, never duplicated.
func (b *Bootstrap) provisionAdmin(ctx context.Context, email, password string) (*domain.Account, error) {
	id, err := b.creds.Create(ctx, email, password)
	if errors.Is(err, domain.ErrEmailInUse) {
		id, err = b.creds.Verify(ctx, email, password)
	}
	if err != nil {
		return nil, fmt.Errorf("provision admin identity: %w", err)
	}
	existing, err := b.accounts.Get(ctx, id)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, fmt.Errorf("load admin account: %w", err)
	}
	acc := &domain.Account{
		ID:         id,
		CustomID:   AdminCustomID,
		Name:       AdminName,
		Avatar:     b.admin.Avatar,
		Email:      email,
		Level:      domain.LevelVIP,
		Coins:      AdminCoins,
		IsVIP:      true,
		VIPLevel:   AdminVIPLevel,
		IsAdmin:    true,
		OwnedItems: []string{},
		CreatedAt:  b.now().UTC(),
	}
	if err := b.accounts.Put(ctx, acc); err != nil {
		return nil, fmt.Errorf("store admin account: %w", err)
	}
	metrics.AdminProvisioned.Inc()
	log.Warn().Str("module", "auth").Str("account", id).Msg("reserved admin account provisioned")
	return acc, nil
}

func (b *Bootstrap) avatarFor(id string) string {
	if b.avatarBase == "" {
		return ""
	}
	return b.avatarBase + "?seed=" + url.QueryEscape(id)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrNoSuchAccount):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrEmailInUse):
		return "email_in_use"
	case errors.Is(err, ErrRecordMissingAfterAuth):
		return "record_missing"
	}
	return "error"
}
