package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dkeye/LiveTalk/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore handles SQLite database operations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
// If path is empty, defaults to "./data/livetalk.db"
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		path = "./data/livetalk.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			doc TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS credentials (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			hash TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Account, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM accounts WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select account: %w", err)
	}
	return decodeAccount([]byte(doc))
}

func (s *SQLiteStore) Put(ctx context.Context, a *domain.Account) error {
	doc, err := encodeAccount(a)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, doc, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		a.ID, string(doc), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetCredential(ctx context.Context, email string) (*domain.Credential, error) {
	var (
		c       domain.Credential
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, hash, created_at FROM credentials WHERE email = ?`, email,
	).Scan(&c.ID, &c.Email, &c.Hash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNoSuchAccount
	}
	if err != nil {
		return nil, fmt.Errorf("select credential: %w", err)
	}
	if c.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("parse credential time: %w", err)
	}
	return &c, nil
}

func (s *SQLiteStore) CreateCredential(ctx context.Context, c *domain.Credential) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (id, email, hash, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(email) DO NOTHING`,
		c.ID, c.Email, c.Hash, c.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	if n == 0 {
		return domain.ErrEmailInUse
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
