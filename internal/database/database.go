package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"lucky-spin/internal/wheel"
)

var (
	ErrEmptyPrizeConfig = errors.New("prize config must have at least one segment")
	ErrNegativePrize    = errors.New("prize values must be non-negative")
)

// savedUserKey is the fixed key the signed-in user record lives under,
// mirroring the browser's local-storage slot.
const savedUserKey = "luckySpin_user"

type Store struct {
	db     *sql.DB
	dbType string // "postgres" or "sqlite"
}

func New(ctx context.Context, dsn string) (*Store, error) {
	var db *sql.DB
	var err error
	var dbType string

	if dsn == "" || strings.HasPrefix(dsn, "sqlite:") {
		dbType = "sqlite"
		sqlitePath := "data.db"
		if strings.HasPrefix(dsn, "sqlite:") {
			sqlitePath = strings.TrimPrefix(dsn, "sqlite:")
		}
		db, err = sql.Open("sqlite", sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite open: %w", err)
		}
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			return nil, err
		}
	} else {
		dbType = "postgres"
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("postgres open: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}

	store := &Store{db: db, dbType: dbType}
	if err := store.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := store.seedPrizeConfig(ctx); err != nil {
		return nil, fmt.Errorf("seed prize config: %w", err)
	}

	return store, nil
}

func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	var schema string
	if s.dbType == "sqlite" {
		schema = sqliteSchema
	} else {
		schema = postgresSchema
	}
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// seedPrizeConfig installs the reference wheel on first start.
func (s *Store) seedPrizeConfig(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM prize_config").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return s.ReplacePrizeConfig(ctx, wheel.ReferenceSegments())
}

// ph returns the correct placeholder for the database type
func (s *Store) ph(n int) string {
	if s.dbType == "sqlite" {
		return "?"
	}
	return fmt.Sprintf("$%d", n)
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS saved_user (
    key TEXT PRIMARY KEY,
    phone TEXT NOT NULL,
    name TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS prize_config (
    position INTEGER PRIMARY KEY,
    value INTEGER NOT NULL,
    label TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS spin_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    spin_id TEXT UNIQUE NOT NULL,
    phone TEXT NOT NULL,
    label TEXT NOT NULL,
    amount INTEGER NOT NULL,
    raw_degrees REAL NOT NULL,
    created_at TIMESTAMP DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_spin_log_phone ON spin_log(phone);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS saved_user (
    key TEXT PRIMARY KEY,
    phone TEXT NOT NULL,
    name TEXT NOT NULL,
    updated_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS prize_config (
    position INTEGER PRIMARY KEY,
    value INTEGER NOT NULL,
    label TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS spin_log (
    id BIGSERIAL PRIMARY KEY,
    spin_id TEXT UNIQUE NOT NULL,
    phone TEXT NOT NULL,
    label TEXT NOT NULL,
    amount INTEGER NOT NULL,
    raw_degrees DOUBLE PRECISION NOT NULL,
    created_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_spin_log_phone ON spin_log(phone);
`
