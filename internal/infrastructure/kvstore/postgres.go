package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	domainerrors "github.com/stackfolio/stackfolio_service/internal/domain/errors"
	"github.com/stackfolio/stackfolio_service/internal/infrastructure/config"
)

// Postgres is a Store backed by a single kv_records table
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres opens a connection, configures the pool and verifies
// connectivity
func NewPostgres(cfg config.DatabaseConfig) (*Postgres, error) {
	db, err := sqlx.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 25
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 5
	}
	connLifetime := cfg.ConnMaxLifetime
	if connLifetime == 0 {
		connLifetime = 300
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(time.Duration(connLifetime) * time.Second)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Postgres{db: db}, nil
}

// RunMigrations applies the kv_records schema migrations
func RunMigrations(databaseURL string) error {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create postgres driver: %w", err)
	}

	migrationPath := filepath.ToSlash(filepath.Clean("migrations"))
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Get returns the value for key, or ErrKeyNotFound
func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.db.GetContext(ctx, &value, `SELECT value FROM kv_records WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, domainerrors.StoreUnavailableError(err)
	}
	return value, nil
}

// Put stores the value under key, overwriting any previous value
func (p *Postgres) Put(ctx context.Context, key string, value []byte) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO kv_records (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, value)
	if err != nil {
		return domainerrors.StoreUnavailableError(err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (p *Postgres) Delete(ctx context.Context, key string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM kv_records WHERE key = $1`, key)
	if err != nil {
		return domainerrors.StoreUnavailableError(err)
	}
	return nil
}

// Scan returns all pairs whose key starts with prefix, ordered by key
func (p *Postgres) Scan(ctx context.Context, prefix string) ([]KV, error) {
	rows, err := p.db.QueryxContext(ctx, `
		SELECT key, value FROM kv_records
		WHERE key LIKE $1 || '%'
		ORDER BY key
	`, prefix)
	if err != nil {
		return nil, domainerrors.StoreUnavailableError(err)
	}
	defer rows.Close()

	var out []KV
	for rows.Next() {
		var kv KV
		if err := rows.Scan(&kv.Key, &kv.Value); err != nil {
			return nil, domainerrors.StoreUnavailableError(err)
		}
		out = append(out, kv)
	}
	if err := rows.Err(); err != nil {
		return nil, domainerrors.StoreUnavailableError(err)
	}
	return out, nil
}

// Close closes the underlying connection pool
func (p *Postgres) Close() error {
	return p.db.Close()
}
