package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// Postgres stores each key as a row in guest_carts.
type Postgres struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewPostgres connects, applies migrations and returns the store.
func NewPostgres(ctx context.Context, dsn string, ttl time.Duration) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres DSN: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return NewPostgresWithPool(pool, ttl), nil
}

// NewPostgresWithPool wraps an existing, already-migrated pool.
func NewPostgresWithPool(pool *pgxpool.Pool, ttl time.Duration) *Postgres {
	return &Postgres{pool: pool, ttl: ttl}
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	srcDriver, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		return fmt.Errorf("init iofs: %w", err)
	}

	sqlDB, err := sql.Open("pgx", pool.Config().ConnString())
	if err != nil {
		return fmt.Errorf("open sql db: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sql db: %w", err)
	}

	dbDriver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("init db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, "pgx", dbDriver)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := p.pool.QueryRow(ctx,
		`SELECT payload::text FROM guest_carts
		 WHERE cart_key = $1 AND (expires_at IS NULL OR expires_at > now())`,
		key,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get failed: %w", err)
	}
	return []byte(payload), nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	var expiresAt *time.Time
	if p.ttl > 0 {
		t := time.Now().Add(p.ttl)
		expiresAt = &t
	}

	_, err := p.pool.Exec(ctx,
		`INSERT INTO guest_carts (cart_key, payload, updated_at, expires_at)
		 VALUES ($1, $2::jsonb, now(), $3)
		 ON CONFLICT (cart_key) DO UPDATE
		 SET payload = EXCLUDED.payload, updated_at = now(), expires_at = EXCLUDED.expires_at`,
		key, string(value), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("postgres set failed: %w", err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM guest_carts WHERE cart_key = $1`, key); err != nil {
		return fmt.Errorf("postgres delete failed: %w", err)
	}
	return nil
}

// PurgeExpired deletes rows past their expiry and returns how many were removed.
func (p *Postgres) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM guest_carts WHERE expires_at IS NOT NULL AND expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("postgres purge failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
