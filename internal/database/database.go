package database

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ErrNotConfigured is returned when no database URL was provided.
var ErrNotConfigured = errors.New("database not configured")

type DB struct {
	Pool *pgxpool.Pool
	log  zerolog.Logger
}

func Connect(ctx context.Context, databaseURL string, log zerolog.Logger) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	cfg.MaxConns = 10
	cfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info().
		Str("url", maskDSN(databaseURL)).
		Int32("max_conns", cfg.MaxConns).
		Int32("min_conns", cfg.MinConns).
		Msg("database connected")

	return &DB{Pool: pool, log: log}, nil
}

func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return db.Pool.Ping(ctx)
}

func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		if _, hasPass := u.User.Password(); hasPass {
			u.User = url.UserPassword(u.User.Username(), "***")
		}
	}
	return u.String()
}

func (db *DB) Close() {
	db.log.Info().Msg("closing database pool")
	db.Pool.Close()
}

// Handle opens the database on first use and keeps the connection for the
// life of the process. A failed open is not cached; the next call retries.
type Handle struct {
	url   string
	log   zerolog.Logger
	setup func(ctx context.Context, db *DB) error

	mu sync.Mutex
	db *DB
}

// NewHandle creates a lazy handle. setup, if non-nil, runs once right after
// the first successful connect (schema init and migrations).
func NewHandle(databaseURL string, log zerolog.Logger, setup func(ctx context.Context, db *DB) error) *Handle {
	return &Handle{url: databaseURL, log: log, setup: setup}
}

// Configured reports whether a database URL was provided.
func (h *Handle) Configured() bool { return h.url != "" }

// Get returns the open database, connecting on the first call.
func (h *Handle) Get(ctx context.Context) (*DB, error) {
	if h.url == "" {
		return nil, ErrNotConfigured
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.db != nil {
		return h.db, nil
	}
	db, err := Connect(ctx, h.url, h.log)
	if err != nil {
		return nil, err
	}
	if h.setup != nil {
		if err := h.setup(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}
	h.db = db
	return db, nil
}

// Pool returns the pool if the database has been opened, nil otherwise.
func (h *Handle) Pool() *pgxpool.Pool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.db == nil {
		return nil
	}
	return h.db.Pool
}

// Close closes the database if it was opened. The handle can reopen afterwards.
func (h *Handle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.db != nil {
		h.db.Close()
		h.db = nil
	}
}
