package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// MemorySentinel selects an ephemeral in-memory store instead of a file.
const MemorySentinel = "memory"

// ErrPoolExhausted is returned by Acquire when no connection becomes
// available within the configured timeout. It is distinct from store
// errors so callers can surface it differently.
var ErrPoolExhausted = errors.New("connection pool exhausted")

// Config holds connection pool configuration.
type Config struct {
	File           string        // database file path, or MemorySentinel
	MaxConns       int           // max concurrent connections
	AcquireTimeout time.Duration // how long Acquire waits for a free connection
}

const (
	defaultMaxConns       = 10
	defaultAcquireTimeout = 5 * time.Second
)

// memCounter distinguishes in-memory databases so two pools opened in
// the same process never share state.
var memCounter atomic.Int64

func (c Config) dsn() string {
	if c.File == "" || c.File == MemorySentinel {
		return fmt.Sprintf(
			"file:monies-mem-%d?mode=memory&cache=shared&_foreign_keys=on&_busy_timeout=5000&_txlock=immediate",
			memCounter.Add(1),
		)
	}
	return fmt.Sprintf(
		"file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate",
		c.File,
	)
}

// Pool manages a bounded set of reusable connections to a single-file
// SQLite store. Connections are checked out exclusively; cross-connection
// consistency is delegated to SQLite's own transaction and constraint
// machinery.
type Pool struct {
	db             *sql.DB
	acquireTimeout time.Duration
}

// Open opens the store described by cfg, verifies that foreign-key
// enforcement is active, and ensures the ledger schema exists.
// Any failure here is fatal to startup.
func Open(ctx context.Context, cfg Config) (*Pool, error) {
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = defaultMaxConns
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = defaultAcquireTimeout
	}

	if cfg.File != "" && cfg.File != MemorySentinel {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns)
	// In-memory databases vanish when their last connection closes, so
	// pooled connections are kept alive for the life of the process.
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Referential integrity must not silently degrade: refuse to start
	// if the driver did not honor the foreign-key setting.
	var fkEnabled int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		db.Close()
		return nil, fmt.Errorf("checking foreign key enforcement: %w", err)
	}
	if fkEnabled != 1 {
		db.Close()
		return nil, errors.New("foreign key enforcement is not supported by this store")
	}

	pool := NewPool(db, cfg.AcquireTimeout)
	if err := EnsureSchema(ctx, pool); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	log.Printf("Database ready (%s, max %d connections)", cfg.File, cfg.MaxConns)
	return pool, nil
}

// NewPool wraps an already-open *sql.DB. Open is the normal entry point;
// this exists so tests can substitute a mock database.
func NewPool(db *sql.DB, acquireTimeout time.Duration) *Pool {
	if acquireTimeout <= 0 {
		acquireTimeout = defaultAcquireTimeout
	}
	return &Pool{db: db, acquireTimeout: acquireTimeout}
}

// Acquire checks a connection out of the pool, blocking the calling
// goroutine until one is free. The caller owns the connection exclusively
// and must Close it to return it to the pool. If the pool stays exhausted
// past the configured timeout, the error matches ErrPoolExhausted.
func (p *Pool) Acquire(ctx context.Context) (*sql.Conn, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	conn, err := p.db.Conn(acquireCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: no connection available within %s", ErrPoolExhausted, p.acquireTimeout)
		}
		return nil, err
	}
	return conn, nil
}

// Transaction runs fn inside a database transaction on a freshly acquired
// connection. The transaction is committed if fn returns nil and rolled
// back otherwise; the connection is released on every exit path.
func (p *Pool) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
			panic(rec)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Stats reports pool usage, for health reporting.
func (p *Pool) Stats() sql.DBStats {
	return p.db.Stats()
}

// Close drains and closes the pool.
func (p *Pool) Close() error {
	return p.db.Close()
}
