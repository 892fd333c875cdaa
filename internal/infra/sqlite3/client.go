package sqlite3

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const (
	memoryDSN   = ":memory:"
	pingTimeout = 10 * time.Second

	// Подписки пишутся редко, одного соединения хватает и оно исключает SQLITE_BUSY.
	defaultMaxOpenConns = 1
)

type config struct {
	path         string
	maxOpenConns int
	maxIdleConns int
	maxLifetime  time.Duration
}

type Option func(*config)

// WithPath задает файл базы. Пустой путь или ":memory:" открывает базу в памяти.
func WithPath(path string) Option {
	return func(c *config) {
		if path != "" {
			c.path = path
		}
	}
}

func WithPool(maxOpen, maxIdle int) Option {
	return func(c *config) {
		if maxOpen > 0 {
			c.maxOpenConns = maxOpen
		}
		if maxIdle >= 0 {
			c.maxIdleConns = maxIdle
		}
	}
}

func WithConnMaxLifetime(lifetime time.Duration) Option {
	return func(c *config) {
		c.maxLifetime = lifetime
	}
}

type DB struct {
	*sqlx.DB
}

// New opens the database and applies pending migrations.
// File databases are opened with a busy timeout and synchronous=FULL so a
// committed grant survives a crash right after the call returns.
func New(ctx context.Context, opts ...Option) (*DB, error) {
	cfg := &config{
		path:         memoryDSN,
		maxOpenConns: defaultMaxOpenConns,
		maxIdleConns: defaultMaxOpenConns,
		maxLifetime:  time.Hour,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	dsn, err := prepareDSN(cfg.path)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open subscriptions database: %w", err)
	}

	db.SetMaxOpenConns(cfg.maxOpenConns)
	db.SetMaxIdleConns(cfg.maxIdleConns)
	db.SetConnMaxLifetime(cfg.maxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping subscriptions database: %w", err)
	}

	if err := Migrate(ctx, db.DB); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{DB: db}, nil
}

func prepareDSN(dsn string) (string, error) {
	if dsn == memoryDSN || strings.HasPrefix(dsn, "file::memory:") {
		return dsn, nil
	}

	path, query, _ := strings.Cut(dsn, "?")
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create database directory: %w", err)
		}
	}

	if query != "" {
		return dsn, nil
	}
	return path + "?_busy_timeout=5000&_journal_mode=WAL&_synchronous=FULL", nil
}
