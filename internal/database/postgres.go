package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Config for database connection
type Config struct {
	DSN          string
	MaxOpenConns int
	PingTimeout  time.Duration
}

// NewPostgres opens a pooled sqlx handle and verifies the connection.
func NewPostgres(ctx context.Context, cfg Config, log *zap.SugaredLogger) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen / 5)
	db.SetConnMaxLifetime(5 * time.Minute)

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Infow("connected to postgres", "max_open_conns", maxOpen)
	return db, nil
}
