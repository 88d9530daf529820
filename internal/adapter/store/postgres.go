package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/arturoeanton/authorlens/internal/domain"
)

// PostgresStore manages the database connection and schema.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// EnsureSchema creates the pgvector extension, the authors table, and the
// similarity index if they do not exist. The vector column width is fixed by
// the deployment's index spec; changing the dimension requires a migration.
func (s *PostgresStore) EnsureSchema(ctx context.Context, spec domain.IndexSpec) error {
	if _, err := s.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create extension: %w", err)
	}

	table := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS authors (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		bio TEXT NOT NULL DEFAULT '',
		expertise TEXT NOT NULL DEFAULT '',
		embedding vector(%d),
		embedding_text TEXT NOT NULL DEFAULT '',
		embedding_hash TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, spec.Dimension)
	if _, err := s.db.ExecContext(ctx, table); err != nil {
		return fmt.Errorf("create authors table: %w", err)
	}

	ops := "vector_cosine_ops"
	if spec.Metric == domain.MetricL2 {
		ops = "vector_l2_ops"
	}
	index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS authors_embedding_idx
		ON authors USING ivfflat (embedding %s) WITH (lists = 100)`, ops)
	if _, err := s.db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("create embedding index: %w", err)
	}

	return nil
}
