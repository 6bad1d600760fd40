package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB handle of the local delivery store
type DB struct {
	*sql.DB
}

// NewConnection opens (and creates, if needed) the SQLite database at path
func NewConnection(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serialises writers anyway; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// SQLiteRepository stores delivery records in the sent_articles table
type SQLiteRepository struct {
	db *DB
}

func NewSQLiteRepository(db *DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Exists(ctx context.Context, rowKey string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM sent_articles
		WHERE partition_key = ? AND row_key = ?
	`, ArticlePartition, rowKey).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query delivery record: %w", err)
	}
	return true, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, record Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sent_articles (partition_key, row_key, url, sent_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (partition_key, row_key)
		DO UPDATE SET url = excluded.url, sent_at = excluded.sent_at
	`, record.PartitionKey, record.RowKey, record.URL, formatSentAt(record.SentAt))
	if err != nil {
		return fmt.Errorf("failed to upsert delivery record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM sent_articles
		WHERE partition_key = ? AND sent_at < ?
	`, ArticlePartition, formatSentAt(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old delivery records: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return deleted, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sent_articles WHERE partition_key = ?
	`, ArticlePartition).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count delivery records: %w", err)
	}
	return count, nil
}

// SentAt returns the stored send time of rowKey, or nil when absent
func (r *SQLiteRepository) SentAt(ctx context.Context, rowKey string) (*time.Time, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `
		SELECT sent_at FROM sent_articles
		WHERE partition_key = ? AND row_key = ?
	`, ArticlePartition, rowKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query delivery record: %w", err)
	}

	sentAt, err := parseSentAt(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sent_at %q: %w", raw, err)
	}
	return &sentAt, nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
