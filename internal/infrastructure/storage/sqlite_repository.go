package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"NewsRadar/internal/domain"
	"NewsRadar/internal/ports"
)

// SQLiteRepository is the durable seen-ledger. One row per (source, key);
// rows survive process restarts so supervised task restarts never cause
// redelivery.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.SeenStore = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens (and if needed creates) the database at path.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS seen (
		source TEXT NOT NULL,
		entry_key TEXT NOT NULL,
		published_ts INTEGER,
		first_seen_ts INTEGER NOT NULL,
		delivery_id INTEGER,
		PRIMARY KEY(source, entry_key)
	);
	CREATE INDEX IF NOT EXISTS idx_seen_source ON seen(source);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Seen reports whether the (source, key) pair was handled before.
func (r *SQLiteRepository) Seen(ctx context.Context, source, key string) (bool, error) {
	query, args, err := sq.Select("1").
		From("seen").
		Where(sq.Eq{"source": source, "entry_key": key}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build seen query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query seen: %w", err)
	}
	return true, nil
}

// MarkSeen inserts the record if absent. Calling it again with the same
// (source, key) is a no-op, never an error.
func (r *SQLiteRepository) MarkSeen(ctx context.Context, rec domain.SeenRecord) error {
	query, args, err := sq.Insert("seen").
		Options("OR IGNORE").
		Columns("source", "entry_key", "published_ts", "first_seen_ts").
		Values(rec.Source, rec.Key, publishedTS(rec), firstSeenTS(rec)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	return nil
}

// MarkDelivered upserts the record together with its delivery
// confirmation id. Used by timeline sources, which keep the Telegram
// message id alongside the dedup row.
func (r *SQLiteRepository) MarkDelivered(ctx context.Context, rec domain.SeenRecord) error {
	query, args, err := sq.Insert("seen").
		Options("OR REPLACE").
		Columns("source", "entry_key", "published_ts", "first_seen_ts", "delivery_id").
		Values(rec.Source, rec.Key, publishedTS(rec), firstSeenTS(rec), rec.DeliveryID).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delivered query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	return nil
}

// Stats returns seen-row counts per source for the status command.
func (r *SQLiteRepository) Stats(ctx context.Context) (map[string]int, error) {
	query, args, err := sq.Select("source", "COUNT(*)").
		From("seen").
		GroupBy("source").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stats query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[source] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return stats, nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func publishedTS(rec domain.SeenRecord) any {
	if rec.PublishedAt.IsZero() {
		return nil
	}
	return rec.PublishedAt.UTC().Unix()
}

func firstSeenTS(rec domain.SeenRecord) int64 {
	if rec.FirstSeenAt.IsZero() {
		return time.Now().UTC().Unix()
	}
	return rec.FirstSeenAt.UTC().Unix()
}
