package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"NewsRadar/internal/domain"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seen.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestSeenLifecycle(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t)
	ctx := context.Background()

	seen, err := repo.Seen(ctx, "ft-markets", "abc")
	if err != nil {
		t.Fatalf("Seen: %v", err)
	}
	if seen {
		t.Fatal("fresh key reported as seen")
	}

	rec := domain.SeenRecord{
		Source:      "ft-markets",
		Key:         "abc",
		PublishedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		FirstSeenAt: time.Now().UTC(),
	}
	if err := repo.MarkSeen(ctx, rec); err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}

	seen, err = repo.Seen(ctx, "ft-markets", "abc")
	if err != nil {
		t.Fatalf("Seen: %v", err)
	}
	if !seen {
		t.Fatal("marked key not reported as seen")
	}

	// Same key from a different source is a separate row.
	seen, err = repo.Seen(ctx, "coindesk", "abc")
	if err != nil {
		t.Fatalf("Seen: %v", err)
	}
	if seen {
		t.Fatal("key leaked across sources")
	}
}

func TestMarkSeenIsIdempotent(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t)
	ctx := context.Background()

	rec := domain.SeenRecord{Source: "coindesk", Key: "x1", FirstSeenAt: time.Now().UTC()}
	for i := 0; i < 3; i++ {
		if err := repo.MarkSeen(ctx, rec); err != nil {
			t.Fatalf("MarkSeen #%d: %v", i, err)
		}
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats["coindesk"] != 1 {
		t.Fatalf("expected a single row, got %d", stats["coindesk"])
	}
}

func TestSeenSurvivesReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seen.db")
	ctx := context.Background()

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	rec := domain.SeenRecord{Source: "decrypt", Key: "k9", FirstSeenAt: time.Now().UTC()}
	if err := repo.MarkSeen(ctx, rec); err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen repository: %v", err)
	}
	defer reopened.Close()

	seen, err := reopened.Seen(ctx, "decrypt", "k9")
	if err != nil {
		t.Fatalf("Seen: %v", err)
	}
	if !seen {
		t.Fatal("ledger did not survive reopen")
	}
}

func TestMarkDelivered(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t)
	ctx := context.Background()

	rec := domain.SeenRecord{
		Source:      "wildmeta-x",
		Key:         "123456",
		FirstSeenAt: time.Now().UTC(),
		DeliveryID:  987,
	}
	if err := repo.MarkDelivered(ctx, rec); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}

	seen, err := repo.Seen(ctx, "wildmeta-x", "123456")
	if err != nil {
		t.Fatalf("Seen: %v", err)
	}
	if !seen {
		t.Fatal("delivered key not reported as seen")
	}

	var id int64
	if err := repo.db.QueryRowContext(ctx,
		"SELECT delivery_id FROM seen WHERE source = ? AND entry_key = ?",
		"wildmeta-x", "123456").Scan(&id); err != nil {
		t.Fatalf("read delivery id: %v", err)
	}
	if id != 987 {
		t.Fatalf("delivery id = %d, want 987", id)
	}
}

func TestStatsGroupsBySource(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t)
	ctx := context.Background()

	for _, rec := range []domain.SeenRecord{
		{Source: "coindesk", Key: "a"},
		{Source: "coindesk", Key: "b"},
		{Source: "decrypt", Key: "a"},
	} {
		if err := repo.MarkSeen(ctx, rec); err != nil {
			t.Fatalf("MarkSeen: %v", err)
		}
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats["coindesk"] != 2 || stats["decrypt"] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}
