package source

import (
	"context"
	"testing"

	"NewsRadar/internal/domain"
)

type stubScanner struct{ name string }

func (s *stubScanner) Name() string { return s.name }

func (s *stubScanner) Scan(context.Context, Request) ([]domain.FeedItem, error) {
	return nil, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(&stubScanner{name: "rss"})

	if _, err := r.Resolve("rss"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := r.Resolve("timeline"); err == nil {
		t.Fatal("expected error for unregistered strategy")
	}
}

func TestRegistryReplaces(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	first := &stubScanner{name: "rss"}
	second := &stubScanner{name: "rss"}
	r.Register(first)
	r.Register(second)

	got, err := r.Resolve("rss")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != second {
		t.Fatal("later registration should win")
	}
}
