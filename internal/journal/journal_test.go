package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *runStore {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &runStore{db: db}
}

func TestRunStore_RecordAndRecent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	recs := []Record{
		{LoginID: "alice", Outcome: "success", ArtifactPath: "shots/alice.png", StartedAt: started, FinishedAt: started.Add(20 * time.Second)},
		{LoginID: "bob", Outcome: "authentication_failed", Error: "bad credentials", StartedAt: started.Add(time.Minute), FinishedAt: started.Add(90 * time.Second)},
	}
	for _, rec := range recs {
		if err := s.Record(ctx, rec); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}

	// Newest first.
	if got[0].LoginID != "bob" || got[1].LoginID != "alice" {
		t.Errorf("order = [%s, %s], want [bob, alice]", got[0].LoginID, got[1].LoginID)
	}
	if got[1].ArtifactPath != "shots/alice.png" {
		t.Errorf("artifact = %q", got[1].ArtifactPath)
	}
	if got[0].Error != "bad credentials" {
		t.Errorf("error = %q", got[0].Error)
	}
	if !got[1].StartedAt.Equal(started) {
		t.Errorf("started_at = %v, want %v", got[1].StartedAt, started)
	}
}

func TestRunStore_RecentLimit(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	for range 5 {
		if err := s.Record(ctx, Record{LoginID: "alice", Outcome: "success", StartedAt: now, FinishedAt: now}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("got %d records, want 3", len(got))
	}

	// Non-positive limit falls back to the default rather than erroring.
	all, err := s.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 {
		t.Errorf("got %d records with default limit, want 5", len(all))
	}
}

func TestRunStore_RecentEmpty(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	got, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %d records, want 0", len(got))
	}
}
