package reload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/snapmail/snapmail/internal/principal"
	"github.com/snapmail/snapmail/internal/store"
)

type fakeLoader struct {
	principals []principal.Principal
	err        error
}

func (f *fakeLoader) Load() ([]principal.Principal, error) {
	return f.principals, f.err
}

type fakeJobSet struct {
	calls int
	last  []principal.Principal
}

func (f *fakeJobSet) ReplaceAll(principals []principal.Principal) {
	f.calls++
	f.last = principals
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandler_HandleReload(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{principals: []principal.Principal{
		{DisplayName: "Alice", LoginID: "alice", Secret: "pw", NotifyAddress: "alice@example.com"},
	}}
	jobs := &fakeJobSet{}
	h := NewHandler(loader, jobs, discardLogger())

	if err := h.HandleReload(context.Background()); err != nil {
		t.Fatalf("HandleReload: %v", err)
	}
	if jobs.calls != 1 {
		t.Errorf("ReplaceAll called %d times, want 1", jobs.calls)
	}
	if len(jobs.last) != 1 || jobs.last[0].LoginID != "alice" {
		t.Errorf("ReplaceAll got %+v", jobs.last)
	}
}

func TestHandler_HandleReload_CorruptStore(t *testing.T) {
	t.Parallel()

	// Corrupt store degrades to an empty set instead of failing.
	loader := &fakeLoader{err: fmt.Errorf("decode: %w", store.ErrStoreCorrupt)}
	jobs := &fakeJobSet{}
	h := NewHandler(loader, jobs, discardLogger())

	if err := h.HandleReload(context.Background()); err != nil {
		t.Fatalf("HandleReload: %v", err)
	}
	if jobs.calls != 1 {
		t.Errorf("ReplaceAll called %d times, want 1", jobs.calls)
	}
	if len(jobs.last) != 0 {
		t.Errorf("got %d principals, want 0", len(jobs.last))
	}
}

func TestHandler_HandleReload_LoadError(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{err: errors.New("disk on fire")}
	jobs := &fakeJobSet{}
	h := NewHandler(loader, jobs, discardLogger())

	if err := h.HandleReload(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if jobs.calls != 0 {
		t.Error("job set must stay untouched when the load fails")
	}
}

func TestHandler_HandleReload_CancelledContext(t *testing.T) {
	t.Parallel()

	h := NewHandler(&fakeLoader{}, &fakeJobSet{}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.HandleReload(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
