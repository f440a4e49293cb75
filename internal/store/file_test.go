package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/snapmail/snapmail/internal/principal"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "users.json"))
}

func TestFileStore_Load_MissingFile(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	principals, err := s.Load()
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(principals) != 0 {
		t.Errorf("expected empty list, got %d entries", len(principals))
	}
}

func TestFileStore_Load_CorruptFile(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	principals, err := s.Load()
	if !errors.Is(err, ErrStoreCorrupt) {
		t.Fatalf("err = %v, want ErrStoreCorrupt", err)
	}
	if len(principals) != 0 {
		t.Errorf("corrupt load must degrade to empty list, got %d entries", len(principals))
	}
}

func TestFileStore_SaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	want := []principal.Principal{
		{DisplayName: "Alice", LoginID: "alice", Secret: "x", NotifyAddress: "a@example.com"},
		{DisplayName: "Bob", LoginID: "bob", Secret: "y", NotifyAddress: "b@example.com"},
	}
	if err := s.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d principals, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("principal[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFileStore_Save_OverwritesPriorContent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	first := []principal.Principal{{LoginID: "alice", Secret: "x", NotifyAddress: "a@example.com"}}
	if err := s.Save(first); err != nil {
		t.Fatal(err)
	}
	second := []principal.Principal{{LoginID: "bob", Secret: "y", NotifyAddress: "b@example.com"}}
	if err := s.Save(second); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].LoginID != "bob" {
		t.Errorf("save must fully replace content, got %+v", got)
	}
}

func TestFileStore_Add_EnforcesUniqueness(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	alice := principal.Principal{LoginID: "alice", Secret: "x", NotifyAddress: "a@example.com"}

	if _, err := s.Add(alice); err != nil {
		t.Fatalf("first add: %v", err)
	}

	_, err := s.Add(principal.Principal{LoginID: "alice", Secret: "other", NotifyAddress: "elsewhere@example.com"})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("err = %v, want ErrDuplicateKey", err)
	}

	// A rejected add must leave the store unchanged.
	got, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != alice {
		t.Errorf("store changed by rejected add: %+v", got)
	}
}

func TestFileStore_Add_RecoversFromCorruptFile(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if err := os.WriteFile(s.Path(), []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}

	p := principal.Principal{LoginID: "alice", Secret: "x", NotifyAddress: "a@example.com"}
	if _, err := s.Add(p); err != nil {
		t.Fatalf("add over corrupt file should recover: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("load after recovery: %v", err)
	}
	if len(got) != 1 || got[0] != p {
		t.Errorf("got %+v, want single alice entry", got)
	}
}
