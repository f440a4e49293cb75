package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/snapmail/snapmail/internal/principal"
)

// Sentinel errors for store operations.
var (
	// ErrStoreCorrupt signals that the persisted principal list could not
	// be parsed. Callers treat it as "no principals" and keep operating;
	// a later Save rewrites the file wholesale.
	ErrStoreCorrupt = errors.New("store: persisted principal list is corrupt")

	// ErrDuplicateKey signals that an Add would violate the login ID
	// uniqueness invariant. The store is left unchanged.
	ErrDuplicateKey = errors.New("store: duplicate login id")
)

// FileStore persists the full principal list as a JSON array at a fixed
// path, rewriting the whole file on every Save. Writes are serialised by
// an internal mutex; the file itself is not written atomically (a crash
// mid-write can corrupt it, which Load tolerates).
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore for the given path. The file does not
// need to exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the location of the persisted principal list.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the persisted principal list. A missing file yields an empty
// list and no error. A malformed file yields an empty list and a
// non-fatal ErrStoreCorrupt.
func (s *FileStore) Load() ([]principal.Principal, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []principal.Principal{}, nil
		}
		return []principal.Principal{}, fmt.Errorf("%w: reading %s: %w", ErrStoreCorrupt, s.path, err)
	}

	var principals []principal.Principal
	if err := json.Unmarshal(raw, &principals); err != nil {
		return []principal.Principal{}, fmt.Errorf("%w: parsing %s: %w", ErrStoreCorrupt, s.path, err)
	}
	if principals == nil {
		principals = []principal.Principal{}
	}
	return principals, nil
}

// Save persists the full collection, overwriting prior content.
func (s *FileStore) Save(principals []principal.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(principals)
}

func (s *FileStore) save(principals []principal.Principal) error {
	raw, err := json.MarshalIndent(principals, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encoding principals: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("store: writing %s: %w", s.path, err)
	}
	return nil
}

// Add appends a principal after enforcing login ID uniqueness, then saves.
// Returns ErrDuplicateKey and leaves the file untouched when the login ID
// is already registered. A corrupt existing file is treated as empty, so
// Add doubles as the recovery path after corruption.
func (s *FileStore) Add(p principal.Principal) (principal.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	principals, err := s.Load()
	if err != nil && !errors.Is(err, ErrStoreCorrupt) {
		return principal.Principal{}, err
	}

	for _, existing := range principals {
		if existing.LoginID == p.LoginID {
			return principal.Principal{}, fmt.Errorf("%w: %s", ErrDuplicateKey, p.LoginID)
		}
	}

	principals = append(principals, p)
	if err := s.save(principals); err != nil {
		return principal.Principal{}, err
	}
	return p, nil
}
