// Package store implements the persisted principal list as a flat JSON
// file, fully rewritten on every save. It is the single writer in the
// system; readers tolerate a corrupt file by degrading to an empty list.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/snapmail/snapmail/internal/core"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Module{})
}

const defaultStoreFile = "users.json"

// Compile-time interface guards.
var (
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
)

// Config holds file store configuration.
type Config struct {
	// Path to the JSON principal list. Defaults to <DataDir>/users.json.
	Path string `yaml:"path"`
}

// Module wires the FileStore into the module system and registers it as
// the "store.principals" service.
type Module struct {
	config Config
	store  *FileStore
	logger *slog.Logger
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "store.file",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("store: decode config: %w", err)
	}
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.logger = ctx.Logger

	if m.config.Path == "" {
		m.config.Path = filepath.Join(ctx.DataDir, defaultStoreFile)
	}
	if dir := filepath.Dir(m.config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("store: create directory %s: %w", dir, err)
		}
	}

	m.store = NewFileStore(m.config.Path)
	ctx.RegisterService("store.principals", m.store)

	m.logger.Info("principal store provisioned", "path", m.config.Path)
	return nil
}

// Validate implements core.Validator. A corrupt file is logged, not fatal:
// the system must come up with an empty principal set in that case.
func (m *Module) Validate() error {
	principals, err := m.store.Load()
	if err != nil {
		if errors.Is(err, ErrStoreCorrupt) {
			m.logger.Warn("principal list unreadable, starting with empty set", "error", err)
			return nil
		}
		return err
	}
	m.logger.Info("principal list loaded", "count", len(principals))
	return nil
}

// Store returns the underlying FileStore.
func (m *Module) Store() *FileStore {
	return m.store
}
