package capture

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

// Compile-time interface guards.
var (
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
)

// Module wires the BrowserRunner into the module system and registers it
// as the "capture.runner" service.
type Module struct {
	config Config
	runner *BrowserRunner
	logger *slog.Logger
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "capture.browser",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("capture: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger

	if m.config.ArtifactDir == "" {
		m.config.ArtifactDir = filepath.Join(ctx.DataDir, "screenshots")
	}
	if err := os.MkdirAll(m.config.ArtifactDir, 0o755); err != nil {
		return fmt.Errorf("capture: create artifact directory %s: %w", m.config.ArtifactDir, err)
	}

	m.runner = NewBrowserRunner(m.config, m.logger)
	ctx.RegisterService("capture.runner", m.runner)

	m.logger.Info("browser capture provisioned",
		"login_url", m.config.LoginURL,
		"portal_url", m.config.PortalURL,
		"artifact_dir", m.config.ArtifactDir,
	)
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	if m.config.LoginURL == "" {
		return errors.New("capture: login_url is required")
	}
	if m.config.PortalURL == "" {
		return errors.New("capture: portal_url is required")
	}
	return nil
}

// Runner returns the provisioned runner.
func (m *Module) Runner() Runner {
	return m.runner
}
