package notify

import (
	"errors"
	"fmt"
	"log/slog"

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

// Module wires the Mailer into the module system and registers it as the
// "notify.mailer" service.
type Module struct {
	config Config
	mailer *Mailer
	logger *slog.Logger
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "notify.smtp",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("notify: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger

	mailer, err := NewMailer(m.config, m.logger)
	if err != nil {
		return err
	}
	m.mailer = mailer
	ctx.RegisterService("notify.mailer", m.mailer)

	m.logger.Info("mail notifier provisioned", "host", m.config.Host, "from", m.config.From)
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	if m.config.Host == "" {
		return errors.New("notify: host is required")
	}
	if m.config.From == "" {
		return errors.New("notify: from is required")
	}
	return nil
}

// Mailer returns the provisioned mailer.
func (m *Module) Mailer() Notifier {
	return m.mailer
}
