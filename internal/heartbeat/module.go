package heartbeat

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/snapmail/snapmail/internal/core"
)

func init() {
	core.RegisterModule(&Module{})
}

// Compile-time interface guards.
var (
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
	_ core.Starter      = (*Module)(nil)
	_ core.Stopper      = (*Module)(nil)
)

// ModuleConfig is the YAML configuration for the heartbeat module.
type ModuleConfig struct {
	URL        string        `yaml:"url"`
	Interval   time.Duration `yaml:"interval"`
	Timeout    time.Duration `yaml:"timeout"`
	QuietHours string        `yaml:"quiet_hours"` // "HH:MM-HH:MM", optional
	Timezone   string        `yaml:"timezone"`
}

// Module wires the Heartbeat into the module system.
type Module struct {
	config ModuleConfig
	hb     *Heartbeat
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "heartbeat.ping",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("heartbeat: decode config: %w", err)
	}
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	cfg := Config{
		URL:      m.config.URL,
		Interval: m.config.Interval,
		Timeout:  m.config.Timeout,
		Logger:   ctx.Logger,
	}

	if m.config.QuietHours != "" {
		quiet, err := ParseQuietHours(m.config.QuietHours)
		if err != nil {
			return err
		}
		cfg.QuietHours = &quiet
	}
	if m.config.Timezone != "" {
		loc, err := time.LoadLocation(m.config.Timezone)
		if err != nil {
			return fmt.Errorf("heartbeat: unknown timezone %q: %w", m.config.Timezone, err)
		}
		cfg.Timezone = loc
	}

	hb, err := New(cfg)
	if err != nil {
		return err
	}
	m.hb = hb
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	if m.config.URL == "" {
		return fmt.Errorf("heartbeat: url is required")
	}
	return nil
}

// Start implements core.Starter.
func (m *Module) Start() error {
	return m.hb.Start(context.Background())
}

// Stop implements core.Stopper.
func (m *Module) Stop(ctx context.Context) error {
	return m.hb.Stop(ctx)
}
