package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/snapmail/snapmail/internal/capture"
	"github.com/snapmail/snapmail/internal/core"
	"github.com/snapmail/snapmail/internal/events"
	"github.com/snapmail/snapmail/internal/journal"
	"github.com/snapmail/snapmail/internal/notify"
	"github.com/snapmail/snapmail/internal/reload"
	"github.com/snapmail/snapmail/internal/store"
)

func init() {
	core.RegisterModule(&Module{})
}

const (
	defaultRunAt    = "08:00"
	defaultReloadAt = "07:45"
	defaultTimezone = "UTC"
)

// Compile-time interface guards.
var (
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
	_ core.Starter      = (*Module)(nil)
	_ core.Stopper      = (*Module)(nil)
)

// Config holds scheduling configuration. Clock fields are "HH:MM" in the
// configured timezone.
type Config struct {
	// RunAt is the daily capture time. Defaults to 08:00.
	RunAt string `yaml:"run_at"`

	// ReloadAt is the daily store reload time. Defaults to 07:45, shortly
	// before the captures, so out-of-band store edits take effect first.
	ReloadAt string `yaml:"reload_at"`

	// Timezone is an IANA zone name for both clocks. Defaults to UTC.
	Timezone string `yaml:"timezone"`

	// DisableWatch turns off the store file watcher; reloads then happen
	// only on the daily trigger and the admin endpoint.
	DisableWatch bool `yaml:"disable_watch"`

	// WatchInterval is the store file poll interval.
	WatchInterval time.Duration `yaml:"watch_interval"`
}

func (c *Config) defaults() {
	if c.RunAt == "" {
		c.RunAt = defaultRunAt
	}
	if c.ReloadAt == "" {
		c.ReloadAt = defaultReloadAt
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
}

// Module wires the Scheduler into the module system. It registers the
// "schedule.jobs" and "events.runs" services at provision time, then binds
// the capture, notification and journal collaborators at start, after every
// module has provisioned.
type Module struct {
	config  Config
	sched   *Scheduler
	broker  *events.Broker
	handler *reload.Handler
	watcher *reload.Watcher
	appCtx  *core.AppContext
	logger  *slog.Logger

	watchCancel context.CancelFunc
	watchDone   chan struct{}
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "schedule.daily",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("schedule: decode config: %w", err)
	}
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger
	m.appCtx = ctx

	loc, err := time.LoadLocation(m.config.Timezone)
	if err != nil {
		return fmt.Errorf("schedule: unknown timezone %q: %w", m.config.Timezone, err)
	}
	runSpec, err := clockSpec(m.config.RunAt)
	if err != nil {
		return err
	}

	m.sched = New(runSpec, loc, m.logger)
	m.broker = events.NewBroker()

	ctx.RegisterService("schedule.jobs", m.sched)
	ctx.RegisterService("events.runs", m.broker)
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	if _, err := clockSpec(m.config.RunAt); err != nil {
		return err
	}
	if _, err := clockSpec(m.config.ReloadAt); err != nil {
		return err
	}
	return nil
}

// Start implements core.Starter. It binds collaborators from the service
// registry, builds the initial job set from the store, and installs the
// daily reload trigger and the store file watcher.
func (m *Module) Start() error {
	runner, ok := core.ServiceAs[capture.Runner](m.appCtx, "capture.runner")
	if !ok {
		return fmt.Errorf("schedule: capture.runner service not available")
	}
	principals, ok := core.ServiceAs[*store.FileStore](m.appCtx, "store.principals")
	if !ok {
		return fmt.Errorf("schedule: store.principals service not available")
	}

	deps := Deps{Runner: runner, Broker: m.broker}
	if notifier, ok := core.ServiceAs[notify.Notifier](m.appCtx, "notify.mailer"); ok {
		deps.Notifier = notifier
	} else {
		m.logger.Warn("notify.mailer not available, runs will not be mailed")
	}
	if recorder, ok := core.ServiceAs[journal.Recorder](m.appCtx, "journal.runs"); ok {
		deps.Recorder = recorder
	} else {
		m.logger.Warn("journal.runs not available, runs will not be journaled")
	}
	m.sched.Bind(deps)

	m.handler = reload.NewHandler(principals, m.sched, m.logger)
	m.appCtx.RegisterService("reload.handler", m.handler)

	m.sched.Start()

	if err := m.handler.HandleReload(context.Background()); err != nil {
		return fmt.Errorf("schedule: initial job load: %w", err)
	}

	reloadSpec, err := clockSpec(m.config.ReloadAt)
	if err != nil {
		return err
	}
	if err := m.sched.AddReloadEntry(reloadSpec, m.dailyReload); err != nil {
		return err
	}

	if !m.config.DisableWatch {
		m.startWatcher(principals.Path())
	}

	m.logger.Info("scheduler started",
		"run_at", m.config.RunAt,
		"reload_at", m.config.ReloadAt,
		"timezone", m.config.Timezone,
		"jobs", len(m.sched.ActiveLogins()),
	)
	return nil
}

func (m *Module) dailyReload() {
	if err := m.handler.HandleReload(context.Background()); err != nil {
		m.logger.Error("daily reload failed", "error", err)
	}
}

func (m *Module) startWatcher(path string) {
	ctx, cancel := context.WithCancel(context.Background())
	m.watchCancel = cancel
	m.watchDone = make(chan struct{})

	m.watcher = reload.NewWatcher(reload.WatcherConfig{
		Path:         path,
		PollInterval: m.config.WatchInterval,
	})
	m.watcher.Start(ctx)

	go func() {
		defer close(m.watchDone)
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-m.watcher.Events():
				m.logger.Info("principal store changed on disk", "path", evt.Path)
				if err := m.handler.HandleReload(ctx); err != nil {
					m.logger.Error("reload after store change failed", "error", err)
				}
			}
		}
	}()
}

// Stop implements core.Stopper.
func (m *Module) Stop(ctx context.Context) error {
	if m.watchCancel != nil {
		m.watchCancel()
		m.watcher.Stop()
		<-m.watchDone
	}
	if m.sched != nil {
		return m.sched.Stop(ctx)
	}
	return nil
}

// Jobs returns the scheduler.
func (m *Module) Jobs() *Scheduler {
	return m.sched
}

// clockSpec converts an "HH:MM" clock into a 5-field cron spec. The whole
// string must be a clock; trailing text like "08:00pm" is rejected.
func clockSpec(clock string) (string, error) {
	hh, mm, ok := strings.Cut(clock, ":")
	if !ok {
		return "", fmt.Errorf("schedule: invalid clock %q (want HH:MM)", clock)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return "", fmt.Errorf("schedule: invalid clock %q (want HH:MM): %w", clock, err)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return "", fmt.Errorf("schedule: invalid clock %q (want HH:MM): %w", clock, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("schedule: clock %q out of range", clock)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}
