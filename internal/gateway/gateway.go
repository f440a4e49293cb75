// Package gateway exposes the HTTP surface of snapmail: user registration,
// run history, Prometheus metrics and a live run event stream. It binds to
// loopback by default.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/snapmail/snapmail/internal/core"
	"github.com/snapmail/snapmail/internal/events"
	"github.com/snapmail/snapmail/internal/journal"
	"github.com/snapmail/snapmail/internal/principal"
	"github.com/snapmail/snapmail/internal/store"
)

func init() {
	core.RegisterModule(&Gateway{})
}

// Compile-time interface guards.
var (
	_ core.Configurable = (*Gateway)(nil)
	_ core.Provisioner  = (*Gateway)(nil)
	_ core.Validator    = (*Gateway)(nil)
	_ core.Starter      = (*Gateway)(nil)
	_ core.Stopper      = (*Gateway)(nil)
)

// jobSet is the scheduler surface the gateway consumes
// (service "schedule.jobs").
type jobSet interface {
	ScheduleOne(p principal.Principal) error
	ActiveLogins() []string
}

// reloader is the reload surface (service "reload.handler"). It is
// registered after the gateway starts, so it is resolved per request.
type reloader interface {
	HandleReload(ctx context.Context) error
}

// Gateway is the HTTP gateway module. It is a leaf module; nothing
// imports it.
type Gateway struct {
	config    Config
	appCtx    *core.AppContext
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time

	// Resolved at Start() via the service registry.
	principals *store.FileStore
	jobs       jobSet
	runs       journal.Recorder
	broker     *events.Broker
}

// ModuleInfo implements core.Module.
func (g *Gateway) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "gateway.http",
		New: func() core.Module { return &Gateway{} },
	}
}

// Configure implements core.Configurable.
func (g *Gateway) Configure(node *yaml.Node) error {
	if err := node.Decode(&g.config); err != nil {
		return err
	}
	return nil
}

// Provision implements core.Provisioner.
func (g *Gateway) Provision(ctx *core.AppContext) error {
	g.config.defaults()
	g.appCtx = ctx
	g.logger = ctx.Logger
	return nil
}

// Validate implements core.Validator.
func (g *Gateway) Validate() error {
	if _, err := net.ResolveTCPAddr("tcp", g.config.Bind); err != nil {
		return errors.New("gateway: invalid bind address: " + g.config.Bind)
	}
	return nil
}

// Start implements core.Starter. It resolves collaborators from the
// service registry and starts the HTTP server.
func (g *Gateway) Start() error {
	if s, ok := core.ServiceAs[*store.FileStore](g.appCtx, "store.principals"); ok {
		g.principals = s
	}
	if j, ok := core.ServiceAs[jobSet](g.appCtx, "schedule.jobs"); ok {
		g.jobs = j
	}
	if r, ok := core.ServiceAs[journal.Recorder](g.appCtx, "journal.runs"); ok {
		g.runs = r
	}
	if b, ok := core.ServiceAs[*events.Broker](g.appCtx, "events.runs"); ok {
		g.broker = b
	}

	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.Bind)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop implements core.Stopper. Graceful shutdown with configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
