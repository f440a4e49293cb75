// Package schedule owns the set of recurring capture triggers: one daily
// cron entry per registered principal, plus the daily store reload that
// replaces the whole set. All mutation of the job registry goes through
// this single owner; nothing else touches the entry map.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/snapmail/snapmail/internal/capture"
	"github.com/snapmail/snapmail/internal/events"
	"github.com/snapmail/snapmail/internal/journal"
	"github.com/snapmail/snapmail/internal/notify"
	"github.com/snapmail/snapmail/internal/principal"
)

// Deps are the collaborators a firing trigger needs. They are bound at
// module start, after every module has provisioned its services.
type Deps struct {
	Runner   capture.Runner
	Notifier notify.Notifier
	Recorder journal.Recorder // optional
	Broker   *events.Broker   // optional
}

// Scheduler manages one recurring trigger per principal. At most one live
// entry exists per login ID at any instant: registering a job for an
// existing login ID removes the prior entry and installs the new one under
// a single lock acquisition, so two timers for the same login ID can never
// be active together.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	spec    string
	entries map[string]cron.EntryID
	deps    Deps
	logger  *slog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// New creates a Scheduler firing at the given 5-field cron spec in loc.
// Jobs may be registered before Start; they fire only once started.
func New(spec string, loc *time.Location, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &Scheduler{
		cron:    cron.New(cron.WithParser(parser), cron.WithLocation(loc)),
		spec:    spec,
		entries: make(map[string]cron.EntryID),
		logger:  logger,
		now:     time.Now,
	}
}

// Bind installs the run collaborators.
func (s *Scheduler) Bind(deps Deps) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deps = deps
}

// Start begins firing triggers.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels all future firings and waits for in-flight callbacks to
// return. It does not interrupt an in-flight capture run's browser work;
// that finishes on its own.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddReloadEntry installs a fixed housekeeping trigger (the daily store
// reload) that is independent of the per-principal registry.
func (s *Scheduler) AddReloadEntry(spec string, fn func()) error {
	_, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		return fmt.Errorf("schedule: invalid reload spec %q: %w", spec, err)
	}
	return nil
}

// ScheduleOne installs the recurring trigger for p, atomically replacing
// any prior trigger for the same login ID.
func (s *Scheduler) ScheduleOne(p principal.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleLocked(p)
}

func (s *Scheduler) scheduleLocked(p principal.Principal) error {
	if old, ok := s.entries[p.LoginID]; ok {
		s.cron.Remove(old)
		delete(s.entries, p.LoginID)
		s.logger.Info("replacing job", "login_id", p.LoginID)
	}

	// The principal is captured by value: a later store reload builds a
	// fresh entry rather than mutating this one.
	id, err := s.cron.AddFunc(s.spec, func() { s.runJob(p) })
	if err != nil {
		return fmt.Errorf("schedule: adding job for %s: %w", p.LoginID, err)
	}
	s.entries[p.LoginID] = id

	s.logger.Info("job scheduled", "login_id", p.LoginID, "spec", s.spec)
	return nil
}

// ReplaceAll stops every active job, clears the registry, and schedules
// each complete principal from the input. Principals missing required
// fields are skipped silently; bulk reloads must not abort on one bad row.
func (s *Scheduler) ReplaceAll(principals []principal.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopAllLocked()

	for _, p := range principals {
		if !p.Complete() {
			s.logger.Debug("skipping incomplete principal", "login_id", p.LoginID)
			continue
		}
		if err := s.scheduleLocked(p); err != nil {
			s.logger.Error("scheduling failed", "login_id", p.LoginID, "error", err)
		}
	}

	s.logger.Info("job set replaced", "active", len(s.entries), "input", len(principals))
}

// StopAll stops every active job and clears the registry.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopAllLocked()
}

func (s *Scheduler) stopAllLocked() {
	for loginID, id := range s.entries {
		s.cron.Remove(id)
		delete(s.entries, loginID)
	}
}

// ActiveLogins returns the login IDs with a live trigger, sorted.
func (s *Scheduler) ActiveLogins() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	logins := make([]string, 0, len(s.entries))
	for loginID := range s.entries {
		logins = append(logins, loginID)
	}
	slices.Sort(logins)
	return logins
}

// runJob is the trigger callback: run the capture, journal and publish the
// outcome, notify on success. Every failure is contained here. Nothing may
// escape to the cron runner, and the trigger stays installed for its next
// firing no matter what happened in this one.
func (s *Scheduler) runJob(p principal.Principal) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("capture run panicked", "login_id", p.LoginID, "panic", r)
		}
	}()

	s.mu.Lock()
	deps := s.deps
	s.mu.Unlock()

	if deps.Runner == nil {
		s.logger.Error("no capture runner bound, skipping run", "login_id", p.LoginID)
		return
	}

	ctx := context.Background()
	started := s.now()

	s.logger.Info("capture run starting", "login_id", p.LoginID)
	outcome := deps.Runner.Run(ctx, p)
	finished := s.now()

	label := outcomeLabel(outcome)
	runsTotal.WithLabelValues(label).Inc()
	runDuration.Observe(finished.Sub(started).Seconds())

	if deps.Recorder != nil {
		rec := journal.Record{
			LoginID:      p.LoginID,
			Outcome:      label,
			ArtifactPath: outcome.ArtifactPath,
			StartedAt:    started,
			FinishedAt:   finished,
		}
		if outcome.Err != nil {
			rec.Error = outcome.Err.Error()
		}
		if err := deps.Recorder.Record(ctx, rec); err != nil {
			s.logger.Error("journaling run failed", "login_id", p.LoginID, "error", err)
		}
	}

	if deps.Broker != nil {
		evt := events.RunEvent{
			LoginID:      p.LoginID,
			Outcome:      label,
			ArtifactPath: outcome.ArtifactPath,
			StartedAt:    started,
			FinishedAt:   finished,
		}
		if outcome.Err != nil {
			evt.Error = outcome.Err.Error()
		}
		deps.Broker.Publish(evt)
	}

	if !outcome.Success {
		s.logger.Error("capture run failed",
			"login_id", p.LoginID,
			"reason", string(outcome.Reason),
			"error", outcome.Err,
		)
		return
	}

	if deps.Notifier == nil {
		return
	}
	if err := deps.Notifier.Send(ctx, p, outcome); err != nil {
		// Delivery failure never affects the recorded outcome of the run.
		notificationsTotal.WithLabelValues("error").Inc()
		s.logger.Error("notification failed", "login_id", p.LoginID, "error", err)
		return
	}
	notificationsTotal.WithLabelValues("sent").Inc()
}

// outcomeLabel maps an outcome to its journal/metrics label.
func outcomeLabel(o capture.Outcome) string {
	if o.Success {
		return "success"
	}
	return string(o.Reason)
}
