package capture

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/snapmail/snapmail/internal/principal"
)

// session is one acquired, isolated browser context. It is never shared
// across concurrent runs; each run acquires its own and must close it
// exactly once.
type session interface {
	// Login loads the entry page and submits the credential pair.
	Login(ctx context.Context, loginID, secret string) error

	// Capture navigates to the portal page and writes a full-page
	// screenshot to path.
	Capture(ctx context.Context, path string) error

	// Close releases the browser. Must be called on every exit path.
	Close() error
}

// BrowserRunner implements Runner on top of a headless browser. The
// acquire hook is swappable so tests can run without a real browser.
type BrowserRunner struct {
	cfg     Config
	logger  *slog.Logger
	tracer  trace.Tracer
	acquire func(ctx context.Context) (session, error)

	// sleep is injectable for retry tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Compile-time interface guard.
var _ Runner = (*BrowserRunner)(nil)

// NewBrowserRunner creates a runner using rod-launched headless Chromium.
func NewBrowserRunner(cfg Config, logger *slog.Logger) *BrowserRunner {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserRunner{
		cfg:     cfg,
		logger:  logger,
		tracer:  otel.Tracer("snapmail/capture"),
		acquire: func(ctx context.Context) (session, error) { return acquireRodSession(ctx, cfg) },
		sleep:   sleepCtx,
	}
}

// Run performs one capture attempt. Only browser acquisition is retried;
// login and capture failures end the run and surface in the outcome. The
// next scheduled trigger is the whole-run retry.
func (r *BrowserRunner) Run(ctx context.Context, p principal.Principal) Outcome {
	ctx, span := r.tracer.Start(ctx, "capture.run",
		trace.WithAttributes(attribute.String("login_id", p.LoginID)))
	defer span.End()

	sess, err := r.acquireWithRetry(ctx)
	if err != nil {
		r.logger.Error("browser unavailable after retries",
			"login_id", p.LoginID,
			"attempts", r.cfg.AcquireAttempts,
			"error", err,
		)
		return Failed(ReasonResourceUnavailable, err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			r.logger.Warn("browser close error", "login_id", p.LoginID, "error", err)
		}
	}()

	span.AddEvent("browser acquired")

	if err := sess.Login(ctx, p.LoginID, p.Secret); err != nil {
		r.logger.Error("login failed", "login_id", p.LoginID, "error", err)
		return Failed(ReasonAuthenticationFailed, err)
	}
	span.AddEvent("authenticated")

	path := filepath.Join(r.cfg.ArtifactDir, p.LoginID+".png")
	if err := sess.Capture(ctx, path); err != nil {
		r.logger.Error("capture failed", "login_id", p.LoginID, "error", err)
		return Failed(ReasonNavigationFailed, err)
	}
	span.AddEvent("artifact captured")

	r.logger.Info("capture complete", "login_id", p.LoginID, "artifact", path)
	return Succeeded(path)
}

// acquireWithRetry attempts acquisition up to the configured bound with a
// fixed backoff between attempts. It never makes an attempt beyond the
// bound.
func (r *BrowserRunner) acquireWithRetry(ctx context.Context) (session, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.AcquireAttempts; attempt++ {
		sess, err := r.acquire(ctx)
		if err == nil {
			return sess, nil
		}
		lastErr = err
		r.logger.Warn("browser acquisition failed",
			"attempt", attempt,
			"max_attempts", r.cfg.AcquireAttempts,
			"error", err,
		)
		if attempt < r.cfg.AcquireAttempts {
			if err := r.sleep(ctx, r.cfg.AcquireBackoff); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("capture: acquiring browser after %d attempts: %w", r.cfg.AcquireAttempts, lastErr)
}

// sleepCtx sleeps for d unless ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
