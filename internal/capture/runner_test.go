package capture

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/snapmail/snapmail/internal/principal"
)

// fakeSession counts Close calls and fails on demand.
type fakeSession struct {
	loginErr   error
	captureErr error
	closes     *atomic.Int32
}

func (s *fakeSession) Login(_ context.Context, _, _ string) error { return s.loginErr }
func (s *fakeSession) Capture(_ context.Context, _ string) error  { return s.captureErr }
func (s *fakeSession) Close() error                               { s.closes.Add(1); return nil }

func testRunner(t *testing.T, acquire func(ctx context.Context) (session, error)) *BrowserRunner {
	t.Helper()
	r := NewBrowserRunner(Config{
		LoginURL:    "https://portal.test/login",
		PortalURL:   "https://portal.test/home",
		ArtifactDir: t.TempDir(),
	}, slog.Default())
	r.acquire = acquire
	r.sleep = func(_ context.Context, _ time.Duration) error { return nil }
	return r
}

func alice() principal.Principal {
	return principal.Principal{LoginID: "alice", Secret: "x", NotifyAddress: "a@example.com"}
}

func TestRun_Success(t *testing.T) {
	t.Parallel()

	var closes atomic.Int32
	r := testRunner(t, func(_ context.Context) (session, error) {
		return &fakeSession{closes: &closes}, nil
	})

	out := r.Run(context.Background(), alice())
	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
	if out.ArtifactPath == "" {
		t.Error("success outcome must carry an artifact path")
	}
	if closes.Load() != 1 {
		t.Errorf("session closed %d times, want exactly 1", closes.Load())
	}
}

func TestRun_RetryBound(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	r := testRunner(t, func(_ context.Context) (session, error) {
		attempts.Add(1)
		return nil, errors.New("browser busy")
	})

	out := r.Run(context.Background(), alice())
	if out.Success {
		t.Fatal("expected failure")
	}
	if out.Reason != ReasonResourceUnavailable {
		t.Errorf("reason = %q, want %q", out.Reason, ReasonResourceUnavailable)
	}
	// Exactly the bound, never a 4th attempt.
	if got := attempts.Load(); got != 3 {
		t.Errorf("acquisition attempted %d times, want 3", got)
	}
}

func TestRun_TransientAcquireFailure(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	var closes atomic.Int32
	r := testRunner(t, func(_ context.Context) (session, error) {
		if attempts.Add(1) < 3 {
			return nil, errors.New("browser busy")
		}
		return &fakeSession{closes: &closes}, nil
	})

	out := r.Run(context.Background(), alice())
	if !out.Success {
		t.Fatalf("run should succeed once acquisition recovers, got %+v", out)
	}
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", attempts.Load())
	}
	if closes.Load() != 1 {
		t.Errorf("session closed %d times, want exactly 1", closes.Load())
	}
}

func TestRun_FailureClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sess *fakeSession
		want Reason
	}{
		{"login failure", &fakeSession{loginErr: errors.New("bad credentials")}, ReasonAuthenticationFailed},
		{"capture failure", &fakeSession{captureErr: errors.New("portal unreachable")}, ReasonNavigationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var closes atomic.Int32
			tt.sess.closes = &closes
			r := testRunner(t, func(_ context.Context) (session, error) {
				return tt.sess, nil
			})

			out := r.Run(context.Background(), alice())
			if out.Success {
				t.Fatal("expected failure")
			}
			if out.Reason != tt.want {
				t.Errorf("reason = %q, want %q", out.Reason, tt.want)
			}
			if out.Err == nil {
				t.Error("failure outcome must carry the cause")
			}
			// Release happens exactly once on every failure path too.
			if closes.Load() != 1 {
				t.Errorf("session closed %d times, want exactly 1", closes.Load())
			}
		})
	}
}

func TestRun_CancelledContextStopsRetry(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var attempts atomic.Int32
	r := testRunner(t, func(_ context.Context) (session, error) {
		attempts.Add(1)
		return nil, errors.New("browser busy")
	})
	r.sleep = sleepCtx // real sleep so cancellation is observed

	out := r.Run(ctx, alice())
	if out.Success {
		t.Fatal("expected failure")
	}
	if attempts.Load() >= 3 {
		t.Errorf("cancelled run kept retrying: %d attempts", attempts.Load())
	}
}
