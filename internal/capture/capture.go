// Package capture drives one automated browser session per run: acquire an
// isolated browser, authenticate against the portal, capture a full-page
// screenshot, and release the browser on every exit path.
package capture

import (
	"context"

	"github.com/snapmail/snapmail/internal/principal"
)

// Reason classifies a failed run.
type Reason string

const (
	// ReasonResourceUnavailable: the browser could not be acquired within
	// the bounded retry budget.
	ReasonResourceUnavailable Reason = "resource_unavailable"

	// ReasonAuthenticationFailed: the login step did not complete.
	ReasonAuthenticationFailed Reason = "authentication_failed"

	// ReasonNavigationFailed: the portal page could not be reached or
	// captured after a successful login.
	ReasonNavigationFailed Reason = "navigation_failed"
)

// Outcome is the tagged result of one run. It is produced per run and
// consumed immediately by the notification step; it is never persisted
// here (the journal keeps its own record).
type Outcome struct {
	Success      bool
	ArtifactPath string // set on success
	Reason       Reason // set on failure
	Err          error  // underlying cause, set on failure
}

// Succeeded builds a success outcome pointing at the captured artifact.
func Succeeded(artifactPath string) Outcome {
	return Outcome{Success: true, ArtifactPath: artifactPath}
}

// Failed builds a failure outcome with its classification and cause.
func Failed(reason Reason, err error) Outcome {
	return Outcome{Reason: reason, Err: err}
}

// Runner executes one capture attempt for a principal. Implementations do
// not retry whole-run failures; the next scheduled trigger is the retry.
type Runner interface {
	Run(ctx context.Context, p principal.Principal) Outcome
}
