package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// rodSession is the real session implementation: a dedicated Chromium
// process launched per run and torn down with it.
type rodSession struct {
	cfg      Config
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// acquireRodSession launches a fresh browser process and connects to it.
// Launch failure is the transient "resource busy" case the caller retries.
func acquireRodSession(ctx context.Context, cfg Config) (session, error) {
	l := launcher.New().Headless(!cfg.ShowBrowser)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("capture: launching browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("capture: connecting to browser: %w", err)
	}

	return &rodSession{cfg: cfg, launcher: l, browser: browser}, nil
}

// Login implements session.
func (s *rodSession) Login(ctx context.Context, loginID, secret string) error {
	page, err := s.browser.Page(proto.TargetCreateTarget{URL: s.cfg.LoginURL})
	if err != nil {
		return fmt.Errorf("capture: opening login page: %w", err)
	}
	page = page.Context(ctx)

	if err := page.Timeout(s.cfg.PageLoadTimeout).WaitLoad(); err != nil {
		return fmt.Errorf("capture: loading %s: %w", s.cfg.LoginURL, err)
	}

	userEl, err := page.Element(s.cfg.UserSelector)
	if err != nil {
		return fmt.Errorf("capture: locating user field %q: %w", s.cfg.UserSelector, err)
	}
	if err := userEl.Input(loginID); err != nil {
		return fmt.Errorf("capture: filling user field: %w", err)
	}

	passEl, err := page.Element(s.cfg.PassSelector)
	if err != nil {
		return fmt.Errorf("capture: locating password field %q: %w", s.cfg.PassSelector, err)
	}
	if err := passEl.Input(secret); err != nil {
		return fmt.Errorf("capture: filling password field: %w", err)
	}

	// The wait function simply returns once the bounded window elapses:
	// a portal that swaps content without a navigation event is fine.
	wait := page.Timeout(s.cfg.SubmitNavTimeout).WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)

	submitEl, err := page.Element(s.cfg.SubmitSelector)
	if err != nil {
		return fmt.Errorf("capture: locating submit button %q: %w", s.cfg.SubmitSelector, err)
	}
	if err := submitEl.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("capture: submitting credentials: %w", err)
	}
	wait()

	s.page = page
	return nil
}

// Capture implements session.
func (s *rodSession) Capture(ctx context.Context, path string) error {
	if s.page == nil {
		return fmt.Errorf("capture: no authenticated page")
	}

	if err := s.page.Navigate(s.cfg.PortalURL); err != nil {
		return fmt.Errorf("capture: navigating to %s: %w", s.cfg.PortalURL, err)
	}
	if err := s.page.Timeout(s.cfg.PageLoadTimeout).WaitLoad(); err != nil {
		return fmt.Errorf("capture: loading %s: %w", s.cfg.PortalURL, err)
	}

	// Fixed settle delay for client-side rendering that finishes after load.
	if err := sleepCtx(ctx, s.cfg.SettleDelay); err != nil {
		return err
	}

	shot, err := s.page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return fmt.Errorf("capture: taking screenshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("capture: creating artifact directory: %w", err)
		}
	}
	if err := os.WriteFile(path, shot, 0o644); err != nil {
		return fmt.Errorf("capture: writing artifact %s: %w", path, err)
	}
	return nil
}

// Close implements session. Safe on every exit path; releases the browser
// process and its temp profile directory.
func (s *rodSession) Close() error {
	err := s.browser.Close()
	s.launcher.Cleanup()
	return err
}
