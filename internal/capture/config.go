package capture

import "time"

// Config holds browser capture configuration. Selectors and URLs live in
// configuration so the DOM shape of the target portal never leaks into code.
type Config struct {
	// LoginURL is the portal entry point carrying the credential form.
	LoginURL string `yaml:"login_url"`

	// PortalURL is the content page captured after authentication.
	PortalURL string `yaml:"portal_url"`

	// ArtifactDir is where screenshots are written, one per login ID.
	// Defaults to <DataDir>/screenshots.
	ArtifactDir string `yaml:"artifact_dir"`

	// CSS selectors for the credential form.
	UserSelector   string `yaml:"user_selector"`
	PassSelector   string `yaml:"pass_selector"`
	SubmitSelector string `yaml:"submit_selector"`

	// PageLoadTimeout bounds each full page load.
	PageLoadTimeout time.Duration `yaml:"page_load_timeout"`

	// SubmitNavTimeout bounds the wait for the post-submit navigation.
	// Elapsing is tolerated: some portals swap content in place without a
	// detectable navigation event.
	SubmitNavTimeout time.Duration `yaml:"submit_nav_timeout"`

	// SettleDelay is a fixed extra wait after the portal page loads, to
	// ride out client-side rendering races before the screenshot.
	SettleDelay time.Duration `yaml:"settle_delay"`

	// AcquireAttempts and AcquireBackoff bound browser acquisition retry.
	AcquireAttempts int           `yaml:"acquire_attempts"`
	AcquireBackoff  time.Duration `yaml:"acquire_backoff"`

	// ShowBrowser disables headless mode for local debugging.
	ShowBrowser bool `yaml:"show_browser"`
}

// defaults fills zero values with the fixed bounds the run contract names.
func (c *Config) defaults() {
	if c.UserSelector == "" {
		c.UserSelector = `input[name="username"]`
	}
	if c.PassSelector == "" {
		c.PassSelector = `input[name="password"]`
	}
	if c.SubmitSelector == "" {
		c.SubmitSelector = `button[type="submit"]`
	}
	if c.PageLoadTimeout <= 0 {
		c.PageLoadTimeout = 60 * time.Second
	}
	if c.SubmitNavTimeout <= 0 {
		c.SubmitNavTimeout = 10 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 2 * time.Second
	}
	if c.AcquireAttempts <= 0 {
		c.AcquireAttempts = 3
	}
	if c.AcquireBackoff <= 0 {
		c.AcquireBackoff = time.Second
	}
}
