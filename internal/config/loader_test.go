package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
version: "1"
data_dir: /var/lib/snapmail
log:
  level: debug
modules:
  store.file:
    path: /var/lib/snapmail/users.json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Version != "1" {
		t.Errorf("version = %q", cfg.Version)
	}
	if cfg.DataDir != "/var/lib/snapmail" {
		t.Errorf("data_dir = %q", cfg.DataDir)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if _, ok := cfg.Modules["store.file"]; !ok {
		t.Error("store.file module config missing")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("SNAPMAIL_TEST_DIR", "/srv/snapmail")

	path := writeConfig(t, `
version: "1"
data_dir: ${SNAPMAIL_TEST_DIR}
log:
  level: ${SNAPMAIL_TEST_LEVEL:-info}
modules:
  store.file: {}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/srv/snapmail" {
		t.Errorf("data_dir = %q, want env value", cfg.DataDir)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q, want default", cfg.Log.Level)
	}
}

func TestLoad_UnresolvedVariable(t *testing.T) {
	path := writeConfig(t, `
version: "1"
data_dir: ${SNAPMAIL_DEFINITELY_UNSET_VAR}
modules: {}
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unresolved variable")
	}
	if !strings.Contains(err.Error(), "SNAPMAIL_DEFINITELY_UNSET_VAR") {
		t.Errorf("error should name the variable: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
