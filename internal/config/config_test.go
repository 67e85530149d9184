package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log.level = %q, want info", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("log.format = %q, want json", cfg.Log.Format)
	}
	if !strings.HasSuffix(cfg.Database.Path, "studydesk.db") {
		t.Errorf("database.path = %q, want suffix studydesk.db", cfg.Database.Path)
	}
	if cfg.Export.Dir == "" {
		t.Error("export.dir should default to a directory")
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Path == "" {
		t.Error("expected default database path")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
database:
  path: /tmp/custom.db
log:
  level: debug
  format: console
  file: ""
export:
  dir: /tmp/exports
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Path != "/tmp/custom.db" {
		t.Errorf("database.path = %q", cfg.Database.Path)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "console" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Log.File != "" {
		t.Errorf("log.file = %q, want empty", cfg.Log.File)
	}
	if cfg.Export.Dir != "/tmp/exports" {
		t.Errorf("export.dir = %q", cfg.Export.Dir)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("STUDYDESK_LOG_LEVEL", "warn")
	t.Setenv("STUDYDESK_DATABASE_PATH", "/tmp/env.db")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want warn", cfg.Log.Level)
	}
	if cfg.Database.Path != "/tmp/env.db" {
		t.Errorf("database.path = %q, want /tmp/env.db", cfg.Database.Path)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestDefaultPath(t *testing.T) {
	p := DefaultPath()
	if filepath.Base(p) != "config.yaml" {
		t.Errorf("DefaultPath() = %q", p)
	}
}
