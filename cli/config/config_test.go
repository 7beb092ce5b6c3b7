package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spool.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
input: fragments.txt
format: json
strict: true
journal: run.journal
adapter:
  type: redis
  url: redis://localhost:6379
  channel: spool:events
  timeout: 10s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Input != "fragments.txt" {
		t.Errorf("Input = %q, want fragments.txt", cfg.Input)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Format)
	}
	if !cfg.Strict {
		t.Error("Strict = false, want true")
	}
	if cfg.Journal != "run.journal" {
		t.Errorf("Journal = %q, want run.journal", cfg.Journal)
	}
	if cfg.Adapter.Type != "redis" {
		t.Errorf("Adapter.Type = %q, want redis", cfg.Adapter.Type)
	}
	if cfg.Adapter.Channel != "spool:events" {
		t.Errorf("Adapter.Channel = %q, want spool:events", cfg.Adapter.Channel)
	}
	if cfg.Adapter.Timeout.Duration != 10*time.Second {
		t.Errorf("Adapter.Timeout = %v, want 10s", cfg.Adapter.Timeout.Duration)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v, want not-found message", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "input: [unclosed")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "invalid YAML") {
		t.Errorf("error = %v, want invalid YAML message", err)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("SPOOL_TEST_URL", "https://hooks.example.com/run")
	path := writeConfig(t, `
adapter:
  type: webhook
  url: ${SPOOL_TEST_URL}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Adapter.URL != "https://hooks.example.com/run" {
		t.Errorf("Adapter.URL = %q, want expanded env value", cfg.Adapter.URL)
	}
}

func TestDuration_InvalidString(t *testing.T) {
	path := writeConfig(t, `
adapter:
  timeout: forever
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("SPOOL_SET", "value")
	os.Unsetenv("SPOOL_UNSET")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"set variable", "${SPOOL_SET}", "value"},
		{"unset without default", "${SPOOL_UNSET}", ""},
		{"unset with default", "${SPOOL_UNSET:-fallback}", "fallback"},
		{"set ignores default", "${SPOOL_SET:-fallback}", "value"},
		{"no pattern passthrough", "plain text $HOME", "plain text $HOME"},
		{"embedded", "url: ${SPOOL_SET}/path", "url: value/path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandEnv(tt.input); got != tt.want {
				t.Errorf("ExpandEnv(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
