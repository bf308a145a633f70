package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Drafts        struct {
		Strategy      string        `mapstructure:"strategy"`
		DebounceDelay time.Duration `mapstructure:"debounce_delay"`
	} `mapstructure:"drafts"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	cfg := ServiceConfig{Name: "draftd"}
	cfg.ApplyDefaults()
	if cfg.Environment != "development" || !cfg.Debug {
		t.Errorf("expected development with debug, got %+v", cfg)
	}
	if cfg.Logging.ServiceName != "draftd" {
		t.Errorf("expected logging service name to follow config name, got %q", cfg.Logging.ServiceName)
	}

	prod := ServiceConfig{Name: "draftd", Environment: "production"}
	prod.ApplyDefaults()
	if prod.Debug {
		t.Error("expected debug=false for production")
	}
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    ServiceConfig
		errMsg string
	}{
		{"valid", ServiceConfig{Name: "draftd", Environment: "staging"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "draftd", Environment: "qa"}, "config.environment must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %v", tc.errMsg, err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
name: draftd
environment: staging
drafts:
  strategy: debounce
  debounce_delay: 250ms
`)

	var cfg testConfig
	if err := LoadConfig("draftd", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "draftd" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config %+v", cfg.ServiceConfig)
	}
	if cfg.Drafts.Strategy != "debounce" || cfg.Drafts.DebounceDelay != 250*time.Millisecond {
		t.Errorf("unexpected drafts config %+v", cfg.Drafts)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "name: draftd\ndrafts:\n  strategy: debounce\n  debounce_delay: 250ms\n")
	t.Setenv("DRAFTS_STRATEGY", "throttle")

	var cfg testConfig
	if err := LoadConfig("draftd", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Drafts.Strategy != "throttle" {
		t.Errorf("expected env override, got %q", cfg.Drafts.Strategy)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "name: draftd\ndrafts:\n  debounce_delay: 250ms\n")
	envPath := writeFile(t, dir, ".env", "DRAFTS_DEBOUNCE_DELAY=1s\n")
	t.Cleanup(func() { os.Unsetenv("DRAFTS_DEBOUNCE_DELAY") })

	var cfg testConfig
	if err := LoadConfig("draftd", &cfg, WithConfigFile(path), WithEnvFile(envPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Drafts.DebounceDelay != time.Second {
		t.Errorf("expected 1s from .env, got %v", cfg.Drafts.DebounceDelay)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg testConfig
	if err := LoadConfig("draftd", &cfg, WithConfigFile("/nonexistent/config.yml")); err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool   { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestResolveFilesWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/draftd/config.yml": true,
		"./config/.env":           true,
	}}
	files := ResolveFiles("draftd", LoaderConfig{FileSystem: fs})
	if files.ConfigFile != "./cmd/draftd/config.yml" {
		t.Errorf("unexpected config file %q", files.ConfigFile)
	}
	if files.EnvFile != "./config/.env" {
		t.Errorf("unexpected env file %q", files.EnvFile)
	}

	explicit := ResolveFiles("draftd", LoaderConfig{FileSystem: fs, ConfigFile: "/etc/draftd.yml"})
	if explicit.ConfigFile != "/etc/draftd.yml" {
		t.Errorf("expected explicit path to win, got %q", explicit.ConfigFile)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	got := envKeyVariants("DRAFTS_DEBOUNCE_DELAY")
	for _, want := range []string{"drafts_debounce_delay", "drafts.debounce_delay", "drafts.debounce.delay"} {
		if !slices.Contains(got, want) {
			t.Errorf("expected %q in %v", want, got)
		}
	}
	if len(envKeyVariants("NAME")) != 1 {
		t.Errorf("single segment should yield one variant")
	}
}
