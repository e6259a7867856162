package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "siteadmin.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
endpoint: https://content.example.com
dataset: staging
drafts_dir: /tmp/drafts
preview_port: 9000
`)

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Endpoint != "https://content.example.com" {
		t.Errorf("unexpected endpoint %q", cfg.Endpoint)
	}
	if cfg.Dataset != "staging" {
		t.Errorf("unexpected dataset %q", cfg.Dataset)
	}
	if cfg.PreviewPort != 9000 {
		t.Errorf("unexpected preview port %d", cfg.PreviewPort)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
endpoint: https://content.example.com
`)

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Dataset != "production" {
		t.Errorf("expected default dataset production, got %q", cfg.Dataset)
	}
	if cfg.DraftsDir != "drafts" {
		t.Errorf("expected default drafts dir, got %q", cfg.DraftsDir)
	}
	if cfg.PreviewPort != 7777 {
		t.Errorf("expected default preview port, got %d", cfg.PreviewPort)
	}
	if cfg.WriteToken != "" {
		t.Errorf("expected empty write token by default, got %q", cfg.WriteToken)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
endpoint: https://content.example.com
dataset: production
`)
	t.Setenv("SITEADMIN_DATASET", "sandbox")
	t.Setenv("SITEADMIN_WRITE_TOKEN", "from-env")

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Dataset != "sandbox" {
		t.Errorf("expected env to override dataset, got %q", cfg.Dataset)
	}
	if cfg.WriteToken != "from-env" {
		t.Errorf("expected write token from env, got %q", cfg.WriteToken)
	}
}

func TestEndpointArgumentWins(t *testing.T) {
	path := writeConfig(t, `
endpoint: https://content.example.com
`)

	cfg, err := Load(path, "https://staging.example.com")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Endpoint != "https://staging.example.com" {
		t.Errorf("expected flag endpoint to win, got %q", cfg.Endpoint)
	}
}

func TestLoadRequiresEndpoint(t *testing.T) {
	path := writeConfig(t, `
dataset: production
`)
	if _, err := Load(path, ""); err == nil {
		t.Fatal("expected missing endpoint to be an error")
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), ""); err == nil {
		t.Fatal("expected missing explicit config file to be an error")
	}
}
