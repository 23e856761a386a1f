package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_NoPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WorkerPoolSize != 8 {
		t.Fatalf("expected default worker pool size 8, got %d", cfg.WorkerPoolSize)
	}
	if cfg.ModuleDir == "" || cfg.ResultsRoot == "" {
		t.Fatalf("expected non-empty defaults, got %+v", cfg)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.yaml")
	contents := `
broker_address: "broker.internal:9443"
module_dir: /opt/nodeagent/modules
results_root: /var/lib/nodeagent/results
worker_pool_size: 4
poll_mode: true
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BrokerAddress != "broker.internal:9443" {
		t.Fatalf("unexpected broker address: %q", cfg.BrokerAddress)
	}
	if cfg.ModuleDir != "/opt/nodeagent/modules" {
		t.Fatalf("unexpected module dir: %q", cfg.ModuleDir)
	}
	if cfg.WorkerPoolSize != 4 {
		t.Fatalf("expected worker pool size 4, got %d", cfg.WorkerPoolSize)
	}
	if !cfg.PollMode {
		t.Fatal("expected poll_mode to be true")
	}
}

func TestLoad_ZeroWorkerPoolFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.yaml")
	if err := os.WriteFile(path, []byte("worker_pool_size: 0\n"), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WorkerPoolSize != 8 {
		t.Fatalf("expected fallback to default 8, got %d", cfg.WorkerPoolSize)
	}
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected an error reading a missing config file")
	}
}
