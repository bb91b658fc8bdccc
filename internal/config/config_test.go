package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_EnvDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8081" {
		t.Fatalf("default addr = %q", cfg.HTTPAddr)
	}
	if cfg.Workers <= 0 {
		t.Fatalf("workers must be positive, got %d", cfg.Workers)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("WORKERS", "3")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("brokers = %v", cfg.KafkaBrokers)
	}
	if cfg.Workers != 3 {
		t.Fatalf("workers = %d", cfg.Workers)
	}
}

func TestLoad_YAMLFileOverridesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "http_addr: \":9999\"\nservice_name: tracking-api-dev\nworkers: 2\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("HTTP_ADDR", ":8081")
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9999" || cfg.ServiceName != "tracking-api-dev" || cfg.Workers != 2 {
		t.Fatalf("yaml override not applied: %+v", cfg)
	}
}

func TestLoad_BadYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\n  - {"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	if _, err := Load(); err == nil {
		t.Fatalf("malformed yaml should fail")
	}
}
