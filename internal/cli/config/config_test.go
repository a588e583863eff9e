// Package config defines the CLI configuration structure.
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DefaultOutput != "table" {
		t.Errorf("DefaultOutput = %q, want %q", cfg.DefaultOutput, "table")
	}
	if cfg.Connections == nil {
		t.Error("Connections should not be nil")
	}
	if len(cfg.Connections) != 0 {
		t.Errorf("Connections should be empty, got %d", len(cfg.Connections))
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	if path == "" {
		t.Error("DefaultConfigPath should not be empty")
	}
	if !filepath.IsAbs(path) {
		t.Error("Path should be absolute")
	}

	expected := filepath.Join(".aredis", "cli.yaml")
	if !containsSuffix(path, expected) {
		t.Errorf("Path = %q, should end with %q", path, expected)
	}
}

func containsSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

func TestLoad_NonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("Load should not error for nonexistent file: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load should return default config")
	}
	if cfg.DefaultOutput != "table" {
		t.Error("Should return default config for nonexistent file")
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cli.yaml")
	t.Setenv("HOME", dir)

	cfg := Default()
	cfg.CurrentConnection = "staging"
	cfg.Connections["staging"] = ConnectionConfig{
		Host:     "staging.example.com",
		Port:     6380,
		TLS:      true,
		Password: "hunter2",
	}

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.CurrentConnection != "staging" {
		t.Errorf("CurrentConnection = %q, want %q", loaded.CurrentConnection, "staging")
	}
	conn, ok := loaded.Connections["staging"]
	if !ok {
		t.Fatal("expected staging connection to round-trip")
	}
	if conn.Host != "staging.example.com" || conn.Port != 6380 || !conn.TLS {
		t.Errorf("connection fields did not round-trip: %+v", conn)
	}
	if conn.Password != "hunter2" {
		t.Errorf("Password = %q, want decrypted %q", conn.Password, "hunter2")
	}
}

func TestSave_CreateDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "subdir", "cli.yaml")

	cfg := Default()
	if err := Save(cfg, path); err != nil {
		t.Errorf("Save failed: %v", err)
	}

	parentDir := filepath.Dir(path)
	if _, err := os.Stat(parentDir); os.IsNotExist(err) {
		t.Error("Directory should have been created")
	}
}

func TestMerge(t *testing.T) {
	cfg := Default()

	env := map[string]string{
		"AREDIS_OUTPUT": "yaml",
	}
	flags := map[string]string{
		"output": "json",
	}

	result := Merge(cfg, env, flags)
	if result == nil {
		t.Fatal("Merge should return config")
	}
	if result.DefaultOutput != "json" {
		t.Errorf("flags should win over env, DefaultOutput = %q", result.DefaultOutput)
	}
}

func TestCLIConfig_Struct(t *testing.T) {
	cfg := CLIConfig{
		DefaultOutput:     "json",
		CurrentConnection: "prod",
		Connections: map[string]ConnectionConfig{
			"prod": {Host: "prod.example.com", Port: 6379, TLS: true},
			"dev":  {Host: "localhost", Port: 6379, TLS: false},
		},
	}

	if len(cfg.Connections) != 2 {
		t.Error("Connections count incorrect")
	}
	if !cfg.Connections["prod"].TLS {
		t.Error("prod TLS should be true")
	}
	if cfg.Connections["dev"].TLS {
		t.Error("dev TLS should be false")
	}
}
