package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseConfig(t *testing.T) {
	yamlDoc := `
log:
  level: info
  development: true
calls:
  - func: add
    args: ["2", "3.5"]
  - func: version
`
	tomlDoc := `
[log]
level = "info"
development = true

[[calls]]
func = "add"
args = ["2", "3.5"]

[[calls]]
func = "version"
`
	tests := []struct {
		name string
		ext  string
		data string
	}{
		{"yaml", ".yaml", yamlDoc},
		{"yml", ".YML", yamlDoc},
		{"toml", ".toml", tomlDoc},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(tt.data), tt.ext)
			if err != nil {
				t.Fatalf("ParseConfig: %v", err)
			}
			if cfg.Log.Level != "info" || !cfg.Log.Development {
				t.Fatalf("log = %+v", cfg.Log)
			}
			if len(cfg.Calls) != 2 {
				t.Fatalf("calls = %d, want 2", len(cfg.Calls))
			}
			if cfg.Calls[0].Func != "add" || len(cfg.Calls[0].Args) != 2 || cfg.Calls[0].Args[1] != "3.5" {
				t.Fatalf("calls[0] = %+v", cfg.Calls[0])
			}
		})
	}
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		data string
	}{
		{"unknown extension", ".json", "{}"},
		{"bad yaml", ".yaml", "calls: [:"},
		{"bad toml", ".toml", "calls = ["},
		{"missing func", ".yaml", "calls:\n  - args: [\"1\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseConfig([]byte(tt.data), tt.ext); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.toml")
	if err := os.WriteFile(path, []byte("[log]\nlevel = \"debug\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("level = %q", cfg.Log.Level)
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("LoadConfig of a missing file succeeded")
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := (LogConfig{Level: "loud"}).NewLogger(false); err == nil {
		t.Fatal("invalid level accepted")
	}
	log, err := (LogConfig{Level: "error"}).NewLogger(true)
	if err != nil {
		t.Fatal(err)
	}
	if !log.Core().Enabled(-1) {
		t.Fatal("verbose logger does not enable debug")
	}
}
