package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "calls.yaml")
	cfg := "log:\n  level: error\ncalls:\n  - func: add\n    args: [\"2\", \"0.5\"]\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		config  string
		fn      string
		args    []string
		list    bool
		wantErr string
	}{
		{name: "list", list: true},
		{name: "flag call", fn: "add", args: []string{"1", "2.5"}},
		{name: "config calls", config: cfgPath},
		{name: "config and flag call", config: cfgPath, fn: "greet", args: []string{"bridge"}},
		{name: "failing call", fn: "fail", wantErr: "call fail"},
		{name: "unknown func", fn: "missing", wantErr: "call missing"},
		{name: "missing config", config: filepath.Join(dir, "none.yaml"), wantErr: "none.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.config, tt.fn, tt.args, tt.list, false, false)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("run: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}