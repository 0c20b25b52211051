package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"fuzzy-steer-core/scaling"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigSample(t *testing.T) {
	cfg, err := LoadConfig("../config/runner.toml")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := DefaultRunnerConfig()
	want.MetricsAddress = "127.0.0.1:8080"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigFillsDefaults(t *testing.T) {
	path := writeTemp(t, "runner.toml", `
interface = "can1"
cycle_ms = 10

[[inputs]]
name = "distance"
signal = "line_distance_cm"
scale = { num = 1, den = 4 }
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := DefaultRunnerConfig()
	want.Interface = "can1"
	want.CycleMS = 10
	want.ValidSignal = ""
	want.Inputs = []InputConfig{{Name: "distance", Signal: "line_distance_cm", Scale: scaling.Input{Num: 1, Den: 4}}}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want string
	}{
		{"unknown key", "interface = \"vcan0\"\nbogus = 1\n", "decode config"},
		{"negative cycle", "cycle_ms = -5\n", "must not be negative"},
		{"input without signal", "[[inputs]]\nname = \"distance\"\n", "needs name and signal"},
		{"bad syntax", "interface = \n", "decode config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeTemp(t, "runner.toml", tt.toml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadConfig error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
