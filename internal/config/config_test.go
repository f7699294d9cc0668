package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/litescript/ls-exoplanets/internal/astro"
	"github.com/litescript/ls-exoplanets/internal/projector"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())

	cfg, err := NewLoader().Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.View.Unit != astro.Parsec {
		t.Errorf("unit = %v", cfg.View.Unit)
	}
	if cfg.View.ColorMode != projector.ColorByTemperature {
		t.Errorf("color mode = %v", cfg.View.ColorMode)
	}
	if cfg.Camera.BaseDistance != 1500 || cfg.Camera.MaxRange != 3000 || cfg.Camera.ZoomFactor != 0.05 {
		t.Errorf("camera = %+v", cfg.Camera)
	}
	if cfg.Server.PushInterval != 10*time.Second {
		t.Errorf("push interval = %v", cfg.Server.PushInterval)
	}
	if cfg.File != "" {
		t.Errorf("File = %q, want none", cfg.File)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.yaml", `
view:
  unit: ly
  color_mode: class
  stellar_teff_filter: true
camera:
  base_distance: 1.5
server:
  addr: ":9000"
  push_interval: 2s
`)
	t.Setenv("LSEXO_SERVER_ADDR", ":9100")

	cfg, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.View.Unit != astro.LightYear || cfg.View.ColorMode != projector.ColorByClass || !cfg.View.StellarTeffFilter {
		t.Errorf("view = %+v", cfg.View)
	}
	if cfg.Camera.BaseDistance != 1.5 || cfg.Camera.MaxRange != 3000 {
		t.Errorf("camera = %+v", cfg.Camera)
	}
	if cfg.Server.Addr != ":9100" {
		t.Errorf("env should override file: addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.PushInterval != 2*time.Second {
		t.Errorf("push interval = %v", cfg.Server.PushInterval)
	}
	if cfg.File != path {
		t.Errorf("File = %q, want %q", cfg.File, path)
	}

	policy := cfg.View.Policy()
	if !policy.StellarTempFilter || policy.ColorMode != projector.ColorByClass {
		t.Errorf("policy = %+v", policy)
	}
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{"bad unit", "view:\n  unit: furlong\n"},
		{"bad color", "view:\n  color_mode: rainbow\n"},
		{"zero zoom", "camera:\n  zoom_factor: 0\n"},
		{"negative rate", "server:\n  rate_limit: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "c.yaml", tt.body)
			if _, err := NewLoader().Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := NewLoader().Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("explicit missing config file should fail")
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", "LSEXO_VIEW_UNIT=au\n")
	t.Setenv("LSEXO_VIEW_UNIT", "")
	os.Unsetenv("LSEXO_VIEW_UNIT")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	cfg, err := NewLoader().Load(writeFile(t, dir, "empty.yaml", "{}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.View.Unit != astro.AstronomicalUnit {
		t.Errorf("unit = %v, want AU from .env", cfg.View.Unit)
	}

	if err := LoadEnvFile(filepath.Join(dir, "nope.env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}
}
