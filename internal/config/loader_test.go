package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// chdir switches to dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
}

func writeProjectConfig(t *testing.T, content string) {
	t.Helper()
	if err := os.MkdirAll(ProjectConfigDir, 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	path := filepath.Join(ProjectConfigDir, ProjectConfigFile)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadConfig(viper.New())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Scan.MinInterval != 250*time.Millisecond {
		t.Errorf("Scan.MinInterval = %v, want %v", cfg.Scan.MinInterval, 250*time.Millisecond)
	}
	if cfg.Thresholds.SecondHalfClear != 18 {
		t.Errorf("Thresholds.SecondHalfClear = %d, want 18", cfg.Thresholds.SecondHalfClear)
	}
	if cfg.Capture.RetryInterval != 2*time.Second {
		t.Errorf("Capture.RetryInterval = %v, want %v", cfg.Capture.RetryInterval, 2*time.Second)
	}
}

func TestLoadConfig_ProjectFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	writeProjectConfig(t, `
scan:
  min_interval: 500ms
  log_ticks: true
thresholds:
  first_half_clear: 3
  restart: 4
capture:
  window: "Game"
ocr:
  clock_threshold: 96
metrics:
  listen: "127.0.0.1:9464"
`)

	cfg, err := LoadConfig(viper.New())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Scan.MinInterval != 500*time.Millisecond {
		t.Errorf("Scan.MinInterval = %v, want %v", cfg.Scan.MinInterval, 500*time.Millisecond)
	}
	if !cfg.Scan.LogTicks {
		t.Error("Scan.LogTicks = false, want true")
	}
	if cfg.Thresholds.FirstHalfClear != 3 {
		t.Errorf("Thresholds.FirstHalfClear = %d, want 3", cfg.Thresholds.FirstHalfClear)
	}
	if cfg.Thresholds.Restart != 4 {
		t.Errorf("Thresholds.Restart = %d, want 4", cfg.Thresholds.Restart)
	}
	if cfg.Capture.Window != "Game" {
		t.Errorf("Capture.Window = %q, want %q", cfg.Capture.Window, "Game")
	}
	if cfg.OCR.ClockThreshold != 96 {
		t.Errorf("OCR.ClockThreshold = %d, want 96", cfg.OCR.ClockThreshold)
	}
	if cfg.Metrics.Listen != "127.0.0.1:9464" {
		t.Errorf("Metrics.Listen = %q, want %q", cfg.Metrics.Listen, "127.0.0.1:9464")
	}

	// Untouched values keep their defaults.
	if cfg.Thresholds.SecondHalfClear != 18 {
		t.Errorf("Thresholds.SecondHalfClear = %d, want 18", cfg.Thresholds.SecondHalfClear)
	}
	if cfg.Capture.Width != 1920 {
		t.Errorf("Capture.Width = %d, want 1920", cfg.Capture.Width)
	}
}

func TestLoadConfig_GlobalThenProject(t *testing.T) {
	chdir(t, t.TempDir())
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	globalDir := filepath.Join(xdg, GlobalConfigDir)
	if err := os.MkdirAll(globalDir, 0755); err != nil {
		t.Fatal(err)
	}
	global := "capture:\n  window: global\n  width: 2560\n"
	if err := os.WriteFile(filepath.Join(globalDir, GlobalConfigFile), []byte(global), 0644); err != nil {
		t.Fatal(err)
	}
	writeProjectConfig(t, "capture:\n  window: project\n")

	cfg, err := LoadConfig(viper.New())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Capture.Window != "project" {
		t.Errorf("Capture.Window = %q, want %q", cfg.Capture.Window, "project")
	}
	if cfg.Capture.Width != 2560 {
		t.Errorf("Capture.Width = %d, want 2560", cfg.Capture.Width)
	}
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("paths:\n  report: out/r.json\n"), 0644); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	v.Set("config", path)
	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Paths.Report != "out/r.json" {
		t.Errorf("Paths.Report = %q, want %q", cfg.Paths.Report, "out/r.json")
	}
}

func TestLoadConfig_ExplicitFileMissing(t *testing.T) {
	chdir(t, t.TempDir())

	v := viper.New()
	v.Set("config", "/nonexistent/voidhunter.yaml")
	if _, err := LoadConfig(v); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	writeProjectConfig(t, "capture:\n  window: from-file\n")

	v := viper.New()
	v.SetEnvPrefix("VOIDHUNTER")
	v.AutomaticEnv()
	// Env binding happens in the CLI; simulate it directly.
	v.Set("capture.window", "from-env")

	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Capture.Window != "from-env" {
		t.Errorf("Capture.Window = %q, want %q", cfg.Capture.Window, "from-env")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	writeProjectConfig(t, "thresholds:\n  restart: 0\n")

	_, err := LoadConfig(viper.New())
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("LoadConfig error = %v, want ErrInvalid", err)
	}
}

func TestProjectConfigPath(t *testing.T) {
	chdir(t, t.TempDir())

	if got := projectConfigPath(); got != "" {
		t.Errorf("projectConfigPath() = %q, want empty", got)
	}
	writeProjectConfig(t, "")
	if got := projectConfigPath(); got == "" {
		t.Error("projectConfigPath() = empty, want path")
	}
}
