// Package config provides configuration types and defaults for voidhunter.
package config

import (
	"time"

	"github.com/npratt/voidhunter/internal/match"
)

// Config holds all configuration for voidhunter.
type Config struct {
	Scan        ScanConfig        `yaml:"scan" mapstructure:"scan"`
	Thresholds  match.Thresholds  `yaml:"thresholds" mapstructure:"thresholds"`
	Capture     CaptureConfig     `yaml:"capture" mapstructure:"capture"`
	OCR         OCRConfig         `yaml:"ocr" mapstructure:"ocr"`
	Paths       PathsConfig       `yaml:"paths" mapstructure:"paths"`
	LogRotation LogRotationConfig `yaml:"log_rotation" mapstructure:"log_rotation"`
	Metrics     MetricsConfig     `yaml:"metrics" mapstructure:"metrics"`
}

// ScanConfig holds scan loop settings.
type ScanConfig struct {
	MinInterval time.Duration `yaml:"min_interval" mapstructure:"min_interval"` // Minimum time between tick starts
	LogTicks    bool          `yaml:"log_ticks" mapstructure:"log_ticks"`       // Write per-tick snapshots to the event log
	ExitOnOver  bool          `yaml:"exit_on_over" mapstructure:"exit_on_over"` // Stop the scanner once the match is over
}

// CaptureConfig holds frame capture settings.
type CaptureConfig struct {
	Window        string        `yaml:"window" mapstructure:"window"`
	Width         int           `yaml:"width" mapstructure:"width"`
	Height        int           `yaml:"height" mapstructure:"height"`
	Interval      time.Duration `yaml:"interval" mapstructure:"interval"`
	RetryInterval time.Duration `yaml:"retry_interval" mapstructure:"retry_interval"`
}

// OCRConfig holds text recognition settings.
type OCRConfig struct {
	Binary         string        `yaml:"binary" mapstructure:"binary"`
	Language       string        `yaml:"language" mapstructure:"language"`
	PSM            int           `yaml:"psm" mapstructure:"psm"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	ClockThreshold uint8         `yaml:"clock_threshold" mapstructure:"clock_threshold"` // Luminance cut for the segment clock
}

// PathsConfig holds file paths for the report, logs, and socket.
type PathsConfig struct {
	Report string `yaml:"report" mapstructure:"report"`
	Log    string `yaml:"log" mapstructure:"log"`
	Socket string `yaml:"socket" mapstructure:"socket"`
}

// LogRotationConfig holds settings for log file rotation.
// Used for the event log and the TUI debug log.
type LogRotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// MetricsConfig holds the Prometheus listener settings.
type MetricsConfig struct {
	Listen string `yaml:"listen" mapstructure:"listen"` // host:port, empty disables the listener
}

// Default returns a Config with the tuned defaults.
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			MinInterval: 250 * time.Millisecond,
		},
		Thresholds: match.DefaultThresholds(),
		Capture: CaptureConfig{
			Window:        "ZenlessZoneZero",
			Width:         1920,
			Height:        1080,
			Interval:      100 * time.Millisecond,
			RetryInterval: 2 * time.Second,
		},
		OCR: OCRConfig{
			Binary:         "tesseract",
			Language:       "eng",
			PSM:            7,
			Timeout:        5 * time.Second,
			ClockThreshold: 128,
		},
		Paths: PathsConfig{
			Report: ".voidhunter/report.json",
			Log:    ".voidhunter/events.log",
			Socket: ".voidhunter/voidhunter.sock",
		},
		LogRotation: LogRotationConfig{
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}
