package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/npratt/voidhunter/internal/config"
)

// Info tells CLI commands where a running watcher listens, regardless of
// which directory they are run from.
type Info struct {
	SocketPath string    `json:"socket_path"`
	ReportPath string    `json:"report_path"`
	LogPath    string    `json:"log_path"`
	RunID      string    `json:"run_id"`
	StartTime  time.Time `json:"start_time"`
	PID        int       `json:"pid"`
}

// infoFile is the name of the file containing daemon connection info.
const infoFile = "daemon.json"

// projectMarkers are directories that indicate project root.
var projectMarkers = []string{".git", config.ProjectConfigDir}

// ResolvePaths converts relative paths to absolute paths using the given base directory.
// If basePath is empty, the current working directory is used.
func ResolvePaths(paths config.PathsConfig, basePath string) (config.PathsConfig, error) {
	if basePath == "" {
		var err error
		basePath, err = os.Getwd()
		if err != nil {
			return paths, fmt.Errorf("get working directory: %w", err)
		}
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(basePath, p)
	}

	return config.PathsConfig{
		Report: resolve(paths.Report),
		Log:    resolve(paths.Log),
		Socket: resolve(paths.Socket),
	}, nil
}

// FindProjectRoot walks up from startDir looking for a project marker.
// Returns the directory containing the marker, or startDir if none is found.
func FindProjectRoot(startDir string) string {
	if startDir == "" {
		var err error
		startDir, err = os.Getwd()
		if err != nil {
			return "."
		}
	}

	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return startDir
	}

	for dir := absDir; ; {
		for _, marker := range projectMarkers {
			if info, err := os.Stat(filepath.Join(dir, marker)); err == nil && info.IsDir() {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return absDir
		}
		dir = parent
	}
}

// InfoPath returns the path to daemon.json under the project root.
func InfoPath(projectRoot string) string {
	return filepath.Join(projectRoot, config.ProjectConfigDir, infoFile)
}

// FindInfo reads daemon.json from the project containing startDir.
func FindInfo(startDir string) (*Info, error) {
	path := InfoPath(FindProjectRoot(startDir))
	info, err := ReadInfo(path)
	if err != nil {
		return nil, fmt.Errorf("daemon info not found (checked %s): %w", path, err)
	}
	return info, nil
}

// WriteInfo writes daemon connection info to path.
func WriteInfo(path string, info *Info) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal daemon info: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write daemon info: %w", err)
	}
	return nil
}

// ReadInfo reads daemon connection info from path.
func ReadInfo(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read daemon info: %w", err)
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("unmarshal daemon info: %w", err)
	}
	return &info, nil
}

// RemoveInfo removes the daemon.json file.
func RemoveInfo(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove daemon info: %w", err)
	}
	return nil
}
