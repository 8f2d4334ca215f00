package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and database locations.
type Paths struct {
	ResultsDir string `toml:"results_dir"`
	LogDir     string `toml:"log_dir"`
	Database   string `toml:"database"`
}

// Analysis contains per-video analysis settings.
type Analysis struct {
	// LabelsDir is the label directory name inside each result directory.
	LabelsDir string `toml:"labels_dir"`
	// LabelExt is the label file extension without the leading dot.
	LabelExt string `toml:"label_ext"`
	// VideoName is the video file probed for frame dimensions.
	VideoName string `toml:"video_name"`
	// SubjectTrackID is the track id carried by the salesman. Only -1 is accepted.
	SubjectTrackID    int64   `toml:"subject_track_id"`
	SlowdownThreshold float64 `toml:"slowdown_threshold"`
	Workers           int     `toml:"workers"`
	// VideoStride is the frame stride the tracker ran with. Recorded, not applied.
	VideoStride int `toml:"video_stride"`
}

// Consolidation controls track consolidation before metrics are computed.
type Consolidation struct {
	Enabled bool `toml:"enabled"`
	InPlace bool `toml:"in_place"`
	Backup  bool `toml:"backup"`
}

// FFprobe configures the media inspection binary.
type FFprobe struct {
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for salescope.
//
// Configuration sections:
//   - Paths: results tree, log directory and results database
//   - Analysis: label layout and metric parameters
//   - Consolidation: subject track repair
//   - FFprobe: media inspection binary and timeout
//   - Logging: log format and level
//   - Salesmen: salesman on duty per shop and date
type Config struct {
	Paths         Paths         `toml:"paths"`
	Analysis      Analysis      `toml:"analysis"`
	Consolidation Consolidation `toml:"consolidation"`
	FFprobe       FFprobe       `toml:"ffprobe"`
	Logging       Logging       `toml:"logging"`
	Salesmen      Roster        `toml:"salesmen"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log directory and the database parent directory.
// The results tree is produced by the tracker and is never created here.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir}
	if strings.TrimSpace(c.Paths.Database) != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.Database))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFprobeBinary returns the ffprobe executable used to read video dimensions.
func (c *Config) FFprobeBinary() string {
	if binary := strings.TrimSpace(c.FFprobe.Binary); binary != "" {
		return binary
	}
	return defaultFFprobeBinary
}

// FFprobeTimeout bounds a single ffprobe invocation.
func (c *Config) FFprobeTimeout() time.Duration {
	if c.FFprobe.TimeoutSeconds <= 0 {
		return time.Duration(defaultFFprobeTimeoutSeconds) * time.Second
	}
	return time.Duration(c.FFprobe.TimeoutSeconds) * time.Second
}

// ResultDir returns the result directory for a video recorded in shop.
func (c *Config) ResultDir(shop, video string) string {
	return filepath.Join(c.Paths.ResultsDir, shop, video)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
