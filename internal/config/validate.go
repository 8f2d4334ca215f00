package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateFFprobe(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.Salesmen.validate()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ResultsDir) == "" {
		return errors.New("paths.results_dir must be set")
	}
	if strings.TrimSpace(c.Paths.Database) == "" {
		return errors.New("paths.database must be set")
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	a := c.Analysis
	if a.SubjectTrackID != SubjectTrackID {
		return fmt.Errorf("analysis.subject_track_id must be %d, got %d", SubjectTrackID, a.SubjectTrackID)
	}
	if a.SlowdownThreshold <= 0 || a.SlowdownThreshold >= 1 {
		return errors.New("analysis.slowdown_threshold must be between 0 and 1 (exclusive)")
	}
	if err := ensurePositiveMap(map[string]int{
		"analysis.workers":      a.Workers,
		"analysis.video_stride": a.VideoStride,
	}); err != nil {
		return err
	}
	if strings.ContainsAny(a.LabelExt, `/\`) {
		return fmt.Errorf("analysis.label_ext %q must not contain path separators", a.LabelExt)
	}
	if filepath.Base(a.LabelsDir) != a.LabelsDir {
		return fmt.Errorf("analysis.labels_dir %q must be a single directory name", a.LabelsDir)
	}
	if filepath.Base(a.VideoName) != a.VideoName {
		return fmt.Errorf("analysis.video_name %q must be a single file name", a.VideoName)
	}
	return nil
}

func (c *Config) validateFFprobe() error {
	if c.FFprobe.TimeoutSeconds <= 0 {
		return errors.New("ffprobe.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
