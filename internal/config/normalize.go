package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAnalysis()
	if !c.Consolidation.Enabled {
		c.Consolidation.InPlace = false
	}
	c.normalizeFFprobe()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ResultsDir) == "" {
		c.Paths.ResultsDir = defaultResultsDir
	}
	if c.Paths.ResultsDir, err = expandPath(c.Paths.ResultsDir); err != nil {
		return fmt.Errorf("paths.results_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.Database) == "" {
		c.Paths.Database = defaultDatabase
	}
	if c.Paths.Database, err = expandPath(c.Paths.Database); err != nil {
		return fmt.Errorf("paths.database: %w", err)
	}
	return nil
}

func (c *Config) normalizeAnalysis() {
	c.Analysis.LabelsDir = strings.TrimSpace(c.Analysis.LabelsDir)
	if c.Analysis.LabelsDir == "" {
		c.Analysis.LabelsDir = defaultLabelsDir
	}
	c.Analysis.LabelExt = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Analysis.LabelExt)), ".")
	if c.Analysis.LabelExt == "" {
		c.Analysis.LabelExt = defaultLabelExt
	}
	c.Analysis.VideoName = strings.TrimSpace(c.Analysis.VideoName)
	if c.Analysis.VideoName == "" {
		c.Analysis.VideoName = defaultVideoName
	}
}

func (c *Config) normalizeFFprobe() {
	if value, ok := os.LookupEnv(ffprobeEnvVar); ok && strings.TrimSpace(value) != "" {
		c.FFprobe.Binary = strings.TrimSpace(value)
	}
	c.FFprobe.Binary = strings.TrimSpace(c.FFprobe.Binary)
	if c.FFprobe.Binary == "" {
		c.FFprobe.Binary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
