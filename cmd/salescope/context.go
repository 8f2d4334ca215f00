package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"salescope/internal/config"
	"salescope/internal/logging"
	"salescope/internal/store"
)

type commandContext struct {
	configFlag   string
	logLevelFlag string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func (c *commandContext) ensureConfig() error {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(c.configFlag)
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		if level := strings.TrimSpace(c.logLevelFlag); level != "" {
			cfg.Logging.Level = strings.ToLower(level)
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = fmt.Errorf("ensure directories: %w", err)
			return
		}
		c.config = cfg
		c.configPath = path
		c.configExists = exists
	})
	return c.configErr
}

func (c *commandContext) configValue() *config.Config {
	return c.config
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	if err := c.ensureConfig(); err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		c.logger, c.loggerErr = logging.NewFromConfig(c.config)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) openStore() (*store.Store, error) {
	if err := c.ensureConfig(); err != nil {
		return nil, err
	}
	st, err := store.Open(c.config)
	if err != nil {
		return nil, fmt.Errorf("open results database: %w", err)
	}
	return st, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for current := cmd; current != nil; current = current.Parent() {
		if current.Annotations != nil && current.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
