package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"mixwheel/internal/config"
	"mixwheel/internal/contentcache"
	"mixwheel/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Writer: logWriter(cfg),
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// openCache builds the configured content cache. A disabled cache
// returns the no-op store; callers must Close the returned DiskCache
// when one is handed out.
func (c *commandContext) openCache() (contentcache.Store, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Cache.Enabled || strings.TrimSpace(cfg.Cache.Dir) == "" {
		return contentcache.Nop{}, func() {}, nil
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	cache, err := contentcache.NewDiskCache(cfg.Cache.Dir, time.Duration(cfg.Cache.ExpiryHours)*time.Hour, logger)
	if err != nil {
		return nil, nil, err
	}
	return cache, func() { _ = cache.Close() }, nil
}

// logWriter tees log output into log_dir/mixwheel.log next to stderr.
// When the log file cannot be opened, stderr alone is used.
func logWriter(cfg *config.Config) io.Writer {
	dir := strings.TrimSpace(cfg.Paths.LogDir)
	if dir == "" {
		return os.Stderr
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return os.Stderr
	}
	file, err := os.OpenFile(filepath.Join(dir, "mixwheel.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return os.Stderr
	}
	return io.MultiWriter(os.Stderr, file)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
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
