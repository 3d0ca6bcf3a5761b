package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"vidsub/internal/config"
	"vidsub/internal/ledger"
	"vidsub/internal/logging"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
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
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	console := c.verbose != nil && *c.verbose
	logger, err := logging.NewFromConfig(cfg, console)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	return logger, nil
}

func (c *commandContext) openLedger() (*ledger.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := ledger.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

// errLocked is returned when another run or server holds the state lock.
var errLocked = errors.New("another vidsub run or server is active")

// acquireRunLock takes the single-run lock for cfg's state directory.
func acquireRunLock(cfg *config.Config) (*flock.Flock, error) {
	path := cfg.LockPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", errLocked, path)
	}
	return lock, nil
}

func releaseRunLock(lock *flock.Flock) {
	if lock == nil {
		return
	}
	_ = lock.Unlock()
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
