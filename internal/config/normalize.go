package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeTranslation()
	c.normalizePipeline()
	c.normalizeLogging()
	c.normalizeServer()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, defaultLogSubdir)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LedgerPath) == "" {
		c.Paths.LedgerPath = filepath.Join(c.Paths.StateDir, defaultLedgerFile)
	}
	if c.Paths.LedgerPath, err = expandPath(strings.TrimSpace(c.Paths.LedgerPath)); err != nil {
		return fmt.Errorf("paths.ledger_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.YTDLP = defaultString(c.Tools.YTDLP, defaultYTDLPBinary)
	c.Tools.Whisper = defaultString(c.Tools.Whisper, defaultWhisperBinary)
	c.Tools.FFmpeg = defaultString(c.Tools.FFmpeg, defaultFFmpegBinary)
	c.Tools.FFprobe = defaultString(c.Tools.FFprobe, defaultFFprobeBinary)
	if c.Tools.MetadataTimeoutSeconds <= 0 {
		c.Tools.MetadataTimeoutSeconds = defaultMetadataTimeoutSeconds
	}
}

func (c *Config) normalizeTranslation() {
	c.Translation.APIKey = strings.TrimSpace(c.Translation.APIKey)
	if c.Translation.APIKey == "" {
		if value, ok := os.LookupEnv("DEEPSEEK_API_KEY"); ok {
			c.Translation.APIKey = strings.TrimSpace(value)
		}
	}
	c.Translation.BaseURL = strings.TrimRight(defaultString(c.Translation.BaseURL, defaultDeepSeekBaseURL), "/")
	c.Translation.Model = defaultString(c.Translation.Model, defaultDeepSeekModel)
	c.Translation.TargetLanguage = defaultString(c.Translation.TargetLanguage, defaultTargetLanguage)
	c.Translation.SubtitleSuffix = strings.TrimPrefix(defaultString(c.Translation.SubtitleSuffix, defaultSubtitleSuffix), "_")
	if c.Translation.TimeoutSeconds <= 0 {
		c.Translation.TimeoutSeconds = defaultTranslationTimeout
	}
	if c.Translation.RetryAttempts <= 0 {
		c.Translation.RetryAttempts = defaultRetryAttempts
	}
}

func (c *Config) normalizePipeline() {
	c.Pipeline.DefaultKind = strings.ToLower(defaultString(c.Pipeline.DefaultKind, defaultKind))
	c.Pipeline.DefaultQuality = defaultString(c.Pipeline.DefaultQuality, defaultQuality)
	if strings.EqualFold(c.Pipeline.DefaultQuality, "best") {
		c.Pipeline.DefaultQuality = "Best"
	}
	c.Pipeline.DefaultLanguage = strings.ToLower(defaultString(c.Pipeline.DefaultLanguage, defaultLanguage))
	c.Pipeline.DefaultModel = strings.ToLower(defaultString(c.Pipeline.DefaultModel, defaultModel))
	c.Pipeline.Preset = strings.ToLower(defaultString(c.Pipeline.Preset, defaultPreset))
	if c.Pipeline.CRF == 0 {
		c.Pipeline.CRF = defaultCRF
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(defaultString(c.Logging.Format, defaultLogFormat))
	c.Logging.Level = strings.ToLower(defaultString(c.Logging.Level, defaultLogLevel))
}

func (c *Config) normalizeServer() {
	c.Server.Bind = defaultString(c.Server.Bind, defaultServerBind)
	c.Server.Token = strings.TrimSpace(c.Server.Token)
	if c.Server.Token == "" {
		if value, ok := os.LookupEnv("VIDSUB_API_TOKEN"); ok {
			c.Server.Token = strings.TrimSpace(value)
		}
	}
	if c.Server.EventBuffer <= 0 {
		c.Server.EventBuffer = defaultEventBuffer
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func defaultString(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
