package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

var (
	validKinds     = []string{"video", "audio"}
	validQualities = []string{"Best", "1080p", "720p", "480p"}
	validModels    = []string{"tiny", "tiny.en", "base", "base.en", "small", "small.en", "medium", "medium.en", "large", "large-v1", "large-v2", "large-v3", "turbo"}
	validPresets   = []string{"ultrafast", "superfast", "veryfast", "faster", "fast", "medium", "slow", "slower", "veryslow"}
)

// Validate ensures the configuration is usable. The translation API key is not
// required here; video runs check for it before any stage starts.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	parsed, err := url.Parse(c.Translation.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("translation.base_url %q is not an absolute URL", c.Translation.BaseURL)
	}
	if c.Translation.Temperature < 0 || c.Translation.Temperature > 2 {
		return errors.New("translation.temperature must be between 0 and 2")
	}
	if strings.ContainsAny(c.Translation.SubtitleSuffix, `/\`) {
		return fmt.Errorf("translation.subtitle_suffix %q must not contain path separators", c.Translation.SubtitleSuffix)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if !slices.Contains(validKinds, c.Pipeline.DefaultKind) {
		return fmt.Errorf("pipeline.default_kind must be one of %s", strings.Join(validKinds, ", "))
	}
	if !slices.Contains(validQualities, c.Pipeline.DefaultQuality) {
		return fmt.Errorf("pipeline.default_quality must be one of %s", strings.Join(validQualities, ", "))
	}
	if _, err := language.Parse(c.Pipeline.DefaultLanguage); err != nil {
		return fmt.Errorf("pipeline.default_language %q: %w", c.Pipeline.DefaultLanguage, err)
	}
	if !slices.Contains(validModels, c.Pipeline.DefaultModel) {
		return fmt.Errorf("pipeline.default_model %q is not a known whisper model", c.Pipeline.DefaultModel)
	}
	if c.Pipeline.CRF < 0 || c.Pipeline.CRF > 51 {
		return errors.New("pipeline.crf must be between 0 and 51")
	}
	if !slices.Contains(validPresets, c.Pipeline.Preset) {
		return fmt.Errorf("pipeline.preset %q is not a libx264 preset", c.Pipeline.Preset)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateServer() error {
	if !strings.Contains(c.Server.Bind, ":") {
		return fmt.Errorf("server.bind %q must be host:port", c.Server.Bind)
	}
	return nil
}
