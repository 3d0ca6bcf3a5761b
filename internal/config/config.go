package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir  string `toml:"output_dir"`
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
	LedgerPath string `toml:"ledger_path"`
}

// Tools names the external executables driven by the pipeline.
type Tools struct {
	YTDLP                  string `toml:"yt_dlp"`
	Whisper                string `toml:"whisper"`
	FFmpeg                 string `toml:"ffmpeg"`
	FFprobe                string `toml:"ffprobe"`
	MetadataTimeoutSeconds int    `toml:"metadata_timeout_seconds"`
}

// Translation contains the DeepSeek connection settings.
type Translation struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	TargetLanguage string  `toml:"target_language"`
	SubtitleSuffix string  `toml:"subtitle_suffix"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RetryAttempts  int     `toml:"retry_attempts"`
}

// Pipeline holds run defaults applied when the caller omits a value.
type Pipeline struct {
	DefaultKind       string `toml:"default_kind"`
	DefaultQuality    string `toml:"default_quality"`
	DefaultLanguage   string `toml:"default_language"`
	DefaultModel      string `toml:"default_model"`
	KeepIntermediates bool   `toml:"keep_intermediates"`
	CRF               int    `toml:"crf"`
	Preset            string `toml:"preset"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Server contains settings for the HTTP/WebSocket surface.
type Server struct {
	Bind        string `toml:"bind"`
	Token       string `toml:"token"`
	EventBuffer int    `toml:"event_buffer"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	OnSuccess      bool   `toml:"on_success"`
	OnFailure      bool   `toml:"on_failure"`
}

// Config encapsulates all configuration values for vidsub.
//
// Configuration sections by subsystem:
//   - Paths: output, state, log, and ledger locations
//   - Tools: external executables and the metadata fetch timeout
//   - Translation: DeepSeek credentials, model, and target language
//   - Pipeline: run defaults, encode settings, intermediate retention
//   - Logging: log format and level
//   - Server: bind address and bearer token for `vidsub serve`
//   - Notifications: ntfy push notification settings
type Config struct {
	Paths         Paths         `toml:"paths"`
	Tools         Tools         `toml:"tools"`
	Translation   Translation   `toml:"translation"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Logging       Logging       `toml:"logging"`
	Server        Server        `toml:"server"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. When path is empty the VIDSUB_CONFIG
// environment variable, the user config directory, and ./vidsub.toml are tried in order.
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
	if path == "" {
		if env, ok := os.LookupEnv("VIDSUB_CONFIG"); ok && strings.TrimSpace(env) != "" {
			path = strings.TrimSpace(env)
		}
	}
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

	projectPath, err := filepath.Abs("vidsub.toml")
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

// EnsureDirectories creates the output, state, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the file used to guarantee a single active run per state directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "vidsub.lock")
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

// Encode renders cfg as TOML with the API key and server token masked.
func Encode(cfg Config) ([]byte, error) {
	cfg.Translation.APIKey = mask(cfg.Translation.APIKey)
	cfg.Server.Token = mask(cfg.Server.Token)
	out, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return out, nil
}

func mask(secret string) string {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return ""
	}
	if len(secret) <= 6 {
		return "***"
	}
	return secret[:3] + "***"
}
