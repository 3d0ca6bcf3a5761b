package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"vidsub/internal/config"
	"vidsub/internal/deps"
	"vidsub/internal/services/deepseek"
)

const translationName = "DeepSeek API"

// CheckCredential reports whether a translation key is configured without
// contacting the API.
func CheckCredential(cfg config.Translation) Result {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: translationName, Detail: "API key missing (video runs will fail)"}
	}
	return Result{Name: translationName, Passed: true, Detail: "API key configured"}
}

// CheckTranslation verifies that the translation API is reachable and the key
// is valid. It uses a 30-second timeout and a single attempt.
func CheckTranslation(ctx context.Context, cfg config.Translation) Result {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return CheckCredential(cfg)
	}
	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := deepseek.NewClient(cfg.APIKey,
		deepseek.WithBaseURL(cfg.BaseURL),
		deepseek.WithModel(cfg.Model),
		deepseek.WithRetryMaxAttempts(1),
	)
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: translationName, Detail: summarizeAPIError(err)}
	}
	return Result{Name: translationName, Passed: true, Detail: "API reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external executables named in cfg.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.Tools.YTDLP,
			Description: "Required for metadata and downloads",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.Tools.FFmpeg,
			Description: "Required for audio extraction and subtitle burn-in",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Tools.FFprobe,
			Description: "Required for bitrate and duration probing",
		},
		{
			Name:        "Whisper",
			Command:     cfg.Tools.Whisper,
			Description: "Required for video runs (caption extraction)",
			Optional:    strings.EqualFold(cfg.Pipeline.DefaultKind, "audio"),
		},
	})
}

func summarizeAPIError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
