package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"vidsub/internal/services"
	"vidsub/internal/textutil"
)

const (
	defaultBinary      = "yt-dlp"
	defaultInfoTimeout = 60 * time.Second
	fallbackTitle      = "untitled"
)

// VideoInfo is the subset of yt-dlp metadata the pipeline needs.
type VideoInfo struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Uploader  string  `json:"uploader"`
	Thumbnail string  `json:"thumbnail"`
	Duration  float64 `json:"duration"`
}

// SafeTitle returns the title with path-hostile characters removed. An empty
// result falls back to the video id, then to "untitled".
func (v VideoInfo) SafeTitle() string {
	if title := textutil.SanitizeFileName(v.Title); title != "" {
		return title
	}
	if id := textutil.SanitizeFileName(v.ID); id != "" {
		return id
	}
	return fallbackTitle
}

// Client runs yt-dlp for metadata lookups.
type Client struct {
	binary  string
	timeout time.Duration
}

// Option customizes the client.
type Option func(*Client)

// WithBinary overrides the yt-dlp executable.
func WithBinary(binary string) Option {
	return func(c *Client) {
		if binary = strings.TrimSpace(binary); binary != "" {
			c.binary = binary
		}
	}
}

// WithInfoTimeout bounds metadata lookups.
func WithInfoTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewClient constructs a yt-dlp client.
func NewClient(opts ...Option) *Client {
	c := &Client{binary: defaultBinary, timeout: defaultInfoTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Binary reports the configured executable.
func (c *Client) Binary() string {
	return c.binary
}

// InfoArgs returns the argument list used by FetchInfo.
func InfoArgs(url string) []string {
	return []string{"--dump-single-json", "--no-playlist", "--skip-download", "--no-warnings", url}
}

// FetchInfo reads title and duration metadata for url without downloading.
func (c *Client) FetchInfo(ctx context.Context, url string) (VideoInfo, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return VideoInfo{}, services.Wrap(services.ErrValidation, "info", "fetch", "URL is required", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.binary, InfoArgs(url)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return VideoInfo{}, services.Wrap(services.ErrTimeout, "info", "fetch",
				fmt.Sprintf("yt-dlp did not answer within %s", c.timeout), err)
		}
		if ctx.Err() != nil {
			return VideoInfo{}, ctx.Err()
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return VideoInfo{}, services.Wrap(services.ErrExternalTool, "info", "fetch", detail, err)
	}

	var info VideoInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return VideoInfo{}, services.Wrap(services.ErrExternalTool, "info", "decode", "unreadable yt-dlp metadata", err)
	}
	info.Title = strings.TrimSpace(info.Title)
	return info, nil
}
