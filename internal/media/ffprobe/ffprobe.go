package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

const defaultBinary = "ffprobe"

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	BitRate   string `json:"bit_rate"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename string `json:"filename"`
	Duration string `json:"duration"`
	Size     string `json:"size"`
	BitRate  string `json:"bit_rate"`
}

// Prober runs ffprobe.
type Prober struct {
	binary string
}

// New returns a Prober for binary, defaulting to "ffprobe" on PATH.
func New(binary string) *Prober {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = defaultBinary
	}
	return &Prober{binary: binary}
}

// Args returns the argument list used by Inspect.
func Args(path string) []string {
	return []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path}
}

// Inspect executes ffprobe against path and decodes the JSON response.
func (p *Prober) Inspect(ctx context.Context, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}
	cmd := exec.CommandContext(ctx, p.binary, Args(path)...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// Duration returns the container duration of path in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	result, err := p.Inspect(ctx, path)
	if err != nil {
		return 0, err
	}
	duration := result.DurationSeconds()
	if duration <= 0 || math.IsNaN(duration) {
		return 0, errors.New("ffprobe: duration unavailable")
	}
	return duration, nil
}

// VideoBitrate returns the bitrate of path's first video stream, falling back
// to the container bitrate. Zero means neither was reported.
func (p *Prober) VideoBitrate(ctx context.Context, path string) (int64, error) {
	result, err := p.Inspect(ctx, path)
	if err != nil {
		return 0, err
	}
	return result.VideoBitRate(), nil
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	return nonNegative(parseFloat(r.Format.Size))
}

// VideoBitRate returns the first video stream's bitrate in bits per second,
// then the container's, or 0 when neither is usable.
func (r Result) VideoBitRate() int64 {
	for _, stream := range r.Streams {
		if !strings.EqualFold(stream.CodecType, "video") {
			continue
		}
		if rate := nonNegative(parseFloat(stream.BitRate)); rate > 0 {
			return rate
		}
		break
	}
	return nonNegative(parseFloat(r.Format.BitRate))
}

func nonNegative(value float64) int64 {
	if math.IsNaN(value) || value < 0 {
		return 0
	}
	return int64(value)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || cleaned == "N/A" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
