// Package ffmpeg builds the encoder invocation that burns subtitles into a
// video.
package ffmpeg

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// DefaultCRF is the constant rate factor used when the source bitrate is unknown.
const DefaultCRF = 23

// DefaultPreset is the libx264 speed preset.
const DefaultPreset = "medium"

// BurnIn describes one subtitle burn-in encode.
type BurnIn struct {
	Input     string
	Subtitles string
	Output    string
	// BitRate in bits per second; zero selects CRF mode.
	BitRate int64
	CRF     int
	Preset  string
}

// Args returns the ffmpeg argument list for b.
func (b BurnIn) Args() []string {
	preset := strings.TrimSpace(b.Preset)
	if preset == "" {
		preset = DefaultPreset
	}
	args := []string{
		"-i", b.Input,
		"-vf", "subtitles=" + FilterPath(b.Subtitles),
		"-c:v", "libx264",
		"-preset", preset,
	}
	if b.BitRate > 0 {
		args = append(args, "-b:v", strconv.FormatInt(b.BitRate, 10))
	} else {
		crf := b.CRF
		if crf <= 0 {
			crf = DefaultCRF
		}
		args = append(args, "-crf", strconv.Itoa(crf))
	}
	return append(args, "-c:a", "copy", "-y", b.Output)
}

// OutputPath is the final artifact for a video whose base name is base.
func OutputPath(outputDir, base string) string {
	return filepath.Join(outputDir, base+"_translated.mp4")
}

// FilterPath quotes path for use inside the subtitles filter graph.
func FilterPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filterPath(path, runtime.GOOS == "windows")
}

func filterPath(path string, windows bool) string {
	path = strings.ReplaceAll(path, "\\", "/")
	if windows && len(path) >= 2 && path[1] == ':' {
		path = path[:1] + "\\:" + path[2:]
	}
	return "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}
