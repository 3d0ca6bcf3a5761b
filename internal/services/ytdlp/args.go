package ytdlp

import (
	"path/filepath"

	"vidsub/internal/progress"
)

// Qualities lists the accepted video quality names in display order.
var Qualities = []string{"Best", "1080p", "720p", "480p"}

var formatSelectors = map[string]string{
	"Best":  "bv*+ba/b",
	"1080p": "bv[height<=1080]+ba/b[height<=1080]",
	"720p":  "bv[height<=720]+ba/b[height<=720]",
	"480p":  "bv[height<=480]+ba/b[height<=480]",
}

// FormatSelector maps a quality name to a yt-dlp format expression. Unknown
// names fall back to Best.
func FormatSelector(quality string) string {
	if selector, ok := formatSelectors[quality]; ok {
		return selector
	}
	return formatSelectors["Best"]
}

// AudioPath is where an audio download for base lands.
func AudioPath(outputDir, base string) string {
	return filepath.Join(outputDir, base+".mp3")
}

// VideoPath is where a video download for base lands.
func VideoPath(outputDir, base string) string {
	return filepath.Join(outputDir, base+".mp4")
}

func outputTemplate(outputDir, base string) string {
	return filepath.Join(outputDir, base+".%(ext)s")
}

func progressArgs() []string {
	return []string{"--newline", "--progress-template", progress.DownloadTemplate}
}

// AudioArgs downloads the best audio stream and converts it to 192K mp3.
func AudioArgs(url, outputDir, base string) []string {
	args := []string{
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"--no-playlist",
	}
	args = append(args, progressArgs()...)
	return append(args, "-o", outputTemplate(outputDir, base), url)
}

// VideoArgs downloads video at quality and merges it into mp4.
func VideoArgs(url, outputDir, base, quality string) []string {
	args := []string{
		"-f", FormatSelector(quality),
		"--merge-output-format", "mp4",
		"--no-playlist",
	}
	args = append(args, progressArgs()...)
	return append(args, "-o", outputTemplate(outputDir, base), url)
}
