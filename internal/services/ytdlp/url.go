package ytdlp

import (
	"regexp"
	"strings"
)

var youtubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(https?://(?:www\.|m\.|music\.)?youtube\.com/watch\?v=[a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`(https?://youtu\.be/[a-zA-Z0-9_-]+)`),
}

// CleanURL reduces a YouTube watch or short link to its video address,
// dropping playlist and tracking parameters. Other URLs are returned trimmed
// but otherwise unchanged.
func CleanURL(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, pattern := range youtubePatterns {
		if match := pattern.FindString(raw); match != "" {
			return match
		}
	}
	return raw
}
