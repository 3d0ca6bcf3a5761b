package textutil

import "strings"

// fileNameStripper removes characters that are unsafe in file names on any
// common filesystem.
var fileNameStripper = strings.NewReplacer(
	"\\", "",
	"/", "",
	"*", "",
	"?", "",
	":", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName strips `\ / * ? : " < > |` from name and trims surrounding
// whitespace. Everything else, including non-ASCII letters, is kept.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameStripper.Replace(name))
}

// Truncate shortens s to at most limit runes, appending "..." when cut.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
