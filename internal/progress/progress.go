package progress

import "regexp"

// Update is a normalized progress signal. Percent is always within [0, 100].
type Update struct {
	Percent int
	Detail  string
}

var ansiEscape = regexp.MustCompile(`\x1B(?:[@-Z\\-_]|\[[0-?]*[ -/]*[@-~])`)

// StripANSI removes terminal escape sequences from s.
func StripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

func clamp(v int) int {
	return max(0, min(100, v))
}
