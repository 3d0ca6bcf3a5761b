package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"

	"vidsub/internal/progress"
)

const (
	consoleTimeLayout = "2006-01-02 15:04:05"
	// tool lines can be arbitrarily long; keep console rows readable
	maxConsoleValue = 240
)

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format(consoleTimeLayout)
}

// attrString renders v unquoted, for the component and stage prefixes.
func attrString(v slog.Value) string {
	return consoleText(rawValue(v))
}

// formatValue renders v for a key=value pair, quoting when the text would
// otherwise be ambiguous.
func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return formatTimestamp(v.Time())
	}
	s := consoleText(rawValue(v))
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

func rawValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	case slog.KindTime:
		return formatTimestamp(v.Time())
	default:
		return v.String()
	}
}

// consoleText drops terminal escapes, folds control characters into spaces
// and truncates to maxConsoleValue runes.
func consoleText(s string) string {
	s = progress.StripANSI(s)
	var b strings.Builder
	b.Grow(len(s))
	n := 0
	for _, r := range s {
		if n == maxConsoleValue {
			b.WriteString("…")
			break
		}
		if unicode.IsControl(r) && r != '\t' {
			r = ' '
		}
		b.WriteRune(r)
		n++
	}
	return strings.TrimRight(b.String(), " ")
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	return strings.ContainsFunc(s, func(r rune) bool {
		return r <= ' ' || r == '=' || r == '"'
	})
}
