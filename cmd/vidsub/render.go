package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	statusLabelWidth = 22
	statusIndent     = "  "
)

// palette holds the colours used for terminal output. Every colour is
// disabled when the writer is not a terminal.
type palette struct {
	stage   *color.Color
	ok      *color.Color
	warn    *color.Color
	err     *color.Color
	info    *color.Color
	command *color.Color
	faint   *color.Color
}

func newPalette(colorize bool) palette {
	p := palette{
		stage:   color.New(color.FgCyan, color.Bold),
		ok:      color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		err:     color.New(color.FgRed, color.Bold),
		info:    color.New(color.FgBlue),
		command: color.New(color.FgMagenta),
		faint:   color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.stage, p.ok, p.warn, p.err, p.info, p.command, p.faint} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) forKind(kind statusKind) *color.Color {
	switch kind {
	case statusOK:
		return p.ok
	case statusWarn:
		return p.warn
	case statusError:
		return p.err
	default:
		return p.info
	}
}

func renderStatusLine(p palette, label string, kind statusKind, message string) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	return p.forKind(kind).Sprint(base)
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func renderSectionHeader(p palette, title string) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	return []string{p.info.Sprint(line), p.info.Sprint(rule)}
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
