package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/schollz/progressbar/v3"

	"vidsub/internal/events"
	"vidsub/internal/logging"
)

// terminalObserver renders a run's events. On a terminal each stage gets a
// progress bar; otherwise progress is printed as sampled plain lines.
type terminalObserver struct {
	out         io.Writer
	interactive bool
	colors      palette
	bar         *progressbar.ProgressBar
	stage       string
	sampler     *logging.ProgressSampler
	showOutput  bool
}

func newTerminalObserver(out io.Writer, interactive, showOutput bool) *terminalObserver {
	return &terminalObserver{
		out:         out,
		interactive: interactive,
		colors:      newPalette(interactive),
		sampler:     logging.NewProgressSampler(10),
		showOutput:  showOutput,
	}
}

func (o *terminalObserver) observe(evt events.Event) {
	switch evt.Kind {
	case events.KindStage:
		o.finishBar()
		o.stage = evt.Stage
		fmt.Fprintln(o.out, o.colors.stage.Sprint("==> "+evt.Stage))
		if o.interactive {
			o.bar = newStageBar(o.out)
		}
	case events.KindProgress:
		o.progress(evt.Percent, evt.Detail)
	case events.KindLog:
		o.line(evt.Text)
	case events.KindResult:
		o.finishBar()
		if evt.Result == nil {
			return
		}
		switch evt.Result.Status {
		case events.StatusCompleted:
			fmt.Fprintln(o.out, o.colors.ok.Sprint("✔ "+evt.Result.Message))
		case events.StatusCancelled:
			fmt.Fprintln(o.out, o.colors.warn.Sprint("■ "+evt.Result.Message))
		default:
			fmt.Fprintln(o.out, o.colors.err.Sprint("✘ "+evt.Result.Message))
		}
	}
}

func (o *terminalObserver) progress(percent int, detail string) {
	if o.bar != nil {
		if detail != "" {
			o.bar.Describe(detail)
		}
		_ = o.bar.Set(percent)
		return
	}
	if o.sampler.ShouldLog(o.stage, percent) {
		fmt.Fprintf(o.out, "    [%3d%%] %s\n", percent, detail)
	}
}

func (o *terminalObserver) line(text string) {
	var rendered string
	switch {
	case strings.HasPrefix(text, "[ERROR]"):
		rendered = o.colors.err.Sprint(text)
	case strings.HasPrefix(text, "[WARN]"):
		rendered = o.colors.warn.Sprint(text)
	case strings.HasPrefix(text, "[CMD]"):
		rendered = o.colors.command.Sprint(text)
	case strings.HasPrefix(text, "[INFO]"), strings.HasPrefix(text, "[ACTION]"), strings.HasPrefix(text, "[SUCCESS]"):
		rendered = text
	default:
		if !o.showOutput {
			return
		}
		rendered = o.colors.faint.Sprint(text)
	}
	if o.bar != nil {
		_ = o.bar.Clear()
	}
	fmt.Fprintln(o.out, rendered)
	if o.bar != nil {
		_ = o.bar.RenderBlank()
	}
}

func (o *terminalObserver) finishBar() {
	if o.bar == nil {
		return
	}
	_ = o.bar.Exit()
	fmt.Fprintln(o.out)
	o.bar = nil
}

func newStageBar(out io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(100,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
