package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vidsub/internal/cancellation"
	"vidsub/internal/config"
	"vidsub/internal/events"
	"vidsub/internal/pipeline"
	"vidsub/internal/services"
)

// errRunFailed marks a run that reached the Failed state; the reason has
// already been printed by the observer.
var errRunFailed = errors.New("run failed")

type runOptions struct {
	kind       string
	quality    string
	language   string
	model      string
	keep       bool
	noKeep     bool
	plain      bool
	toolOutput bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run URL",
		Short: "Download a URL and, for videos, burn in translated subtitles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rc, err := buildRunConfig(cfg, args[0], opts)
			if err != nil {
				return err
			}
			if err := rc.Validate(); err != nil {
				return fmt.Errorf("invalid run: %s", services.Message(err))
			}

			lock, err := acquireRunLock(cfg)
			if err != nil {
				return err
			}
			defer releaseRunLock(lock)

			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			store, err := ctx.openLedger()
			if err != nil {
				return err
			}
			defer store.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			interactive := !opts.plain && isTerminal(out)
			observer := newTerminalObserver(out, interactive, opts.toolOutput)
			dispatcher := events.NewDispatcher(observer.observe)

			p := pipeline.New(cfg, pipeline.WithLogger(logger), pipeline.WithLedger(store))
			res := p.Run(runCtx, rc, cancellation.New(), dispatcher)
			dispatcher.Close()

			return reportResult(out, res)
		},
	}

	cmd.Flags().StringVarP(&opts.kind, "kind", "k", "", "audio or video (default from config)")
	cmd.Flags().StringVarP(&opts.quality, "quality", "q", "", "Video quality: Best, 1080p, 720p or 480p")
	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "Spoken language code passed to Whisper")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Whisper model size")
	cmd.Flags().BoolVar(&opts.keep, "keep-intermediates", false, "Keep the downloaded video and caption files")
	cmd.Flags().BoolVar(&opts.noKeep, "no-keep-intermediates", false, "Remove the downloaded video and caption files after success")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Print plain progress lines instead of progress bars")
	cmd.Flags().BoolVar(&opts.toolOutput, "tool-output", false, "Echo raw output from yt-dlp, Whisper and FFmpeg")
	cmd.MarkFlagsMutuallyExclusive("keep-intermediates", "no-keep-intermediates")
	return cmd
}

func buildRunConfig(cfg *config.Config, url string, opts runOptions) (pipeline.RunConfig, error) {
	rc := pipeline.NewRunConfig(cfg, url)
	if kind := strings.TrimSpace(opts.kind); kind != "" {
		parsed, err := pipeline.ParseKind(kind)
		if err != nil {
			return rc, err
		}
		rc.Kind = parsed
	}
	if v := strings.TrimSpace(opts.quality); v != "" {
		rc.Quality = v
	}
	if v := strings.TrimSpace(opts.language); v != "" {
		rc.Language = v
	}
	if v := strings.TrimSpace(opts.model); v != "" {
		rc.Model = v
	}
	switch {
	case opts.keep:
		rc.KeepIntermediates = true
	case opts.noKeep:
		rc.KeepIntermediates = false
	}
	return rc, nil
}

func reportResult(out io.Writer, res events.Result) error {
	switch res.Status {
	case events.StatusCompleted:
		if res.FinalPath != "" {
			size := "unknown size"
			if info, err := os.Stat(res.FinalPath); err == nil {
				size = humanize.Bytes(uint64(info.Size()))
			}
			fmt.Fprintf(out, "Output: %s (%s)\n", res.FinalPath, size)
		}
		return nil
	case events.StatusCancelled:
		return context.Canceled
	default:
		return fmt.Errorf("%w: %s", errRunFailed, res.Message)
	}
}
