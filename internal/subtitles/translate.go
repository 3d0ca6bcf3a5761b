package subtitles

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyTranslation is reported when the translator returns only whitespace.
var ErrEmptyTranslation = errors.New("empty translation")

// TranslateFunc renders text into the target language.
type TranslateFunc func(ctx context.Context, text string) (string, error)

// Options carries optional callbacks. All callbacks run on the caller's
// goroutine, in block order.
type Options struct {
	// OnBlock fires before a block's text is sent.
	OnBlock func(index int, text string)
	// OnError fires when a block falls back to its original text.
	OnError func(index int, text string, err error)
	// OnProgress fires after every block.
	OnProgress func(done, total int)
}

// Stats summarizes a translation pass.
type Stats struct {
	Blocks     int
	Translated int
	Failed     int
	Skipped    int
}

// Translate returns a new slice with each block's text replaced by its
// translation. Blocks whose translation fails keep their original lines. The
// only error is a cancelled ctx, checked before each block.
func Translate(ctx context.Context, blocks []CaptionBlock, translate TranslateFunc, opts Options) ([]CaptionBlock, Stats, error) {
	stats := Stats{Blocks: len(blocks)}
	out := make([]CaptionBlock, 0, len(blocks))

	for i, block := range blocks {
		if ctx.Err() != nil {
			return out, stats, cancelCause(ctx)
		}

		text := block.JoinedText()
		if text == "" {
			out = append(out, block.clone())
			stats.Skipped++
			report(opts, i+1, len(blocks))
			continue
		}

		if opts.OnBlock != nil {
			opts.OnBlock(i, text)
		}
		translated, err := translate(ctx, text)
		if err == nil {
			lines := splitLines(translated)
			if len(lines) == 0 {
				err = ErrEmptyTranslation
			} else {
				out = append(out, CaptionBlock{Index: block.Index, Timing: block.Timing, Text: lines})
				stats.Translated++
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return out, stats, cancelCause(ctx)
			}
			out = append(out, block.clone())
			stats.Failed++
			if opts.OnError != nil {
				opts.OnError(i, text, err)
			}
		}
		report(opts, i+1, len(blocks))
	}
	return out, stats, nil
}

// TranslateFile reads input, translates every block, and writes output. It
// fails only when input cannot be read, output cannot be written, or ctx is
// cancelled.
func TranslateFile(ctx context.Context, input, output string, translate TranslateFunc, opts Options) (Stats, error) {
	blocks, err := ReadFile(input)
	if err != nil {
		return Stats{}, fmt.Errorf("read captions %s: %w", input, err)
	}
	translated, stats, err := Translate(ctx, blocks, translate, opts)
	if err != nil {
		return stats, err
	}
	if err := WriteFile(output, translated); err != nil {
		return stats, fmt.Errorf("write captions %s: %w", output, err)
	}
	return stats, nil
}

func report(opts Options, done, total int) {
	if opts.OnProgress != nil {
		opts.OnProgress(done, total)
	}
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func cancelCause(ctx context.Context) error {
	if cause := context.Cause(ctx); cause != nil {
		return cause
	}
	return ctx.Err()
}
