package subtitles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleSRT = "1\n00:00:01,000 --> 00:00:02,500\nHello there\n\n2\n00:00:03,000 --> 00:00:04,000\nTwo\nlines here\n\n3\n00:00:05,000 --> 00:00:06,000\nGoodbye\n"

func TestParseAndWriteRoundTrip(t *testing.T) {
	blocks, err := Parse(strings.NewReader(sampleSRT))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	if blocks[1].Index != "2" || blocks[1].Timing != "00:00:03,000 --> 00:00:04,000" {
		t.Fatalf("unexpected block 2 header: %+v", blocks[1])
	}
	if got := blocks[1].JoinedText(); got != "Two lines here" {
		t.Fatalf("joined text = %q", got)
	}

	var buf bytes.Buffer
	if err := Write(&buf, blocks); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.String() != sampleSRT {
		t.Fatalf("round trip mismatch:\n%q\n%q", buf.String(), sampleSRT)
	}
}

func TestParseHandlesCRLFAndBOM(t *testing.T) {
	input := "\uFEFF" + strings.ReplaceAll(sampleSRT, "\n", "\r\n")
	blocks, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	if blocks[0].Index != "1" {
		t.Fatalf("BOM not stripped from index: %q", blocks[0].Index)
	}
	if strings.Contains(blocks[2].Text[0], "\r") {
		t.Fatalf("carriage return leaked into text: %q", blocks[2].Text[0])
	}
}

func TestParseCollapsesExtraBlankLines(t *testing.T) {
	blocks, err := Parse(strings.NewReader("\n\n1\n00:00:01,000 --> 00:00:02,000\nA\n\n\n\n2\n00:00:02,000 --> 00:00:03,000\nB\n\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
}

func TestTranslatePreservesStructureAndFallsBack(t *testing.T) {
	blocks, err := Parse(strings.NewReader(sampleSRT))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var seen []string
	var failed []int
	var progress []int
	translate := func(_ context.Context, text string) (string, error) {
		if text == "Two lines here" {
			return "", errors.New("api down")
		}
		return "译:" + text, nil
	}
	out, stats, err := Translate(context.Background(), blocks, translate, Options{
		OnBlock:    func(_ int, text string) { seen = append(seen, text) },
		OnError:    func(index int, _ string, _ error) { failed = append(failed, index) },
		OnProgress: func(done, _ int) { progress = append(progress, done) },
	})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(out) != len(blocks) {
		t.Fatalf("block count changed: %d != %d", len(out), len(blocks))
	}
	for i := range blocks {
		if out[i].Index != blocks[i].Index || out[i].Timing != blocks[i].Timing {
			t.Fatalf("block %d header changed: %+v", i, out[i])
		}
	}
	if out[0].JoinedText() != "译:Hello there" {
		t.Fatalf("block 0 = %q", out[0].JoinedText())
	}
	if got := strings.Join(out[1].Text, "|"); got != "Two|lines here" {
		t.Fatalf("failed block should keep original lines, got %q", got)
	}
	if stats != (Stats{Blocks: 3, Translated: 2, Failed: 1}) {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(seen) != 3 || len(failed) != 1 || failed[0] != 1 {
		t.Fatalf("callbacks: seen=%v failed=%v", seen, failed)
	}
	if fmt.Sprint(progress) != "[1 2 3]" {
		t.Fatalf("progress = %v", progress)
	}
}

func TestTranslateSplitsMultiLineResultAndFlagsEmpty(t *testing.T) {
	blocks := []CaptionBlock{
		{Index: "1", Timing: "a --> b", Text: []string{"one"}},
		{Index: "2", Timing: "c --> d", Text: []string{"two"}},
	}
	translate := func(_ context.Context, text string) (string, error) {
		if text == "two" {
			return "  \n ", nil
		}
		return "first\r\n\nsecond\n", nil
	}
	var gotErr error
	out, stats, err := Translate(context.Background(), blocks, translate, Options{
		OnError: func(_ int, _ string, err error) { gotErr = err },
	})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got := strings.Join(out[0].Text, "|"); got != "first|second" {
		t.Fatalf("lines = %q", got)
	}
	if !errors.Is(gotErr, ErrEmptyTranslation) {
		t.Fatalf("expected ErrEmptyTranslation, got %v", gotErr)
	}
	if out[1].Text[0] != "two" || stats.Failed != 1 {
		t.Fatalf("empty translation should fall back: %+v %+v", out[1], stats)
	}
}

func TestTranslateSkipsBlankBlocks(t *testing.T) {
	blocks := []CaptionBlock{{Index: "1", Timing: "a --> b"}}
	called := false
	out, stats, err := Translate(context.Background(), blocks, func(context.Context, string) (string, error) {
		called = true
		return "x", nil
	}, Options{})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if called {
		t.Fatal("translate should not be called for blank text")
	}
	if len(out) != 1 || stats.Skipped != 1 {
		t.Fatalf("unexpected result %+v %+v", out, stats)
	}
}

func TestTranslateStopsOnCancellation(t *testing.T) {
	blocks, _ := Parse(strings.NewReader(sampleSRT))
	cause := errors.New("stop requested")
	ctx, cancel := context.WithCancelCause(context.Background())
	calls := 0
	_, _, err := Translate(ctx, blocks, func(context.Context, string) (string, error) {
		calls++
		cancel(cause)
		return "ok", nil
	}, Options{})
	if !errors.Is(err, cause) {
		t.Fatalf("expected cancel cause, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one call before stop, got %d", calls)
	}
}

func TestTranslateFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "clip.srt")
	output := filepath.Join(dir, "clip_zh.srt")
	if err := os.WriteFile(input, []byte(sampleSRT), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	stats, err := TranslateFile(context.Background(), input, output, func(_ context.Context, text string) (string, error) {
		return strings.ToUpper(text), nil
	}, Options{})
	if err != nil {
		t.Fatalf("TranslateFile: %v", err)
	}
	if stats.Translated != 3 {
		t.Fatalf("stats = %+v", stats)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "HELLO THERE") || !strings.Contains(string(data), "00:00:05,000 --> 00:00:06,000") {
		t.Fatalf("unexpected output:\n%s", data)
	}
}

func TestTranslateFileReportsMissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := TranslateFile(context.Background(), filepath.Join(dir, "missing.srt"), filepath.Join(dir, "out.srt"),
		func(context.Context, string) (string, error) { return "", nil }, Options{})
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
