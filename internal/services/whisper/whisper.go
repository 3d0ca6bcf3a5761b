// Package whisper builds invocations of the openai-whisper command line
// transcriber.
package whisper

import (
	"path/filepath"
	"strings"
)

// Models lists the model sizes offered to callers.
var Models = []string{"tiny", "small", "medium"}

// DefaultModel is used when a run does not pick one.
const DefaultModel = "small"

// Args returns the argument list that transcribes input into an SRT file
// written to outputDir.
func Args(input, model, language, outputDir string) []string {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return []string{
		input,
		"--model", model,
		"--language", language,
		"--output_format", "srt",
		"--output_dir", outputDir,
	}
}

// CaptionPath reports where whisper writes captions for input: the input's
// base name with an .srt extension, inside outputDir.
func CaptionPath(input, outputDir string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, base+".srt")
}

// TranslatedCaptionPath derives the translated caption file from the source
// captions, e.g. "clip.srt" with suffix "zh" becomes "clip_zh.srt".
func TranslatedCaptionPath(captions, suffix string) string {
	ext := filepath.Ext(captions)
	return strings.TrimSuffix(captions, ext) + "_" + suffix + ext
}
