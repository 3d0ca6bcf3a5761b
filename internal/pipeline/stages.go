package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"

	"vidsub/internal/logging"
	"vidsub/internal/media/ffmpeg"
	"vidsub/internal/progress"
	"vidsub/internal/services"
	"vidsub/internal/services/whisper"
	"vidsub/internal/services/ytdlp"
	"vidsub/internal/subprocess"
	"vidsub/internal/subtitles"
)

func (r *run) fetchInfo(ctx context.Context) error {
	r.emit.log("[INFO] Getting info for URL: " + r.cfg.URL)
	infoCtx, cancel := r.token.Context(ctx)
	defer cancel()
	info, err := r.p.info.FetchInfo(infoCtx, r.cfg.URL)
	if err != nil {
		if r.token.Cancelled() {
			return errCancelled
		}
		return err
	}
	r.info = info
	r.base = info.SafeTitle()
	r.logger.Info("video info resolved",
		logging.String("title", info.Title),
		logging.String("uploader", info.Uploader),
		logging.Float64("duration_seconds", info.Duration),
	)
	return nil
}

func (r *run) downloadAudio(ctx context.Context) error {
	cmd := subprocess.Command{Binary: r.p.tools.YTDLP, Args: ytdlp.AudioArgs(r.cfg.URL, r.cfg.OutputDir, r.base)}
	if err := r.runTool(ctx, "yt-dlp", cmd, r.downloadLine); err != nil {
		return err
	}
	path := ytdlp.AudioPath(r.cfg.OutputDir, r.base)
	if err := requireFile(StateAudioDownload, "yt-dlp", path); err != nil {
		return err
	}
	r.final = path
	return nil
}

func (r *run) downloadVideo(ctx context.Context) error {
	cmd := subprocess.Command{Binary: r.p.tools.YTDLP, Args: ytdlp.VideoArgs(r.cfg.URL, r.cfg.OutputDir, r.base, r.cfg.Quality)}
	if err := r.runTool(ctx, "yt-dlp", cmd, r.downloadLine); err != nil {
		return err
	}
	return requireFile(StateVideoDownload, "yt-dlp", r.videoPath())
}

func (r *run) extractCaptions(ctx context.Context) error {
	r.emit.progress(0, "Initializing Whisper... This may take a while.")
	video := r.videoPath()
	cmd := subprocess.Command{Binary: r.p.tools.Whisper, Args: whisper.Args(video, r.cfg.Model, r.cfg.Language, r.cfg.OutputDir)}
	if err := r.runTool(ctx, "Whisper", cmd, r.emit.log); err != nil {
		return err
	}
	captions := whisper.CaptionPath(video, r.cfg.OutputDir)
	if err := requireFile(StateExtractingCaptions, "Whisper", captions); err != nil {
		return err
	}
	r.intermediates = append(r.intermediates, video, captions)
	return nil
}

func (r *run) translate(ctx context.Context) error {
	r.emit.progress(0, "Sending text to translation API...")
	captions := whisper.CaptionPath(r.videoPath(), r.cfg.OutputDir)
	output := r.translatedCaptions()
	target := r.cfg.TargetLanguage
	translator := r.p.newTranslator(r.cfg.Credential, target)

	tctx, cancel := r.token.Context(ctx)
	defer cancel()
	stats, err := subtitles.TranslateFile(tctx, captions, output, translator.Translate, subtitles.Options{
		OnBlock: func(_ int, text string) {
			r.emit.log("[INFO] Translating: " + text)
		},
		OnError: func(index int, _ string, err error) {
			r.emit.log(fmt.Sprintf("[WARN] Translation failed for block %d: %v", index+1, err))
		},
		OnProgress: func(done, total int) {
			if total > 0 {
				r.emit.progress(done*100/total, fmt.Sprintf("Translated %d/%d blocks", done, total))
			}
		},
	})
	if err != nil {
		if isCancelled(err) || r.token.Cancelled() {
			return errCancelled
		}
		return withMessage("Translation failed: "+err.Error(),
			services.Wrap(services.ErrExternalTool, StateTranslating.String(), "translate", "caption translation failed", err))
	}
	r.logger.Info("captions translated",
		logging.Int("blocks", stats.Blocks),
		logging.Int("translated", stats.Translated),
		logging.Int("failed", stats.Failed),
		logging.Int("skipped", stats.Skipped),
	)
	r.intermediates = append(r.intermediates, output)
	r.emit.log("[INFO] Subtitles translated successfully.")
	return nil
}

func (r *run) synthesize(ctx context.Context) error {
	video := r.videoPath()
	probeCtx, cancel := r.token.Context(ctx)
	defer cancel()

	duration, err := r.p.prober.Duration(probeCtx, video)
	if err != nil {
		r.emit.log(fmt.Sprintf("[WARN] Could not get video duration: %v", err))
		duration = 0
	}

	crf := r.p.crf
	if crf <= 0 {
		crf = ffmpeg.DefaultCRF
	}
	job := ffmpeg.BurnIn{
		Input:     video,
		Subtitles: r.translatedCaptions(),
		Output:    ffmpeg.OutputPath(r.cfg.OutputDir, r.base),
		CRF:       crf,
		Preset:    r.p.preset,
	}
	bitrate, err := r.p.prober.VideoBitrate(probeCtx, video)
	if err == nil && bitrate > 0 {
		job.BitRate = bitrate
		r.emit.log(fmt.Sprintf("[INFO] Detected original bitrate: %d bps. Using it for encoding.", bitrate))
	} else {
		r.emit.log(fmt.Sprintf("[WARN] Could not detect bitrate. Using CRF=%d for encoding.", crf))
	}
	if r.token.Cancelled() {
		return errCancelled
	}

	cmd := subprocess.Command{Binary: r.p.tools.FFmpeg, Args: job.Args()}
	onLine := func(line string) {
		if update, ok := progress.Encode(line, duration); ok {
			r.emit.progress(update.Percent, update.Detail)
			return
		}
		r.emit.log(line)
	}
	if err := r.runTool(ctx, "FFmpeg", cmd, onLine); err != nil {
		return err
	}
	if err := requireFile(StateSynthesizing, "FFmpeg", job.Output); err != nil {
		return err
	}
	r.final = job.Output
	return nil
}

// runTool spawns cmd and maps its exit status onto the run's error model.
func (r *run) runTool(ctx context.Context, tool string, cmd subprocess.Command, onLine func(string)) error {
	if r.token.Cancelled() {
		return errCancelled
	}
	r.emit.log("[CMD] " + cmd.String())
	stage := r.machine.state.String()
	status, err := r.p.exec.Execute(ctx, r.token, cmd, onLine)
	if err != nil {
		return withMessage(fmt.Sprintf("%s could not be started: %v", tool, err),
			services.Wrap(services.ErrExternalTool, stage, tool, "start failed", err))
	}
	switch status.State {
	case subprocess.Completed:
		return nil
	case subprocess.Cancelled:
		r.emit.log("[INFO] Process terminated by user.")
		return errCancelled
	default:
		err := toolFailed(stage, tool, status.Code)
		return withMessage(fmt.Sprintf("%s failed with exit code %d", tool, status.Code), err)
	}
}

// downloadLine routes yt-dlp progress-template lines to progress events and
// everything else to the log.
func (r *run) downloadLine(line string) {
	if payload, ok := progress.ParseDownloadLine(line); ok {
		if update, ok := progress.Download(payload); ok {
			r.emit.progress(update.Percent, update.Detail)
		}
		return
	}
	r.emit.log(line)
}

func (r *run) videoPath() string {
	return ytdlp.VideoPath(r.cfg.OutputDir, r.base)
}

func (r *run) translatedCaptions() string {
	suffix := strings.TrimSpace(r.p.suffix)
	if suffix == "" {
		suffix = "zh"
	}
	return whisper.TranslatedCaptionPath(whisper.CaptionPath(r.videoPath(), r.cfg.OutputDir), suffix)
}

// cleanup removes intermediates after a successful video run unless the run
// keeps them.
func (r *run) cleanup() {
	if r.cfg.KeepIntermediates || len(r.intermediates) == 0 {
		return
	}
	var failed []string
	for _, path := range r.intermediates {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			failed = append(failed, err.Error())
		}
	}
	if len(failed) > 0 {
		r.emit.log("[WARN] Could not remove temporary files: " + strings.Join(failed, "; "))
		return
	}
	r.emit.log("[INFO] Cleaned up intermediate files.")
}

func requireFile(state State, tool, path string) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return missingArtifact(state.String(), tool, path)
	}
	return nil
}
