package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"vidsub/internal/cancellation"
	"vidsub/internal/config"
	"vidsub/internal/events"
	"vidsub/internal/ledger"
	"vidsub/internal/logging"
	"vidsub/internal/media/ffprobe"
	"vidsub/internal/notifications"
	"vidsub/internal/services"
	"vidsub/internal/services/deepseek"
	"vidsub/internal/services/ytdlp"
	"vidsub/internal/subprocess"
)

// InfoFetcher resolves video metadata.
type InfoFetcher interface {
	FetchInfo(ctx context.Context, url string) (ytdlp.VideoInfo, error)
}

// Prober inspects a downloaded video before encoding.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
	VideoBitrate(ctx context.Context, path string) (int64, error)
}

// Translator translates one caption block.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// TranslatorFactory builds the translator for a run from its credential and
// target language.
type TranslatorFactory func(credential, target string) Translator

// Ledger persists finished runs.
type Ledger interface {
	Save(ctx context.Context, rec ledger.Record) (ledger.Record, error)
}

// Tools names the binaries spawned through the executor.
type Tools struct {
	YTDLP   string
	Whisper string
	FFmpeg  string
}

// Pipeline runs the download, caption, translate and encode stages.
type Pipeline struct {
	exec          subprocess.Executor
	info          InfoFetcher
	prober        Prober
	newTranslator TranslatorFactory
	ledger        Ledger
	notifier      notifications.Service
	logger        *slog.Logger
	tools         Tools
	suffix        string
	crf           int
	preset        string
	newRunID      func() string
	now           func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithExecutor replaces the subprocess executor.
func WithExecutor(exec subprocess.Executor) Option {
	return func(p *Pipeline) {
		if exec != nil {
			p.exec = exec
		}
	}
}

// WithInfoFetcher replaces the metadata lookup.
func WithInfoFetcher(info InfoFetcher) Option {
	return func(p *Pipeline) {
		if info != nil {
			p.info = info
		}
	}
}

// WithProber replaces the media prober.
func WithProber(prober Prober) Option {
	return func(p *Pipeline) {
		if prober != nil {
			p.prober = prober
		}
	}
}

// WithTranslatorFactory replaces how per-run translators are built.
func WithTranslatorFactory(factory TranslatorFactory) Option {
	return func(p *Pipeline) {
		if factory != nil {
			p.newTranslator = factory
		}
	}
}

// WithLedger records finished runs in store. Without it runs are not persisted.
func WithLedger(store Ledger) Option {
	return func(p *Pipeline) {
		p.ledger = store
	}
}

// WithNotifier replaces the notifier built from config.
func WithNotifier(notifier notifications.Service) Option {
	return func(p *Pipeline) {
		if notifier != nil {
			p.notifier = notifier
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRunIDGenerator overrides run id generation.
func WithRunIDGenerator(fn func() string) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.newRunID = fn
		}
	}
}

// New builds a Pipeline from cfg.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		logger: logging.NewNop(),
		tools: Tools{
			YTDLP:   cfg.Tools.YTDLP,
			Whisper: cfg.Tools.Whisper,
			FFmpeg:  cfg.Tools.FFmpeg,
		},
		suffix:   cfg.Translation.SubtitleSuffix,
		crf:      cfg.Pipeline.CRF,
		preset:   cfg.Pipeline.Preset,
		notifier: notifications.NewService(cfg),
		newRunID: uuid.NewString,
		now:      time.Now,
	}
	p.newTranslator = deepseekFactory(cfg)
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "pipeline")
	if p.exec == nil {
		p.exec = subprocess.New(subprocess.WithLogger(p.logger))
	}
	if p.info == nil {
		p.info = ytdlp.NewClient(
			ytdlp.WithBinary(cfg.Tools.YTDLP),
			ytdlp.WithInfoTimeout(time.Duration(cfg.Tools.MetadataTimeoutSeconds)*time.Second),
		)
	}
	if p.prober == nil {
		p.prober = ffprobe.New(cfg.Tools.FFprobe)
	}
	return p
}

func deepseekFactory(cfg *config.Config) TranslatorFactory {
	tc := cfg.Translation
	return func(credential, target string) Translator {
		return deepseek.NewClient(credential,
			deepseek.WithBaseURL(tc.BaseURL),
			deepseek.WithModel(tc.Model),
			deepseek.WithTargetLanguage(target),
			deepseek.WithTemperature(tc.Temperature),
			deepseek.WithTimeout(time.Duration(tc.TimeoutSeconds)*time.Second),
			deepseek.WithRetryMaxAttempts(tc.RetryAttempts),
		)
	}
}

// run is the mutable state of one Run call.
type run struct {
	p       *Pipeline
	cfg     RunConfig
	token   *cancellation.Token
	emit    *emitter
	logger  *slog.Logger
	machine machine
	action  sync.Once
	info    ytdlp.VideoInfo
	base    string
	final   string
	// intermediates removed after a successful video run unless kept
	intermediates []string
}

// Run executes one run to a terminal state and returns its result, which is
// also the last event published to sink. Cancelling ctx trips token.
func (p *Pipeline) Run(ctx context.Context, rc RunConfig, token *cancellation.Token, sink events.Sink) events.Result {
	return p.RunWithID(ctx, p.newRunID(), rc, token, sink)
}

// RunWithID is Run with a caller-chosen run id, for callers that hand the id
// out before the run starts.
func (p *Pipeline) RunWithID(ctx context.Context, runID string, rc RunConfig, token *cancellation.Token, sink events.Sink) events.Result {
	if token == nil {
		token = cancellation.New()
	}
	if strings.TrimSpace(runID) == "" {
		runID = p.newRunID()
	}
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, p.logger)
	r := &run{
		p:      p,
		cfg:    rc,
		token:  token,
		emit:   newEmitter(sink, runID, logger, p.now),
		logger: logger,
	}

	if err := rc.Validate(); err != nil {
		msg := services.Message(err)
		logging.WarnWithContext(logger, "run rejected", "run_rejected",
			logging.String(logging.FieldErrorHint, services.Kind(err)),
			logging.Error(err),
		)
		r.emit.log("[ERROR] " + msg)
		res := events.Result{Status: events.StatusFailed, Message: msg}
		r.emit.result(res)
		return res
	}

	stop := context.AfterFunc(ctx, func() { token.Cancel() })
	defer stop()

	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-token.Done():
			r.announceCancel()
		case <-watchDone:
		}
	}()

	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("url", rc.URL),
		logging.String("kind", string(rc.Kind)),
	)
	err := r.execute(ctx)
	return r.finish(ctx, err)
}

func (r *run) execute(ctx context.Context) error {
	if err := r.enter(ctx, StateFetchingInfo); err != nil {
		return err
	}
	if err := r.fetchInfo(ctx); err != nil {
		return err
	}
	if r.cfg.Kind == KindAudio {
		if err := r.enter(ctx, StateAudioDownload); err != nil {
			return err
		}
		return r.downloadAudio(ctx)
	}

	steps := []struct {
		state State
		fn    func(context.Context) error
	}{
		{StateVideoDownload, r.downloadVideo},
		{StateExtractingCaptions, r.extractCaptions},
		{StateTranslating, r.translate},
		{StateSynthesizing, r.synthesize},
	}
	for _, step := range steps {
		if err := r.enter(ctx, step.state); err != nil {
			return err
		}
		if err := step.fn(ctx); err != nil {
			return err
		}
		r.logger.Info("stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.String("state", step.state.String()),
		)
	}
	r.cleanup()
	return nil
}

// enter checks the token and moves to state, announcing its label.
func (r *run) enter(ctx context.Context, state State) error {
	if r.token.Cancelled() {
		return errCancelled
	}
	if err := r.machine.advance(state); err != nil {
		return services.Wrap(services.ErrValidation, state.String(), "transition", err.Error(), nil)
	}
	r.logger = logging.WithContext(services.WithStage(ctx, state.String()), r.p.logger)
	r.emit.stageChanged(state.Label())
	return nil
}

func (r *run) finish(ctx context.Context, err error) events.Result {
	var res events.Result
	switch {
	case err == nil:
		_ = r.machine.advance(StateDone)
		res = events.Result{Success: true, Status: events.StatusCompleted, Message: successMessage(r.cfg.Kind), FinalPath: r.final}
		r.emit.log("[SUCCESS] " + res.Message)
	case isCancelled(err) || r.token.Cancelled():
		_ = r.machine.advance(StateCancelled)
		r.announceCancel()
		res = events.Result{Status: events.StatusCancelled, Message: CancelledMessage}
	default:
		_ = r.machine.advance(StateFailed)
		msg := failureMessage(err)
		res = events.Result{Status: events.StatusFailed, Message: msg}
		r.emit.log("[ERROR] A critical error occurred: " + msg)
		logging.ErrorWithContext(r.logger, "run failed", "stage_failed",
			logging.String(logging.FieldErrorHint, services.Kind(err)),
			logging.Error(err),
		)
	}

	persistCtx := context.WithoutCancel(ctx)
	r.record(persistCtx, res)
	r.notify(persistCtx, res)

	r.logger.Info("run finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("status", string(res.Status)),
		logging.String("final_path", res.FinalPath),
	)
	r.emit.result(res)
	return res
}

func (r *run) announceCancel() {
	r.action.Do(func() {
		r.emit.log("[ACTION] Cancellation requested by user...")
	})
}

func successMessage(kind Kind) string {
	if kind == KindAudio {
		return "Audio download completed successfully!"
	}
	return "Video processing completed successfully!"
}

func (r *run) displayTitle() string {
	if title := strings.TrimSpace(r.info.Title); title != "" {
		return title
	}
	return "Unknown Title"
}

func (r *run) record(ctx context.Context, res events.Result) {
	if r.p.ledger == nil {
		return
	}
	rec := ledger.Record{
		RunID:       r.emit.runID,
		Title:       r.displayTitle(),
		URL:         r.cfg.URL,
		ProcessType: string(r.cfg.Kind),
		Quality:     r.cfg.QualityLabel(),
		FinalPath:   res.FinalPath,
		ProcessDate: r.p.now(),
		Status:      string(res.Status),
		Message:     res.Message,
	}
	if _, err := r.p.ledger.Save(ctx, rec); err != nil {
		logging.WarnWithContext(r.logger, "history save failed", "ledger_save_failed",
			logging.String(logging.FieldErrorHint, "check ledger_path permissions"),
			logging.Error(err),
		)
	}
}

func (r *run) notify(ctx context.Context, res events.Result) {
	if r.p.notifier == nil {
		return
	}
	summary := notifications.Summary{
		Title:     r.displayTitle(),
		Kind:      string(r.cfg.Kind),
		Status:    res.Status,
		Message:   res.Message,
		FinalPath: res.FinalPath,
	}
	if err := r.p.notifier.NotifyRunFinished(ctx, summary); err != nil {
		logging.WarnWithContext(r.logger, "notification failed", "notification_failed",
			logging.String(logging.FieldErrorHint, "check ntfy_topic"),
			logging.Error(err),
		)
	}
}
