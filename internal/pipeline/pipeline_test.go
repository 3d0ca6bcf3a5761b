package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"vidsub/internal/cancellation"
	"vidsub/internal/config"
	"vidsub/internal/events"
	"vidsub/internal/ledger"
	"vidsub/internal/pipeline"
	"vidsub/internal/services/ytdlp"
	"vidsub/internal/subprocess"
	"vidsub/internal/testsupport"
)

const ytdlpStub = `all="$*"
case "$all" in
  *--dump-single-json*)
    printf '%s\n' '{"id":"abc123","title":"Demo Clip","uploader":"Tester","duration":3}'
    exit 0
    ;;
esac
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; shift; fi
  shift
done
base=$(printf '%s' "$out" | sed 's/\.%(ext)s$//')
ext=mp4
case "$all" in *--audio-format*) ext=mp3 ;; esac
echo 'vidsub-progress {"status":"downloading","percent":" 42.0%","speed":"1.00MiB/s"}'
echo '[download] Destination: stub'
echo 'vidsub-progress {"status":"finished","percent":"100%","speed":""}'
printf 'media' > "$base.$ext"
`

const whisperStub = `in="$1"
dir=""
while [ $# -gt 0 ]; do
  if [ "$1" = "--output_dir" ]; then dir="$2"; shift; fi
  shift
done
name=$(basename "$in" .mp4)
echo "[00:00.000 --> 00:01.000] Hello there"
printf '1\n00:00:00,000 --> 00:00:01,000\nHello there\n\n2\n00:00:01,000 --> 00:00:02,000\nGeneral Kenobi\n' > "$dir/$name.srt"
`

const ffprobeStub = `echo '{"streams":[{"index":0,"codec_type":"video","bit_rate":"800000"}],"format":{"duration":"3.000000","bit_rate":"900000"}}'
`

const ffprobeFailStub = `echo "probe exploded" >&2
exit 1
`

const ffmpegStub = `for last; do :; done
printf '%s\n' "$@" > "$(dirname "$last")/ffmpeg.args"
echo "frame=   10 fps=0.0 q=28.0 size=0kB time=00:00:01.50 bitrate=0.0kbits/s"
printf 'encoded' > "$last"
`

func newTranslationServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q", got)
		}
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		text := req.Messages[len(req.Messages)-1].Content
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": "ZH: " + text}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newStubbedConfig(t *testing.T, probe string) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	bin := filepath.Join(testsupport.BaseDir(cfg), "bin")
	testsupport.WriteScript(t, filepath.Join(bin, "yt-dlp"), ytdlpStub)
	testsupport.WriteScript(t, filepath.Join(bin, "whisper"), whisperStub)
	testsupport.WriteScript(t, filepath.Join(bin, "ffprobe"), probe)
	testsupport.WriteScript(t, filepath.Join(bin, "ffmpeg"), ffmpegStub)
	cfg.Translation.BaseURL = newTranslationServer(t).URL + "/v1"
	return cfg
}

func videoRunConfig(cfg *config.Config) pipeline.RunConfig {
	rc := pipeline.NewRunConfig(cfg, "https://youtu.be/abc123")
	rc.Kind = pipeline.KindVideo
	rc.Quality = "720p"
	rc.Language = "en"
	rc.Model = "small"
	rc.Credential = "sk-test"
	return rc
}

func indexOf(lines []string, match func(string) bool) int {
	for i, line := range lines {
		if match(line) {
			return i
		}
	}
	return -1
}

func TestRunVideoEndToEnd(t *testing.T) {
	cfg := newStubbedConfig(t, ffprobeStub)
	store := testsupport.MustOpenLedger(t, cfg)
	p := pipeline.New(cfg, pipeline.WithLedger(store))
	rec := &events.Recorder{}

	res := p.Run(context.Background(), videoRunConfig(cfg), cancellation.New(), rec)

	if !res.Success || res.Status != events.StatusCompleted {
		t.Fatalf("result = %+v, logs:\n%s", res, strings.Join(rec.Logs(), "\n"))
	}
	if res.Message != "Video processing completed successfully!" {
		t.Fatalf("message = %q", res.Message)
	}
	wantFinal := filepath.Join(cfg.Paths.OutputDir, "Demo Clip_translated.mp4")
	if res.FinalPath != wantFinal || !strings.HasSuffix(res.FinalPath, "_translated.mp4") {
		t.Fatalf("final path = %q, want %q", res.FinalPath, wantFinal)
	}
	if _, err := os.Stat(res.FinalPath); err != nil {
		t.Fatalf("final artifact missing: %v", err)
	}

	wantStages := []string{
		"Getting video information...",
		"Step 1/4: Downloading Video",
		"Step 2/4: Extracting Subtitles (Whisper)",
		"Step 3/4: Translating Subtitles (DeepSeek API)",
		"Step 4/4: Encoding Final Video (FFmpeg)",
	}
	stages := rec.Stages()
	if strings.Join(stages, "|") != strings.Join(wantStages, "|") {
		t.Fatalf("stages = %q", stages)
	}

	all := rec.Events()
	for i := 1; i < len(all); i++ {
		if all[i].Sequence <= all[i-1].Sequence {
			t.Fatalf("sequence not increasing at %d: %d then %d", i, all[i-1].Sequence, all[i].Sequence)
		}
	}
	if last := all[len(all)-1]; !last.Terminal() {
		t.Fatalf("last event kind = %s, want result", last.Kind)
	}
	if got := len(rec.Results()); got != 1 {
		t.Fatalf("results = %d, want 1", got)
	}

	logs := rec.Logs()
	for _, want := range []string{
		"[INFO] Getting info for URL: https://youtu.be/abc123",
		"[INFO] Translating: Hello there",
		"[INFO] Subtitles translated successfully.",
		"[INFO] Detected original bitrate: 800000 bps. Using it for encoding.",
	} {
		if indexOf(logs, func(s string) bool { return s == want }) < 0 {
			t.Fatalf("missing log %q in:\n%s", want, strings.Join(logs, "\n"))
		}
	}

	translated, err := os.ReadFile(filepath.Join(cfg.Paths.OutputDir, "Demo Clip_zh.srt"))
	if err != nil {
		t.Fatalf("read translated captions: %v", err)
	}
	if !strings.Contains(string(translated), "ZH: Hello there") || !strings.Contains(string(translated), "00:00:01,000 --> 00:00:02,000") {
		t.Fatalf("translated captions = %q", translated)
	}
	args, err := os.ReadFile(filepath.Join(cfg.Paths.OutputDir, "ffmpeg.args"))
	if err != nil {
		t.Fatalf("read ffmpeg args: %v", err)
	}
	if !strings.Contains(string(args), "-b:v\n800000\n") {
		t.Fatalf("expected bitrate encode, args:\n%s", args)
	}

	records, err := store.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("ledger records = %d, want 1", len(records))
	}
	got := records[0]
	if got.Status != "Completed" || got.Title != "Demo Clip" || got.Quality != "720p" || got.ProcessType != "Video" {
		t.Fatalf("record = %+v", got)
	}
	if got.FinalPath != wantFinal || got.RunID == "" {
		t.Fatalf("record path/run id = %q/%q", got.FinalPath, got.RunID)
	}
}

func TestRunFallsBackToCRFWhenBitrateUnknown(t *testing.T) {
	cfg := newStubbedConfig(t, ffprobeFailStub)
	p := pipeline.New(cfg)
	rec := &events.Recorder{}

	res := p.Run(context.Background(), videoRunConfig(cfg), cancellation.New(), rec)
	if res.Status != events.StatusCompleted {
		t.Fatalf("result = %+v, logs:\n%s", res, strings.Join(rec.Logs(), "\n"))
	}

	logs := rec.Logs()
	warn := indexOf(logs, func(s string) bool { return s == "[WARN] Could not detect bitrate. Using CRF=23 for encoding." })
	spawn := indexOf(logs, func(s string) bool { return strings.HasPrefix(s, "[CMD] ffmpeg ") })
	if warn < 0 || spawn < 0 || warn > spawn {
		t.Fatalf("warn at %d, encoder spawn at %d:\n%s", warn, spawn, strings.Join(logs, "\n"))
	}
	args, err := os.ReadFile(filepath.Join(cfg.Paths.OutputDir, "ffmpeg.args"))
	if err != nil {
		t.Fatalf("read ffmpeg args: %v", err)
	}
	if !strings.Contains(string(args), "-crf\n23\n") || strings.Contains(string(args), "-b:v") {
		t.Fatalf("expected CRF encode, args:\n%s", args)
	}
}

func TestRunAudioReachesDone(t *testing.T) {
	cfg := newStubbedConfig(t, ffprobeStub)
	store := testsupport.MustOpenLedger(t, cfg)
	p := pipeline.New(cfg, pipeline.WithLedger(store))
	rec := &events.Recorder{}

	rc := pipeline.NewRunConfig(cfg, "https://www.youtube.com/watch?v=abc123&list=PL1")
	rc.Kind = pipeline.KindAudio
	rc.Credential = ""
	res := p.Run(context.Background(), rc, cancellation.New(), rec)

	if res.Status != events.StatusCompleted || res.Message != "Audio download completed successfully!" {
		t.Fatalf("result = %+v, logs:\n%s", res, strings.Join(rec.Logs(), "\n"))
	}
	if want := filepath.Join(cfg.Paths.OutputDir, "Demo Clip.mp3"); res.FinalPath != want {
		t.Fatalf("final path = %q, want %q", res.FinalPath, want)
	}
	stages := rec.Stages()
	if len(stages) != 2 || stages[1] != "Step 1/1: Downloading Audio (MP3)" {
		t.Fatalf("stages = %q", stages)
	}
	var sawProgress bool
	for _, evt := range rec.Events() {
		if evt.Kind == events.KindProgress && evt.Percent == 42 && evt.Detail == "1.00MiB/s" {
			sawProgress = true
		}
	}
	if !sawProgress {
		t.Fatal("expected download progress event at 42%")
	}

	records, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].Quality != ledger.QualityNotApplicable || records[0].URL != "https://www.youtube.com/watch?v=abc123" {
		t.Fatalf("records = %+v", records)
	}
}

func TestRunRemovesIntermediatesWhenNotKept(t *testing.T) {
	cfg := newStubbedConfig(t, ffprobeStub)
	p := pipeline.New(cfg)
	rec := &events.Recorder{}

	rc := videoRunConfig(cfg)
	rc.KeepIntermediates = false
	res := p.Run(context.Background(), rc, cancellation.New(), rec)
	if res.Status != events.StatusCompleted {
		t.Fatalf("result = %+v", res)
	}
	for _, name := range []string{"Demo Clip.mp4", "Demo Clip.srt", "Demo Clip_zh.srt"} {
		if _, err := os.Stat(filepath.Join(cfg.Paths.OutputDir, name)); !os.IsNotExist(err) {
			t.Fatalf("%s still present (err=%v)", name, err)
		}
	}
	if indexOf(rec.Logs(), func(s string) bool { return s == "[INFO] Cleaned up intermediate files." }) < 0 {
		t.Fatalf("missing cleanup log:\n%s", strings.Join(rec.Logs(), "\n"))
	}
}

type staticInfo struct {
	info ytdlp.VideoInfo
	err  error
}

func (s staticInfo) FetchInfo(context.Context, string) (ytdlp.VideoInfo, error) {
	return s.info, s.err
}

type fakeExecutor struct {
	mu       sync.Mutex
	commands []subprocess.Command
	handle   func(cmd subprocess.Command, token *cancellation.Token, onLine func(string)) subprocess.ExitStatus
}

func (f *fakeExecutor) Execute(_ context.Context, token *cancellation.Token, cmd subprocess.Command, onLine func(string)) (subprocess.ExitStatus, error) {
	if token.Cancelled() {
		return subprocess.ExitStatus{State: subprocess.Cancelled}, nil
	}
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	f.mu.Unlock()
	return f.handle(cmd, token, onLine), nil
}

func (f *fakeExecutor) binaries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.commands))
	for _, cmd := range f.commands {
		out = append(out, cmd.Binary)
	}
	return out
}

type memoryLedger struct {
	mu      sync.Mutex
	records []ledger.Record
}

func (m *memoryLedger) Save(_ context.Context, rec ledger.Record) (ledger.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = int64(len(m.records) + 1)
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *memoryLedger) saved() []ledger.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ledger.Record(nil), m.records...)
}

func writeVideo(t *testing.T, cfg *config.Config) {
	t.Helper()
	testsupport.WriteFile(t, ytdlp.VideoPath(cfg.Paths.OutputDir, "Demo Clip"), 16)
}

func TestRunStopsSpawningAfterCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	exec := &fakeExecutor{}
	exec.handle = func(cmd subprocess.Command, token *cancellation.Token, _ func(string)) subprocess.ExitStatus {
		switch cmd.Binary {
		case "yt-dlp":
			writeVideo(t, cfg)
			return subprocess.ExitStatus{State: subprocess.Completed}
		case "whisper":
			token.Cancel()
			return subprocess.ExitStatus{State: subprocess.Cancelled}
		}
		return subprocess.ExitStatus{State: subprocess.Completed}
	}
	store := &memoryLedger{}
	p := pipeline.New(cfg,
		pipeline.WithExecutor(exec),
		pipeline.WithInfoFetcher(staticInfo{info: ytdlp.VideoInfo{ID: "abc123", Title: "Demo Clip"}}),
		pipeline.WithLedger(store),
	)
	rec := &events.Recorder{}

	res := p.Run(context.Background(), videoRunConfig(cfg), cancellation.New(), rec)

	if res.Status != events.StatusCancelled || res.Success || res.Message != pipeline.CancelledMessage {
		t.Fatalf("result = %+v", res)
	}
	if got := exec.binaries(); strings.Join(got, ",") != "yt-dlp,whisper" {
		t.Fatalf("spawned = %v", got)
	}
	if stages := rec.Stages(); len(stages) != 3 {
		t.Fatalf("stages = %q", stages)
	}
	logs := rec.Logs()
	for _, want := range []string{"[INFO] Process terminated by user.", "[ACTION] Cancellation requested by user..."} {
		if indexOf(logs, func(s string) bool { return s == want }) < 0 {
			t.Fatalf("missing %q in:\n%s", want, strings.Join(logs, "\n"))
		}
	}
	saved := store.saved()
	if len(saved) != 1 || saved[0].Status != "Cancelled" {
		t.Fatalf("ledger = %+v", saved)
	}
	if len(rec.Results()) != 1 {
		t.Fatalf("results = %d", len(rec.Results()))
	}
}

func TestRunInfoFailureAbortsWithToolError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	exec := &fakeExecutor{handle: func(subprocess.Command, *cancellation.Token, func(string)) subprocess.ExitStatus {
		t.Fatal("executor should not be called")
		return subprocess.ExitStatus{}
	}}
	store := &memoryLedger{}
	infoErr := errors.New("ERROR: [youtube] abc123: Video unavailable")
	p := pipeline.New(cfg,
		pipeline.WithExecutor(exec),
		pipeline.WithInfoFetcher(staticInfo{err: infoErr}),
		pipeline.WithLedger(store),
	)
	rec := &events.Recorder{}

	res := p.Run(context.Background(), videoRunConfig(cfg), cancellation.New(), rec)

	if res.Success || res.Status != events.StatusFailed {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(res.Message, infoErr.Error()) {
		t.Fatalf("message %q does not carry %q", res.Message, infoErr.Error())
	}
	if got := exec.binaries(); len(got) != 0 {
		t.Fatalf("spawned = %v", got)
	}
	if stages := rec.Stages(); len(stages) != 1 || stages[0] != "Getting video information..." {
		t.Fatalf("stages = %q", stages)
	}
	want := "[ERROR] A critical error occurred: " + res.Message
	if indexOf(rec.Logs(), func(s string) bool { return s == want }) < 0 {
		t.Fatalf("missing %q in:\n%s", want, strings.Join(rec.Logs(), "\n"))
	}
	saved := store.saved()
	if len(saved) != 1 || saved[0].Status != "Failed" || saved[0].Title != "Unknown Title" {
		t.Fatalf("ledger = %+v", saved)
	}
}

func TestRunCancelledBeforeStart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	exec := &fakeExecutor{handle: func(subprocess.Command, *cancellation.Token, func(string)) subprocess.ExitStatus {
		t.Fatal("executor should not be called")
		return subprocess.ExitStatus{}
	}}
	store := &memoryLedger{}
	p := pipeline.New(cfg, pipeline.WithExecutor(exec), pipeline.WithLedger(store),
		pipeline.WithInfoFetcher(staticInfo{info: ytdlp.VideoInfo{Title: "Demo Clip"}}))
	token := cancellation.New()
	token.Cancel()
	rec := &events.Recorder{}

	res := p.Run(context.Background(), videoRunConfig(cfg), token, rec)
	if res.Status != events.StatusCancelled {
		t.Fatalf("result = %+v", res)
	}
	if len(rec.Stages()) != 0 {
		t.Fatalf("stages = %q", rec.Stages())
	}
	saved := store.saved()
	if len(saved) != 1 || saved[0].Title != "Unknown Title" {
		t.Fatalf("ledger = %+v", saved)
	}
}

func TestRunContextCancellationTripsToken(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	token := cancellation.New()
	exec := &fakeExecutor{handle: func(cmd subprocess.Command, tok *cancellation.Token, _ func(string)) subprocess.ExitStatus {
		cancel()
		<-tok.Done()
		return subprocess.ExitStatus{State: subprocess.Cancelled}
	}}
	p := pipeline.New(cfg, pipeline.WithExecutor(exec),
		pipeline.WithInfoFetcher(staticInfo{info: ytdlp.VideoInfo{Title: "Demo Clip"}}))

	res := p.Run(ctx, videoRunConfig(cfg), token, events.Discard)
	if res.Status != events.StatusCancelled || !token.Cancelled() {
		t.Fatalf("result = %+v, token cancelled = %v", res, token.Cancelled())
	}
}

func TestRunReportsToolExitCode(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	exec := &fakeExecutor{}
	exec.handle = func(cmd subprocess.Command, _ *cancellation.Token, onLine func(string)) subprocess.ExitStatus {
		if cmd.Binary == "whisper" {
			onLine("RuntimeError: model not found")
			return subprocess.ExitStatus{State: subprocess.Failed, Code: 1}
		}
		writeVideo(t, cfg)
		return subprocess.ExitStatus{State: subprocess.Completed}
	}
	store := &memoryLedger{}
	p := pipeline.New(cfg, pipeline.WithExecutor(exec), pipeline.WithLedger(store),
		pipeline.WithInfoFetcher(staticInfo{info: ytdlp.VideoInfo{Title: "Demo Clip"}}))
	rec := &events.Recorder{}

	res := p.Run(context.Background(), videoRunConfig(cfg), cancellation.New(), rec)
	if res.Status != events.StatusFailed || res.Message != "Whisper failed with exit code 1" {
		t.Fatalf("result = %+v", res)
	}
	logs := rec.Logs()
	if indexOf(logs, func(s string) bool { return s == "RuntimeError: model not found" }) < 0 {
		t.Fatalf("tool output not forwarded:\n%s", strings.Join(logs, "\n"))
	}
	if indexOf(logs, func(s string) bool { return s == "[ERROR] A critical error occurred: Whisper failed with exit code 1" }) < 0 {
		t.Fatalf("missing critical error log:\n%s", strings.Join(logs, "\n"))
	}
	saved := store.saved()
	if len(saved) != 1 || saved[0].Status != "Failed" || saved[0].Message != res.Message {
		t.Fatalf("ledger = %+v", saved)
	}
}

func TestRunMissingArtifactFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	exec := &fakeExecutor{handle: func(subprocess.Command, *cancellation.Token, func(string)) subprocess.ExitStatus {
		return subprocess.ExitStatus{State: subprocess.Completed}
	}}
	p := pipeline.New(cfg, pipeline.WithExecutor(exec),
		pipeline.WithInfoFetcher(staticInfo{info: ytdlp.VideoInfo{Title: "Demo Clip"}}))

	res := p.Run(context.Background(), videoRunConfig(cfg), cancellation.New(), events.Discard)
	if res.Status != events.StatusFailed || !strings.Contains(res.Message, "was not created") {
		t.Fatalf("result = %+v", res)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	exec := &fakeExecutor{handle: func(subprocess.Command, *cancellation.Token, func(string)) subprocess.ExitStatus {
		t.Fatal("executor should not be called")
		return subprocess.ExitStatus{}
	}}
	store := &memoryLedger{}
	p := pipeline.New(cfg, pipeline.WithExecutor(exec), pipeline.WithLedger(store))

	tests := []struct {
		name string
		edit func(*pipeline.RunConfig)
		want string
	}{
		{"missing credential", func(rc *pipeline.RunConfig) { rc.Credential = "" }, "DeepSeek API key is required for video processing"},
		{"empty url", func(rc *pipeline.RunConfig) { rc.URL = "" }, "url is required"},
		{"bad quality", func(rc *pipeline.RunConfig) { rc.Quality = "4k" }, `quality "4k" is not one of`},
		{"bad language", func(rc *pipeline.RunConfig) { rc.Language = "not a language" }, "not a valid language code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := videoRunConfig(cfg)
			tt.edit(&rc)
			rec := &events.Recorder{}
			res := p.Run(context.Background(), rc, cancellation.New(), rec)
			if res.Status != events.StatusFailed || !strings.Contains(res.Message, tt.want) {
				t.Fatalf("result = %+v, want message containing %q", res, tt.want)
			}
			if len(rec.Stages()) != 0 || len(rec.Results()) != 1 {
				t.Fatalf("stages = %q results = %d", rec.Stages(), len(rec.Results()))
			}
		})
	}
	if saved := store.saved(); len(saved) != 0 {
		t.Fatalf("ledger saved rejected runs: %+v", saved)
	}
}

func TestRunTranslationFailureKeepsOriginalText(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	exec := &fakeExecutor{}
	exec.handle = func(cmd subprocess.Command, _ *cancellation.Token, _ func(string)) subprocess.ExitStatus {
		out := cfg.Paths.OutputDir
		switch cmd.Binary {
		case "yt-dlp":
			writeVideo(t, cfg)
		case "whisper":
			body := "1\n00:00:00,000 --> 00:00:01,000\nHello\n\n2\n00:00:01,000 --> 00:00:02,000\nWorld\n"
			if err := os.WriteFile(filepath.Join(out, "Demo Clip.srt"), []byte(body), 0o644); err != nil {
				t.Errorf("write captions: %v", err)
			}
		case "ffmpeg":
			testsupport.WriteFile(t, cmd.Args[len(cmd.Args)-1], 8)
		}
		return subprocess.ExitStatus{State: subprocess.Completed}
	}
	p := pipeline.New(cfg,
		pipeline.WithExecutor(exec),
		pipeline.WithInfoFetcher(staticInfo{info: ytdlp.VideoInfo{Title: "Demo Clip"}}),
		pipeline.WithProber(fixedProber{duration: 2, bitrate: 0}),
		pipeline.WithTranslatorFactory(func(credential, target string) pipeline.Translator {
			return failingTranslator{fail: "World"}
		}),
	)
	rec := &events.Recorder{}

	res := p.Run(context.Background(), videoRunConfig(cfg), cancellation.New(), rec)
	if res.Status != events.StatusCompleted {
		t.Fatalf("result = %+v\n%s", res, strings.Join(rec.Logs(), "\n"))
	}
	if indexOf(rec.Logs(), func(s string) bool { return strings.HasPrefix(s, "[WARN] Translation failed for block 2:") }) < 0 {
		t.Fatalf("missing block warning:\n%s", strings.Join(rec.Logs(), "\n"))
	}
	data, err := os.ReadFile(filepath.Join(cfg.Paths.OutputDir, "Demo Clip_zh.srt"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if want := "1\n00:00:00,000 --> 00:00:01,000\n[zh] Hello\n\n2\n00:00:01,000 --> 00:00:02,000\nWorld\n"; string(data) != want {
		t.Fatalf("captions = %q, want %q", data, want)
	}
}

type fixedProber struct {
	duration float64
	bitrate  int64
}

func (f fixedProber) Duration(context.Context, string) (float64, error) {
	return f.duration, nil
}

func (f fixedProber) VideoBitrate(context.Context, string) (int64, error) {
	return f.bitrate, nil
}

type failingTranslator struct {
	fail string
}

func (f failingTranslator) Translate(_ context.Context, text string) (string, error) {
	if text == f.fail {
		return "", context.DeadlineExceeded
	}
	return "[zh] " + text, nil
}
