package ffprobe

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio", BitRate: "128000"},
			{CodecType: "video", BitRate: "2500000"},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
			BitRate:  "32000",
		},
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if result.VideoBitRate() != 2500000 {
		t.Fatalf("unexpected bitrate: %d", result.VideoBitRate())
	}
}

func TestVideoBitRateFallsBackToFormat(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", BitRate: "N/A"}},
		Format:  Format{BitRate: "4000000"},
	}
	if result.VideoBitRate() != 4000000 {
		t.Fatalf("expected container bitrate, got %d", result.VideoBitRate())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
			BitRate:  "nope",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.VideoBitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.VideoBitRate())
	}
}

func TestProberRunsBinary(t *testing.T) {
	stub := filepath.Join(t.TempDir(), "ffprobe")
	script := "#!/bin/sh\n" +
		`echo '{"streams":[{"codec_type":"video","bit_rate":"1500000"}],"format":{"duration":"180.000000","bit_rate":"1600000"}}'` + "\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	prober := New(stub)
	duration, err := prober.Duration(context.Background(), "/tmp/clip.mp4")
	if err != nil || duration != 180 {
		t.Fatalf("Duration = %v, %v", duration, err)
	}
	rate, err := prober.VideoBitrate(context.Background(), "/tmp/clip.mp4")
	if err != nil || rate != 1500000 {
		t.Fatalf("VideoBitrate = %v, %v", rate, err)
	}
}

func TestProberReportsFailure(t *testing.T) {
	stub := filepath.Join(t.TempDir(), "ffprobe")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\necho 'No such file' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	if _, err := New(stub).VideoBitrate(context.Background(), "/missing.mp4"); err == nil {
		t.Fatal("expected error from failing ffprobe")
	}
}
