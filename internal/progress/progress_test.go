package progress_test

import (
	"testing"

	"vidsub/internal/progress"
)

func TestDownload(t *testing.T) {
	tests := []struct {
		name    string
		payload progress.DownloadPayload
		want    progress.Update
		ok      bool
	}{
		{
			name:    "escape sequences stripped",
			payload: progress.DownloadPayload{Status: "downloading", Percent: "45.3%\u001b[0m", Speed: "\u001b[0;32m1.20MiB/s\u001b[0m"},
			want:    progress.Update{Percent: 45, Detail: "1.20MiB/s"},
			ok:      true,
		},
		{
			name:    "leading whitespace",
			payload: progress.DownloadPayload{Status: "downloading", Percent: "  99.9%", Speed: "N/A"},
			want:    progress.Update{Percent: 99, Detail: "N/A"},
			ok:      true,
		},
		{
			name:    "clamped above",
			payload: progress.DownloadPayload{Status: "downloading", Percent: "150%"},
			want:    progress.Update{Percent: 100},
			ok:      true,
		},
		{
			name:    "clamped below",
			payload: progress.DownloadPayload{Status: "downloading", Percent: "-3%"},
			want:    progress.Update{Percent: 0},
			ok:      true,
		},
		{
			name:    "finished",
			payload: progress.DownloadPayload{Status: "finished", Percent: "garbage"},
			want:    progress.Update{Percent: 100, Detail: progress.FinalizingDetail},
			ok:      true,
		},
		{
			name:    "unparseable percent",
			payload: progress.DownloadPayload{Status: "downloading", Percent: "Unknown%"},
		},
		{
			name:    "unknown status",
			payload: progress.DownloadPayload{Status: "error", Percent: "10%"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := progress.Download(tt.payload)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseDownloadLine(t *testing.T) {
	line := `vidsub-progress {"status":"downloading","percent":" 12.5%","speed":"2.00MiB/s"}`
	payload, ok := progress.ParseDownloadLine(line)
	if !ok {
		t.Fatal("expected payload")
	}
	if payload.Status != "downloading" || payload.Percent != " 12.5%" || payload.Speed != "2.00MiB/s" {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if _, ok := progress.ParseDownloadLine("[download] Destination: video.mp4"); ok {
		t.Fatal("expected non-template line to be ignored")
	}
	if _, ok := progress.ParseDownloadLine("vidsub-progress {broken"); ok {
		t.Fatal("expected malformed payload to be ignored")
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		total float64
		want  int
		ok    bool
	}{
		{"halfway", "frame= 2000 fps=50 q=28.0 size=1024kB time=00:01:30.50 bitrate=92.7kbits/s", 180, 50, true},
		{"start", "time=00:00:00.00", 60, 0, true},
		{"overrun clamps", "time=00:05:00.00", 60, 100, true},
		{"hours", "time=01:00:00.00", 7200, 50, true},
		{"no time token", "Stream mapping:", 180, 0, false},
		{"zero total", "time=00:01:30.50", 0, 0, false},
		{"negative total", "time=00:01:30.50", -5, 0, false},
		{"malformed timestamp", "time=N/A bitrate=N/A", 180, 0, false},
		{"minutes out of range", "time=00:75:00.00", 18000, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := progress.Encode(tt.line, tt.total)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got.Percent != tt.want {
				t.Fatalf("percent = %d, want %d", got.Percent, tt.want)
			}
		})
	}
}

func TestEncodeDetail(t *testing.T) {
	got, ok := progress.Encode("time=00:01:30.50", 180)
	if !ok {
		t.Fatal("expected update")
	}
	if got.Detail != "50% encoded (00:01:30)" {
		t.Fatalf("unexpected detail %q", got.Detail)
	}
}
