package progress

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DownloadLinePrefix marks yt-dlp progress-template lines on the merged
// output stream.
const DownloadLinePrefix = "vidsub-progress "

// DownloadTemplate is passed to yt-dlp --progress-template so each hook call
// prints one JSON payload line.
const DownloadTemplate = "download:" + DownloadLinePrefix +
	`{"status":%(progress.status)j,"percent":%(progress._percent_str)j,"speed":%(progress._speed_str)j}`

// FinalizingDetail accompanies the 100% update emitted on a finished download.
const FinalizingDetail = "Finalizing..."

// DownloadPayload mirrors the downloader's progress hook fields.
type DownloadPayload struct {
	Status  string `json:"status"`
	Percent string `json:"percent"`
	Speed   string `json:"speed"`
}

// ParseDownloadLine extracts a payload from a line printed through
// DownloadTemplate. Other lines report false.
func ParseDownloadLine(line string) (DownloadPayload, bool) {
	idx := strings.Index(line, DownloadLinePrefix)
	if idx < 0 {
		return DownloadPayload{}, false
	}
	raw := strings.TrimSpace(line[idx+len(DownloadLinePrefix):])
	var payload DownloadPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return DownloadPayload{}, false
	}
	return payload, true
}

// Download interprets a downloader progress payload. A "downloading" payload
// yields the truncated percent and the escape-stripped speed; "finished"
// always yields 100 with FinalizingDetail.
func Download(p DownloadPayload) (Update, bool) {
	switch strings.ToLower(strings.TrimSpace(p.Status)) {
	case "finished":
		return Update{Percent: 100, Detail: FinalizingDetail}, true
	case "downloading":
	default:
		return Update{}, false
	}

	cleaned := strings.TrimSpace(strings.ReplaceAll(StripANSI(p.Percent), "%", ""))
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) {
		return Update{}, false
	}
	var percent int
	switch {
	case math.IsInf(value, 1) || value >= 100:
		percent = 100
	case math.IsInf(value, -1) || value <= 0:
		percent = 0
	default:
		percent = clamp(int(value))
	}
	return Update{Percent: percent, Detail: strings.TrimSpace(StripANSI(p.Speed))}, true
}
