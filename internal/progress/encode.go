package progress

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var encodeTime = regexp.MustCompile(`time=(\d{2}):(\d{2}):(\d{2})\.(\d{2})`)

// Encode interprets an encoder log line against the source duration in
// seconds. Lines without a time= token, and any line when the total is not
// positive, yield no update.
func Encode(line string, totalSeconds float64) (Update, bool) {
	if totalSeconds <= 0 || math.IsNaN(totalSeconds) || math.IsInf(totalSeconds, 0) {
		return Update{}, false
	}
	match := encodeTime.FindStringSubmatch(line)
	if match == nil {
		return Update{}, false
	}
	parts := make([]int, 4)
	for i := range parts {
		v, err := strconv.Atoi(match[i+1])
		if err != nil {
			return Update{}, false
		}
		parts[i] = v
	}
	if parts[1] > 59 || parts[2] > 59 {
		return Update{}, false
	}
	elapsed := float64(parts[0]*3600+parts[1]*60+parts[2]) + float64(parts[3])/100
	percent := clamp(int(math.Floor(100 * elapsed / totalSeconds)))
	return Update{
		Percent: percent,
		Detail:  fmt.Sprintf("%d%% encoded (%02d:%02d:%02d)", percent, parts[0], parts[1], parts[2]),
	}, true
}
