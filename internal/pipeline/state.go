package pipeline

import "fmt"

// State is a run's position in the stage sequence.
type State int

const (
	StateIdle State = iota
	StateFetchingInfo
	StateAudioDownload
	StateVideoDownload
	StateExtractingCaptions
	StateTranslating
	StateSynthesizing
	StateDone
	StateCancelled
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:               "idle",
	StateFetchingInfo:       "fetching_info",
	StateAudioDownload:      "audio_download",
	StateVideoDownload:      "video_download",
	StateExtractingCaptions: "extracting_captions",
	StateTranslating:        "translating",
	StateSynthesizing:       "synthesizing",
	StateDone:               "done",
	StateCancelled:          "cancelled",
	StateFailed:             "failed",
}

// Stage labels shown to users when a state is entered.
var stageLabels = map[State]string{
	StateFetchingInfo:       "Getting video information...",
	StateAudioDownload:      "Step 1/1: Downloading Audio (MP3)",
	StateVideoDownload:      "Step 1/4: Downloading Video",
	StateExtractingCaptions: "Step 2/4: Extracting Subtitles (Whisper)",
	StateTranslating:        "Step 3/4: Translating Subtitles (DeepSeek API)",
	StateSynthesizing:       "Step 4/4: Encoding Final Video (FFmpeg)",
}

var forward = map[State][]State{
	StateIdle:               {StateFetchingInfo},
	StateFetchingInfo:       {StateAudioDownload, StateVideoDownload},
	StateAudioDownload:      {StateDone},
	StateVideoDownload:      {StateExtractingCaptions},
	StateExtractingCaptions: {StateTranslating},
	StateTranslating:        {StateSynthesizing},
	StateSynthesizing:       {StateDone},
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Label is the user-facing stage text, empty for non-stage states.
func (s State) Label() string {
	return stageLabels[s]
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateCancelled || s == StateFailed
}

// CanTransition reports whether next may follow s.
func (s State) CanTransition(next State) bool {
	if s.Terminal() {
		return false
	}
	if next == StateCancelled || next == StateFailed {
		return true
	}
	for _, allowed := range forward[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type machine struct {
	state State
}

func (m *machine) advance(next State) error {
	if !m.state.CanTransition(next) {
		return fmt.Errorf("illegal transition %s -> %s", m.state, next)
	}
	m.state = next
	return nil
}
