package config

const (
	defaultConfigPath             = "~/.config/vidsub/config.toml"
	defaultOutputDir              = "~/Videos/vidsub"
	defaultStateDir               = "~/.local/state/vidsub"
	defaultLedgerFile             = "history.db"
	defaultLogSubdir              = "logs"
	defaultYTDLPBinary            = "yt-dlp"
	defaultWhisperBinary          = "whisper"
	defaultFFmpegBinary           = "ffmpeg"
	defaultFFprobeBinary          = "ffprobe"
	defaultMetadataTimeoutSeconds = 60
	defaultDeepSeekBaseURL        = "https://api.deepseek.com/v1"
	defaultDeepSeekModel          = "deepseek-chat"
	defaultTargetLanguage         = "Simplified Chinese"
	defaultSubtitleSuffix         = "zh"
	defaultTemperature            = 0.2
	defaultTranslationTimeout     = 60
	defaultRetryAttempts          = 2
	defaultKind                   = "video"
	defaultQuality                = "Best"
	defaultLanguage               = "en"
	defaultModel                  = "small"
	defaultCRF                    = 23
	defaultPreset                 = "medium"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultServerBind             = "127.0.0.1:7485"
	defaultEventBuffer            = 1024
	defaultNotifyTimeout          = 10
)

// Default returns a Config populated with repository defaults. Paths are left
// unexpanded; Load normalizes them.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
		},
		Tools: Tools{
			YTDLP:                  defaultYTDLPBinary,
			Whisper:                defaultWhisperBinary,
			FFmpeg:                 defaultFFmpegBinary,
			FFprobe:                defaultFFprobeBinary,
			MetadataTimeoutSeconds: defaultMetadataTimeoutSeconds,
		},
		Translation: Translation{
			BaseURL:        defaultDeepSeekBaseURL,
			Model:          defaultDeepSeekModel,
			TargetLanguage: defaultTargetLanguage,
			SubtitleSuffix: defaultSubtitleSuffix,
			Temperature:    defaultTemperature,
			TimeoutSeconds: defaultTranslationTimeout,
			RetryAttempts:  defaultRetryAttempts,
		},
		Pipeline: Pipeline{
			DefaultKind:       defaultKind,
			DefaultQuality:    defaultQuality,
			DefaultLanguage:   defaultLanguage,
			DefaultModel:      defaultModel,
			KeepIntermediates: true,
			CRF:               defaultCRF,
			Preset:            defaultPreset,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Server: Server{
			Bind:        defaultServerBind,
			EventBuffer: defaultEventBuffer,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			OnSuccess:      true,
			OnFailure:      true,
		},
	}
}
