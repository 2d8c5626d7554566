package config

const (
	defaultOutputDir          = "~/mixes"
	defaultWorkDir            = "~/.local/share/mixwheel/work"
	defaultLogDir             = "~/.local/share/mixwheel/logs"
	defaultCacheDir           = "~/.cache/mixwheel/downloads"
	defaultCacheExpiryHours   = 24
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultYtDlpBinary        = "yt-dlp"
	defaultAudioBitrateKbps   = 320
	defaultVideoWidth         = 1920
	defaultVideoHeight        = 1080
	defaultVideoFPS           = 30
	defaultVideoPreset        = "medium"
	defaultVideoCRF           = 23
	defaultVideoAudioKbps     = 192
	defaultFetchItemTimeout   = 600
	defaultHistoryPath        = "~/.local/share/mixwheel/history.db"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			WorkDir:   defaultWorkDir,
			LogDir:    defaultLogDir,
		},
		Cache: Cache{
			Enabled:     true,
			Dir:         defaultCacheDir,
			ExpiryHours: defaultCacheExpiryHours,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
			YtDlp:   defaultYtDlpBinary,
		},
		Audio: Audio{
			BitrateKbps: defaultAudioBitrateKbps,
		},
		Video: Video{
			Width:            defaultVideoWidth,
			Height:           defaultVideoHeight,
			FPS:              defaultVideoFPS,
			Preset:           defaultVideoPreset,
			CRF:              defaultVideoCRF,
			AudioBitrateKbps: defaultVideoAudioKbps,
		},
		Fetch: Fetch{
			ItemTimeoutSeconds: defaultFetchItemTimeout,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
