package config

const (
	defaultConfigPath            = "~/.config/salescope/config.toml"
	projectConfigName            = "salescope.toml"
	defaultResultsDir            = "~/.local/share/salescope/results"
	defaultLogDir                = "~/.local/share/salescope/logs"
	defaultDatabase              = "~/.local/share/salescope/salescope.db"
	defaultLabelsDir             = "labels"
	defaultLabelExt              = "txt"
	defaultVideoName             = "salesman_labeled.mp4"
	defaultSlowdownThreshold     = 0.5
	defaultWorkers               = 4
	defaultVideoStride           = 3
	defaultFFprobeBinary         = "ffprobe"
	defaultFFprobeTimeoutSeconds = 30
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"

	// SubjectTrackID is the only track id the tracker assigns to the salesman.
	SubjectTrackID int64 = -1

	ffprobeEnvVar = "SALESCOPE_FFPROBE"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ResultsDir: defaultResultsDir,
			LogDir:     defaultLogDir,
			Database:   defaultDatabase,
		},
		Analysis: Analysis{
			LabelsDir:         defaultLabelsDir,
			LabelExt:          defaultLabelExt,
			VideoName:         defaultVideoName,
			SubjectTrackID:    SubjectTrackID,
			SlowdownThreshold: defaultSlowdownThreshold,
			Workers:           defaultWorkers,
			VideoStride:       defaultVideoStride,
		},
		Consolidation: Consolidation{
			Enabled: true,
			InPlace: true,
			Backup:  true,
		},
		FFprobe: FFprobe{
			Binary:         defaultFFprobeBinary,
			TimeoutSeconds: defaultFFprobeTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
