package config

const (
	defaultStateDir             = "~/.local/share/strmsync"
	defaultLogDir               = "~/.local/share/strmsync/logs"
	defaultAPIBind              = "127.0.0.1:8196"
	defaultGatewayTimeout       = 30
	defaultLookupBaseURL        = "https://api.themoviedb.org/3"
	defaultLookupImageBaseURL   = "https://image.tmdb.org/t/p/original"
	defaultLookupLanguage       = "en-US"
	defaultHashAlgorithm        = "md5"
	defaultMaxHashSizeMiB       = 512
	defaultDiscoveryConcurrency = 4
	defaultQueueSize            = 8
	defaultSchedulerTickSeconds = 60
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogMaxSizeMB         = 20
	defaultLogMaxBackups        = 5
	defaultLogMaxAgeDays        = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Gateway: Gateway{
			RequestTimeout: defaultGatewayTimeout,
		},
		Lookup: Lookup{
			BaseURL:      defaultLookupBaseURL,
			ImageBaseURL: defaultLookupImageBaseURL,
			Language:     defaultLookupLanguage,
		},
		Sync: Sync{
			HashAlgorithm:        defaultHashAlgorithm,
			MaxHashSizeMiB:       defaultMaxHashSizeMiB,
			DiscoveryConcurrency: defaultDiscoveryConcurrency,
			QueueSize:            defaultQueueSize,
			SchedulerTickSeconds: defaultSchedulerTickSeconds,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
			Compress:   true,
		},
	}
}
