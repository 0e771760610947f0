package config

const (
	defaultConfigPath          = "~/.config/reelname/config.toml"
	projectConfigName          = "reelname.toml"
	defaultOverridesFile       = "~/.config/reelname/overrides.json"
	defaultHistoryDB           = "~/.local/share/reelname/history.db"
	defaultLogDir              = "~/.local/share/reelname/logs"
	defaultTMDBLanguage        = "en"
	defaultTMDBBaseURL         = "https://api.themoviedb.org/3"
	defaultWorkers             = 4
	defaultQueryTimeoutSeconds = 10
	defaultRateLimitMillis     = 250
	defaultMaxRateRetries      = 3
	defaultNamingPattern       = "{title} ({year})"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	maxWorkers                 = 64
)

func defaultVideoExtensions() []string {
	return []string{"mp4", "mkv", "avi", "mov", "flv"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		TMDB: TMDB{
			Language: defaultTMDBLanguage,
			BaseURL:  defaultTMDBBaseURL,
		},
		Resolver: Resolver{
			Workers:             defaultWorkers,
			QueryTimeoutSeconds: defaultQueryTimeoutSeconds,
			RateLimitMillis:     defaultRateLimitMillis,
			MaxRateRetries:      defaultMaxRateRetries,
		},
		Library: Library{
			VideoExtensions: defaultVideoExtensions(),
			NamingPattern:   defaultNamingPattern,
		},
		Paths: Paths{
			OverridesFile: defaultOverridesFile,
			HistoryDB:     defaultHistoryDB,
			LogDir:        defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
