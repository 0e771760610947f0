package config

import (
	"fmt"
	"os"
	"strings"

	"reelname/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTMDB(); err != nil {
		return err
	}
	c.normalizeResolver()
	c.normalizeLibrary()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OverridesFile) == "" {
		c.Paths.OverridesFile = defaultOverridesFile
	}
	if c.Paths.OverridesFile, err = expandPath(c.Paths.OverridesFile); err != nil {
		return fmt.Errorf("paths.overrides_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = defaultHistoryDB
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTMDB() error {
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = strings.TrimSpace(value)
		}
	}
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	if strings.TrimSpace(c.TMDB.Language) == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	locale, err := language.Locale(c.TMDB.Language)
	if err != nil {
		return fmt.Errorf("tmdb.language: %w", err)
	}
	c.TMDB.Language = locale
	return nil
}

func (c *Config) normalizeResolver() {
	if c.Resolver.Workers <= 0 {
		c.Resolver.Workers = defaultWorkers
	}
	if c.Resolver.QueryTimeoutSeconds <= 0 {
		c.Resolver.QueryTimeoutSeconds = defaultQueryTimeoutSeconds
	}
	if c.Resolver.RateLimitMillis < 0 {
		c.Resolver.RateLimitMillis = 0
	}
	if c.Resolver.MaxRateRetries < 0 {
		c.Resolver.MaxRateRetries = 0
	}
}

func (c *Config) normalizeLibrary() {
	seen := make(map[string]struct{}, len(c.Library.VideoExtensions))
	exts := make([]string, 0, len(c.Library.VideoExtensions))
	for _, ext := range c.Library.VideoExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext == "" {
			continue
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = defaultVideoExtensions()
	}
	c.Library.VideoExtensions = exts
	c.Library.NamingPattern = strings.TrimSpace(c.Library.NamingPattern)
	if c.Library.NamingPattern == "" {
		c.Library.NamingPattern = defaultNamingPattern
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
