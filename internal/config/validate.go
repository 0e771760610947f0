package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateResolver(); err != nil {
		return err
	}
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateTMDB ensures TMDB credentials are present. Commands that only
// normalize names or manage overrides do not need them.
func (c *Config) ValidateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'reelname config init')", defaultPath)
	}
	if !strings.HasPrefix(c.TMDB.BaseURL, "http://") && !strings.HasPrefix(c.TMDB.BaseURL, "https://") {
		return fmt.Errorf("tmdb.base_url must be an http(s) URL, got %q", c.TMDB.BaseURL)
	}
	return nil
}

func (c *Config) validateResolver() error {
	if c.Resolver.Workers > maxWorkers {
		return fmt.Errorf("resolver.workers must be at most %d", maxWorkers)
	}
	if c.Resolver.QueryTimeoutSeconds > 300 {
		return errors.New("resolver.query_timeout_seconds must be at most 300")
	}
	return nil
}

func (c *Config) validateLibrary() error {
	for _, ext := range c.Library.VideoExtensions {
		if strings.ContainsAny(ext, `/\ `) {
			return fmt.Errorf("library.video_extensions contains invalid entry %q", ext)
		}
	}
	if !strings.Contains(c.Library.NamingPattern, "{title}") {
		return errors.New("library.naming_pattern must contain {title}")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}
