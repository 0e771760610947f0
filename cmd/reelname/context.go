package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"reelname/internal/config"
	"reelname/internal/identification"
	"reelname/internal/identification/overrides"
	"reelname/internal/identification/tmdb"
	"reelname/internal/language"
	"reelname/internal/logging"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		if c.verbose != nil && *c.verbose {
			cfg.Logging.Level = "debug"
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the logger once; console output goes to the
// command's stderr writer.
func (c *commandContext) ensureLogger(cmd *cobra.Command) (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg, cmd.ErrOrStderr())
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) normalizer(cfg *config.Config) *identification.Normalizer {
	return identification.NewNormalizer(identification.WithExtensions(cfg.Library.VideoExtensions))
}

func (c *commandContext) catalog(cfg *config.Config, logger *slog.Logger) *overrides.Catalog {
	return overrides.NewCatalog(cfg.Paths.OverridesFile, logger)
}

// session bundles what the resolving commands need.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	locale   string
	provider *tmdb.Provider
	engine   *identification.Engine
	catalog  *overrides.Catalog
}

// newSession builds the TMDB provider and engine and registers every stored
// override before any resolution runs. languageFlag overrides the configured
// query language when set.
func (c *commandContext) newSession(cmd *cobra.Command, languageFlag string) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateTMDB(); err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger(cmd)
	if err != nil {
		return nil, err
	}

	locale := cfg.TMDB.Language
	if strings.TrimSpace(languageFlag) != "" {
		locale, err = language.Locale(languageFlag)
		if err != nil {
			return nil, fmt.Errorf("--language: %w", err)
		}
	}

	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, locale)
	if err != nil {
		return nil, err
	}
	provider := tmdb.NewProvider(client, tmdb.ProviderOptions{
		MinInterval: cfg.RateLimit(),
		MaxRetries:  cfg.Resolver.MaxRateRetries,
		Logger:      logger,
	})

	cache := identification.NewCache()
	catalog := c.catalog(cfg, logger)
	if n, err := catalog.RegisterAll(cache.Overrides()); err != nil {
		return nil, fmt.Errorf("load overrides: %w", err)
	} else if n > 0 {
		logger.Debug("registered stored overrides", logging.Int("count", n))
	}

	engine := identification.NewEngine(c.normalizer(cfg), provider, cache, identification.Options{
		Language:     locale,
		QueryTimeout: cfg.QueryTimeout(),
		Logger:       logger,
	})
	return &session{
		cfg:      cfg,
		logger:   logger,
		locale:   locale,
		provider: provider,
		engine:   engine,
		catalog:  catalog,
	}, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
