package config_test

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"reelname/internal/config"
)

func TestLoadDefaultConfigUsesEnvTMDBKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantOverrides := filepath.Join(tempHome, ".config", "reelname", "overrides.json")
	if cfg.Paths.OverridesFile != wantOverrides {
		t.Fatalf("unexpected overrides file: got %q want %q", cfg.Paths.OverridesFile, wantOverrides)
	}
	wantHistory := filepath.Join(tempHome, ".local", "share", "reelname", "history.db")
	if cfg.Paths.HistoryDB != wantHistory {
		t.Fatalf("unexpected history db: got %q want %q", cfg.Paths.HistoryDB, wantHistory)
	}
	if cfg.TMDB.APIKey != "test-key" {
		t.Fatalf("expected TMDB key from env, got %q", cfg.TMDB.APIKey)
	}
	if cfg.TMDB.BaseURL != config.Default().TMDB.BaseURL {
		t.Fatalf("unexpected TMDB base url: %q", cfg.TMDB.BaseURL)
	}
	if cfg.TMDB.Language != "en-US" {
		t.Fatalf("expected default language to resolve to en-US, got %q", cfg.TMDB.Language)
	}
	if !slices.Equal(cfg.Library.VideoExtensions, []string{"mp4", "mkv", "avi", "mov", "flv"}) {
		t.Fatalf("unexpected default extensions: %v", cfg.Library.VideoExtensions)
	}
	if cfg.Library.NamingPattern != "{title} ({year})" {
		t.Fatalf("unexpected naming pattern: %q", cfg.Library.NamingPattern)
	}
	if cfg.QueryTimeout() != 10*time.Second {
		t.Fatalf("unexpected query timeout: %v", cfg.QueryTimeout())
	}
	if cfg.RateLimit() != 250*time.Millisecond {
		t.Fatalf("unexpected rate limit: %v", cfg.RateLimit())
	}
	if err := cfg.ValidateTMDB(); err != nil {
		t.Fatalf("ValidateTMDB failed: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.LogDir, filepath.Dir(cfg.Paths.OverridesFile), filepath.Dir(cfg.Paths.HistoryDB)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "reelname.toml")

	type payload struct {
		TMDB struct {
			APIKey   string `toml:"api_key"`
			BaseURL  string `toml:"base_url"`
			Language string `toml:"language"`
		} `toml:"tmdb"`
		Resolver struct {
			Workers int `toml:"workers"`
		} `toml:"resolver"`
		Library struct {
			VideoExtensions []string `toml:"video_extensions"`
		} `toml:"library"`
	}
	custom := payload{}
	custom.TMDB.APIKey = "abc123"
	custom.TMDB.BaseURL = "https://example.com/tmdb/"
	custom.TMDB.Language = "fr"
	custom.Resolver.Workers = 8
	custom.Library.VideoExtensions = []string{".MKV", "mp4", "mkv", " "}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.TMDB.APIKey != "abc123" {
		t.Fatalf("expected TMDB key from file, got %q", cfg.TMDB.APIKey)
	}
	if cfg.TMDB.BaseURL != "https://example.com/tmdb" {
		t.Fatalf("expected trailing slash trimmed from base url, got %q", cfg.TMDB.BaseURL)
	}
	if cfg.TMDB.Language != "fr-FR" {
		t.Fatalf("expected fr-FR locale, got %q", cfg.TMDB.Language)
	}
	if cfg.Resolver.Workers != 8 {
		t.Fatalf("expected 8 workers, got %d", cfg.Resolver.Workers)
	}
	if !slices.Equal(cfg.Library.VideoExtensions, []string{"mkv", "mp4"}) {
		t.Fatalf("expected normalized extensions, got %v", cfg.Library.VideoExtensions)
	}
}

func TestEnvVarFillsMissingAPIKeyOnly(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "reelname.toml")
	if err := os.WriteFile(configPath, []byte("[tmdb]\napi_key = \"file-key\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TMDB_API_KEY", "env-key")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TMDB.APIKey != "file-key" {
		t.Fatalf("expected file key to win, got %q", cfg.TMDB.APIKey)
	}
}

func TestValidateTMDBRequiresKey(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("HOME", t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	err = cfg.ValidateTMDB()
	if err == nil {
		t.Fatal("expected missing key error")
	}
	if !strings.Contains(err.Error(), "tmdb.api_key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"unsupported language", "[tmdb]\nlanguage = \"it\"\n", "tmdb.language"},
		{"unknown key", "[tmdb]\napi_kee = \"typo\"\n", "api_kee"},
		{"bad format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"bad level", "[logging]\nlevel = \"trace\"\n", "logging.level"},
		{"pattern without title", "[library]\nnaming_pattern = \"{year}\"\n", "library.naming_pattern"},
		{"too many workers", "[resolver]\nworkers = 1000\n", "resolver.workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "reelname.toml")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Resolver.Workers != config.Default().Resolver.Workers {
		t.Fatalf("unexpected workers from sample: %d", cfg.Resolver.Workers)
	}
}

func TestExpandPathHandlesTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandPath("~/media")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if got != filepath.Join(home, "media") {
		t.Fatalf("unexpected expansion: %q", got)
	}
}
