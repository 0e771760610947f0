package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"reelname/internal/config"
	"reelname/internal/testsupport"
)

type fakeTMDB struct {
	server *httptest.Server

	mu       sync.Mutex
	search   map[string][]map[string]any
	movies   map[int64]map[string]any
	status   int
	searches int
}

func newFakeTMDB(t *testing.T) *fakeTMDB {
	t.Helper()
	f := &fakeTMDB{
		search: make(map[string][]map[string]any),
		movies: make(map[int64]map[string]any),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeTMDB) addMovie(id int64, title, releaseDate string, queries ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	movie := map[string]any{
		"id":           id,
		"title":        title,
		"release_date": releaseDate,
		"popularity":   10.0,
	}
	f.movies[id] = movie
	for _, q := range queries {
		f.search[strings.ToLower(q)] = append(f.search[strings.ToLower(q)], movie)
	}
}

func (f *fakeTMDB) setRating(id int64, rating float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if movie, ok := f.movies[id]; ok {
		movie["vote_average"] = rating
	}
}

func (f *fakeTMDB) failWith(status int) {
	f.mu.Lock()
	f.status = status
	f.mu.Unlock()
}

func (f *fakeTMDB) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searches
}

func (f *fakeTMDB) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"status_message":"fake failure"}`))
		return
	}
	switch {
	case r.URL.Path == "/search/movie":
		f.searches++
		results := f.search[strings.ToLower(r.URL.Query().Get("query"))]
		if results == nil {
			results = []map[string]any{}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"page":          1,
			"results":       results,
			"total_pages":   1,
			"total_results": len(results),
		})
	case strings.HasPrefix(r.URL.Path, "/movie/"):
		var id int64
		_, _ = fmt.Sscanf(strings.TrimPrefix(r.URL.Path, "/movie/"), "%d", &id)
		movie, ok := f.movies[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status_message":"The resource you requested could not be found."}`))
			return
		}
		_ = json.NewEncoder(w).Encode(movie)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type cliTestEnv struct {
	cfg        *config.Config
	tmdb       *fakeTMDB
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("TMDB_API_KEY", "")

	tmdb := newFakeTMDB(t)
	cfg := testsupport.NewConfig(t, testsupport.WithTMDBBaseURL(tmdb.server.URL))

	configPath := filepath.Join(homeDir, ".config", "reelname", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		tmdb:       tmdb,
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[tmdb]
api_key = %q
base_url = %q
language = %q

[resolver]
workers = 2
rate_limit_millis = 0
max_rate_retries = 0

[paths]
overrides_file = %q
history_db = %q
log_dir = %q

[logging]
level = "error"
`,
		cfg.TMDB.APIKey,
		cfg.TMDB.BaseURL,
		cfg.TMDB.Language,
		cfg.Paths.OverridesFile,
		cfg.Paths.HistoryDB,
		cfg.Paths.LogDir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\nOutput:\n%s", needle, haystack)
	}
}
