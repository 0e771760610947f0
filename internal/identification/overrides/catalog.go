package overrides

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"reelname/internal/identification"
	"reelname/internal/logging"
)

// Catalog persists user-chosen matches keyed by resolution cache key.
// Writes hold an exclusive lock on "<file>.lock" so concurrent CLI
// invocations do not lose updates.
type Catalog struct {
	path    string
	logger  *slog.Logger
	lock    *flock.Flock
	mu      sync.RWMutex
	loaded  time.Time
	entries []Entry
	now     func() time.Time
}

// Entry pins a cache key to a TMDB result.
type Entry struct {
	Key         string    `json:"key"`
	RawName     string    `json:"raw_name"`
	IsDir       bool      `json:"is_dir,omitempty"`
	TMDBID      int64     `json:"tmdb_id"`
	Title       string    `json:"title"`
	ReleaseYear int       `json:"release_year,omitempty"`
	Popularity  float64   `json:"popularity,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Result converts the entry to the provider result registered with the
// override gateway.
func (e Entry) Result() identification.ProviderResult {
	return identification.ProviderResult{
		ID:          e.TMDBID,
		Title:       e.Title,
		ReleaseYear: e.ReleaseYear,
		Popularity:  e.Popularity,
	}
}

// NewCatalog constructs a catalog backed by the provided JSON file.
func NewCatalog(path string, logger *slog.Logger) *Catalog {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil
	}
	return &Catalog{
		path:   trimmed,
		logger: logging.NewComponentLogger(logger, "overrides"),
		lock:   flock.New(trimmed + ".lock"),
		now:    time.Now,
	}
}

// Path returns the catalog file location.
func (c *Catalog) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// List returns all entries sorted by key. A missing file is an empty catalog.
func (c *Catalog) List() ([]Entry, error) {
	if c == nil {
		return nil, nil
	}
	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Entry(nil), c.entries...), nil
}

// Lookup returns the entry for key.
func (c *Catalog) Lookup(key string) (Entry, bool, error) {
	if c == nil {
		return Entry{}, false, nil
	}
	if err := c.ensureLoaded(); err != nil {
		return Entry{}, false, err
	}
	key = normalizeKey(key)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, entry := range c.entries {
		if entry.Key == key {
			return entry, true, nil
		}
	}
	return Entry{}, false, nil
}

// Put inserts or replaces the entry for entry.Key.
func (c *Catalog) Put(entry Entry) error {
	if c == nil {
		return errors.New("override catalog path not configured")
	}
	entry.normalize()
	if entry.Key == "" {
		return errors.New("override key must not be empty")
	}
	if entry.TMDBID <= 0 {
		return fmt.Errorf("override %q: tmdb id must be positive", entry.Key)
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = c.now().UTC()
	}
	return c.update(func(entries []Entry) ([]Entry, bool) {
		for i := range entries {
			if entries[i].Key == entry.Key {
				entries[i] = entry
				return entries, true
			}
		}
		return append(entries, entry), true
	})
}

// Remove deletes the entry for key and reports whether one existed.
func (c *Catalog) Remove(key string) (bool, error) {
	if c == nil {
		return false, nil
	}
	key = normalizeKey(key)
	removed := false
	err := c.update(func(entries []Entry) ([]Entry, bool) {
		out := entries[:0]
		for _, e := range entries {
			if e.Key == key {
				removed = true
				continue
			}
			out = append(out, e)
		}
		return out, removed
	})
	return removed, err
}

// RegisterAll installs every entry on the gateway and returns the count.
func (c *Catalog) RegisterAll(gateway *identification.OverrideGateway) (int, error) {
	entries, err := c.List()
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		gateway.Register(entry.Key, entry.Result())
	}
	return len(entries), nil
}

// update re-reads the file under the exclusive lock, applies fn, and writes
// the result back atomically when fn reports a change.
func (c *Catalog) update(fn func([]Entry) ([]Entry, bool)) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create override dir: %w", err)
	}
	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("lock override catalog: %w", err)
	}
	defer func() {
		if err := c.lock.Unlock(); err != nil {
			logging.WarnWithContext(c.logger, "failed to release override lock", "override_unlock_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "later writers may block until this process exits"),
			)
		}
	}()

	entries, err := readFile(c.path)
	if err != nil {
		return err
	}
	entries, changed := fn(entries)
	if !changed {
		return nil
	}
	sortEntries(entries)
	if err := writeFile(c.path, entries); err != nil {
		return err
	}

	info, err := os.Stat(c.path)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries = entries
	c.loaded = info.ModTime()
	c.mu.Unlock()
	c.logger.Debug("override catalog written", slog.String("path", c.path), slog.Int("count", len(entries)))
	return nil
}

func (c *Catalog) ensureLoaded() error {
	info, err := os.Stat(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.mu.Lock()
			c.entries, c.loaded = nil, time.Time{}
			c.mu.Unlock()
			return nil
		}
		return err
	}

	c.mu.RLock()
	alreadyLoaded := !c.loaded.IsZero() && c.loaded.Equal(info.ModTime())
	c.mu.RUnlock()
	if alreadyLoaded {
		return nil
	}

	entries, err := readFile(c.path)
	if err != nil {
		return err
	}
	sortEntries(entries)

	c.mu.Lock()
	c.entries = entries
	c.loaded = info.ModTime()
	c.mu.Unlock()
	c.logger.Info("loaded title overrides", slog.String("path", c.path), slog.Int("count", len(entries)))
	return nil
}

func readFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	entries, err := parseOverrides(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return entries, nil
}

func writeFile(path string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode overrides: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".overrides-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write overrides: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync overrides: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close overrides: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace overrides: %w", err)
	}
	return nil
}

func parseOverrides(data []byte) ([]Entry, error) {
	data = bytesTrimSpace(bytesTrimUTF8BOM(data))
	if len(data) == 0 {
		return nil, nil
	}
	var entries []Entry
	// Accept either array or object with overrides field.
	if data[0] == '{' {
		var wrapper struct {
			Overrides []Entry `json:"overrides"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, err
		}
		entries = wrapper.Overrides
	} else {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, err
		}
	}
	normalized := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		entry.normalize()
		if entry.Key == "" || entry.TMDBID <= 0 {
			continue
		}
		normalized = append(normalized, entry)
	}
	return normalized, nil
}

func (e *Entry) normalize() {
	e.Key = normalizeKey(e.Key)
	e.RawName = strings.TrimSpace(e.RawName)
	e.Title = strings.TrimSpace(e.Title)
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.Join(strings.Fields(key), " "))
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
}

func bytesTrimUTF8BOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

func bytesTrimSpace(data []byte) []byte {
	start := 0
	for start < len(data) && (data[start] == ' ' || data[start] == '\n' || data[start] == '\t' || data[start] == '\r') {
		start++
	}
	end := len(data)
	for end > start && (data[end-1] == ' ' || data[end-1] == '\n' || data[end-1] == '\t' || data[end-1] == '\r') {
		end--
	}
	return data[start:end]
}
