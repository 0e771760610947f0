package overrides

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"reelname/internal/identification"
)

func TestParseOverridesAcceptsWrapperAndNormalizes(t *testing.T) {
	data := []byte("\xEF\xBB\xBF\n { \"overrides\": [{\"key\":\" The  Dark Knight|2008 \",\"title\":\" The Dark Knight \",\"tmdb_id\":155}, {\"key\":\"\",\"tmdb_id\":1}]}")
	entries, err := parseOverrides(data)
	if err != nil {
		t.Fatalf("parseOverrides failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Key != "the dark knight|2008" {
		t.Fatalf("expected key normalized, got %q", entry.Key)
	}
	if entry.Title != "The Dark Knight" {
		t.Fatalf("expected title trimmed, got %q", entry.Title)
	}
}

func TestParseOverridesEmptyFile(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("  \n"), []byte("\xEF\xBB\xBF")} {
		entries, err := parseOverrides(data)
		if err != nil || len(entries) != 0 {
			t.Fatalf("expected empty catalog, got %v %v", entries, err)
		}
	}
}

func TestCatalogPutLookupRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "overrides.json")
	catalog := NewCatalog(path, nil)
	catalog.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	if entries, err := catalog.List(); err != nil || len(entries) != 0 {
		t.Fatalf("missing file should be empty, got %v %v", entries, err)
	}
	if err := catalog.Put(Entry{Key: "heat|1995", RawName: "Heat.1995.mkv", TMDBID: 949, Title: "Heat", ReleaseYear: 1995}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := catalog.Put(Entry{Key: "alien|1979", TMDBID: 348, Title: "Alien", ReleaseYear: 1979}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := catalog.Put(Entry{Key: "Heat|1995", TMDBID: 950, Title: "Heat (Remake)"}); err != nil {
		t.Fatalf("Put replace: %v", err)
	}

	reopened := NewCatalog(path, nil)
	entries, err := reopened.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 || entries[0].Key != "alien|1979" || entries[1].TMDBID != 950 {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if !entries[0].UpdatedAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Fatalf("expected updated_at stamped, got %v", entries[0].UpdatedAt)
	}

	entry, ok, err := reopened.Lookup("HEAT|1995")
	if err != nil || !ok || entry.Title != "Heat (Remake)" {
		t.Fatalf("unexpected lookup %+v %v %v", entry, ok, err)
	}

	removed, err := reopened.Remove("heat|1995")
	if err != nil || !removed {
		t.Fatalf("Remove: removed=%v err=%v", removed, err)
	}
	if removed, _ := reopened.Remove("heat|1995"); removed {
		t.Fatal("second remove should report nothing removed")
	}
	if _, ok, _ := NewCatalog(path, nil).Lookup("heat|1995"); ok {
		t.Fatal("removed entry still present on disk")
	}
	if _, err := os.Stat(path + ".lock"); err != nil {
		t.Fatalf("expected lock file: %v", err)
	}
}

func TestCatalogPutValidates(t *testing.T) {
	catalog := NewCatalog(filepath.Join(t.TempDir(), "overrides.json"), nil)
	if err := catalog.Put(Entry{Key: " ", TMDBID: 1}); err == nil {
		t.Fatal("expected error for empty key")
	}
	if err := catalog.Put(Entry{Key: "heat|", TMDBID: 0}); err == nil {
		t.Fatal("expected error for missing tmdb id")
	}
	if NewCatalog("  ", nil) != nil {
		t.Fatal("expected nil catalog for empty path")
	}
}

func TestCatalogConcurrentPutsAreNotLost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.json")
	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			catalog := NewCatalog(path, nil)
			key := "movie " + string(rune('a'+id)) + "|"
			if err := catalog.Put(Entry{Key: key, TMDBID: int64(id), Title: "Movie"}); err != nil {
				t.Errorf("Put %d: %v", id, err)
			}
		}(i)
	}
	wg.Wait()
	entries, err := NewCatalog(path, nil).List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 8 {
		t.Fatalf("expected 8 entries, got %d", len(entries))
	}
}

func TestRegisterAllInstallsOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.json")
	data := []byte(`[{"key":"heat|1995","title":"Heat","tmdb_id":949,"release_year":1995}]`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write overrides: %v", err)
	}
	cache := identification.NewCache()
	n, err := NewCatalog(path, nil).RegisterAll(cache.Overrides())
	if err != nil || n != 1 {
		t.Fatalf("RegisterAll: n=%d err=%v", n, err)
	}
	match, ok := cache.Get("heat|1995")
	if !ok || !match.Manual() || match.Result.ID != 949 {
		t.Fatalf("expected override in cache, got %+v", match)
	}
}
