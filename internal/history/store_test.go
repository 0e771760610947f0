package history_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"reelname/internal/batch"
	"reelname/internal/history"
	"reelname/internal/identification"
	"reelname/internal/services"
	"reelname/internal/testsupport"
)

func sampleReport(id string, started time.Time) batch.Report {
	query := identification.SearchQuery{Text: "Heat", Year: 1995, Priority: 1}
	return batch.Report{
		ID:       id,
		Root:     "/library",
		Started:  started,
		Finished: started.Add(2 * time.Second),
		Items: []batch.ItemResult{
			{
				Item:      batch.Item{Path: "/library/Heat.1995.mkv", Name: "Heat.1995.mkv"},
				Candidate: identification.Candidate{Title: "Heat", Year: 1995},
				Match: identification.Match{
					Outcome: identification.OutcomeFound,
					Result:  &identification.ProviderResult{ID: 949, Title: "Heat", ReleaseYear: 1995},
					Query:   &query,
				},
				Outcome:      batch.OutcomeFound,
				ProposedName: "Heat (1995).mkv",
			},
			{
				Item:      batch.Item{Path: "/library/Unknown", Name: "Unknown", IsDir: true},
				Candidate: identification.Candidate{Title: "Unknown"},
				Match:     identification.Match{Outcome: identification.OutcomeNotFound},
				Outcome:   batch.OutcomeNotFound,
			},
			{
				Item:    batch.Item{Path: "/library/Alien.1979.mkv", Name: "Alien.1979.mkv"},
				Outcome: batch.OutcomeUnavailable,
				Error:   "metadata provider unavailable",
			},
		},
	}
}

func TestRecordAndReadBack(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := store.Record(ctx, sampleReport("11111111-aaaa-4000-8000-000000000001", started)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Record(ctx, sampleReport("22222222-bbbb-4000-8000-000000000002", started.Add(time.Hour))); err != nil {
		t.Fatalf("Record second: %v", err)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "22222222-bbbb-4000-8000-000000000002" {
		t.Fatalf("expected newest run first, got %+v", runs)
	}
	if runs[1].Counts.Found != 1 || runs[1].Counts.NotFound != 1 || runs[1].Counts.Unavailable != 1 {
		t.Fatalf("unexpected counts %+v", runs[1].Counts)
	}
	if !runs[1].Started.Equal(started) {
		t.Fatalf("expected started %v, got %v", started, runs[1].Started)
	}
	if limited, _ := store.ListRuns(ctx, 1); len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}

	items, err := store.RunItems(ctx, runs[1].ID)
	if err != nil {
		t.Fatalf("RunItems: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].TMDBID != 949 || items[0].MatchedQuery != "Heat [1995]" || items[0].ProposedName != "Heat (1995).mkv" {
		t.Fatalf("unexpected found item %+v", items[0])
	}
	if !items[1].IsDir || items[1].Outcome != "not_found" || items[1].TMDBID != 0 {
		t.Fatalf("unexpected not found item %+v", items[1])
	}
	if items[2].Error == "" {
		t.Fatalf("expected error text, got %+v", items[2])
	}
}

func TestGetRunByPrefix(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"abc11111", "abc22222", "def33333"} {
		if err := store.Record(ctx, sampleReport(id, started)); err != nil {
			t.Fatalf("Record %s: %v", id, err)
		}
	}

	run, err := store.GetRun(ctx, "def")
	if err != nil || run.ID != "def33333" {
		t.Fatalf("expected prefix match, got %+v %v", run, err)
	}
	if run, err := store.GetRun(ctx, "abc22222"); err != nil || run.ID != "abc22222" {
		t.Fatalf("expected exact match, got %+v %v", run, err)
	}
	if _, err := store.GetRun(ctx, "abc"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ambiguity error, got %v", err)
	}
	if _, err := store.GetRun(ctx, "zzz"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", cfg.Paths.HistoryDB)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := history.Open(cfg.Paths.HistoryDB); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestRunnerRecordsIntoStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	provider := testsupport.NewFakeProvider().
		Add("Heat", 1995, identification.ProviderResult{ID: 949, Title: "Heat", ReleaseYear: 1995})
	runner := &batch.Runner{
		Resolver: identification.NewEngine(nil, provider, nil, identification.Options{}),
		Recorder: store,
	}
	report, err := runner.Run(context.Background(), "", batch.ItemsFromNames([]string{"Heat.1995.mkv"}, false))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	items, err := store.RunItems(context.Background(), report.ID)
	if err != nil || len(items) != 1 || items[0].TMDBID != 949 {
		t.Fatalf("expected recorded item, got %+v %v", items, err)
	}
}
