package batch_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"reelname/internal/batch"
	"reelname/internal/identification"
	"reelname/internal/testsupport"
)

func TestDiscoverFiltersByExtension(t *testing.T) {
	root := t.TempDir()
	testsupport.TouchFiles(t, root,
		"Heat.1995.1080p.mkv",
		"Alien.1979.MP4",
		"notes.txt",
		".hidden.mkv",
		".cache/Inside.2014.mkv",
		"Collection/Rocky.IV.1985.avi",
		"Empty Folder/",
	)

	items, err := batch.Discover(root, []string{"mkv", ".mp4", "avi"}, false)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{"Alien.1979.MP4", "Rocky.IV.1985.avi", "Heat.1995.1080p.mkv"}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %+v", len(want), items)
	}
	got := map[string]bool{}
	for _, item := range items {
		if item.IsDir {
			t.Fatalf("unexpected dir item %+v", item)
		}
		got[item.Name] = true
	}
	for _, name := range want {
		if !got[name] {
			t.Fatalf("missing %s in %+v", name, items)
		}
	}
	for i := 1; i < len(items); i++ {
		if items[i-1].Path > items[i].Path {
			t.Fatalf("items not sorted: %+v", items)
		}
	}

	withDirs, err := batch.Discover(root, []string{"mkv"}, true)
	if err != nil {
		t.Fatalf("Discover with dirs: %v", err)
	}
	dirs := 0
	for _, item := range withDirs {
		if item.IsDir {
			dirs++
		}
	}
	if dirs != 2 {
		t.Fatalf("expected 2 top-level folders, got %+v", withDirs)
	}
}

func TestDiscoverRejectsMissingRoot(t *testing.T) {
	if _, err := batch.Discover(filepath.Join(t.TempDir(), "missing"), []string{"mkv"}, false); err == nil {
		t.Fatal("expected error for missing root")
	}
}

type recorder struct {
	mu      sync.Mutex
	reports []batch.Report
}

func (r *recorder) Record(_ context.Context, report batch.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
	return nil
}

func TestRunnerResolvesInInputOrder(t *testing.T) {
	provider := testsupport.NewFakeProvider().
		Add("Heat", 1995, identification.ProviderResult{ID: 949, Title: "Heat", ReleaseYear: 1995}).
		FailQuery("Alien", 1979, errors.New("boom")).
		FailQuery("Alien", 0, errors.New("boom"))
	engine := identification.NewEngine(nil, provider, nil, identification.Options{})
	rec := &recorder{}
	var progressed atomic.Int32
	runner := &batch.Runner{
		Resolver:      engine,
		Workers:       3,
		NamingPattern: "{title} ({year})",
		Recorder:      rec,
		Progress:      func(done, total int, _ batch.ItemResult) { progressed.Add(1) },
	}
	items := batch.ItemsFromNames([]string{
		"Heat.1995.1080p.BluRay.mkv",
		"Unknown.Movie.2001.mkv",
		"Alien.1979.mkv",
		"heat (1995).mkv",
	}, false)

	report, err := runner.Run(context.Background(), "", items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.ID == "" || len(report.Items) != 4 {
		t.Fatalf("unexpected report %+v", report)
	}
	wantOutcomes := []batch.Outcome{batch.OutcomeFound, batch.OutcomeNotFound, batch.OutcomeUnavailable, batch.OutcomeFound}
	for i, want := range wantOutcomes {
		if got := report.Items[i].Outcome; got != want {
			t.Fatalf("item %d (%s): outcome %s, want %s", i, items[i].Name, got, want)
		}
	}
	if got := report.Items[0].ProposedName; got != "Heat (1995).mkv" {
		t.Fatalf("unexpected proposed name %q", got)
	}
	if report.Items[2].Error == "" {
		t.Fatal("expected error text for unavailable item")
	}
	counts := report.Counts()
	if counts.Found != 2 || counts.NotFound != 1 || counts.Unavailable != 1 || counts.Total() != 4 {
		t.Fatalf("unexpected counts %+v", counts)
	}
	if len(rec.reports) != 1 || rec.reports[0].ID != report.ID {
		t.Fatalf("expected report to be recorded, got %d", len(rec.reports))
	}
	if progressed.Load() != 4 {
		t.Fatalf("expected 4 progress callbacks, got %d", progressed.Load())
	}
}

func TestRunnerCancellationMarksRemainingItems(t *testing.T) {
	provider := testsupport.NewFakeProvider().Hold()
	engine := identification.NewEngine(nil, provider, nil, identification.Options{})
	runner := &batch.Runner{Resolver: engine, Workers: 1}
	items := batch.ItemsFromNames([]string{"Heat.1995.mkv", "Alien.1979.mkv", "Inception.2010.mkv"}, false)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-provider.Started():
		case <-time.After(2 * time.Second):
		}
		cancel()
	}()
	report, err := runner.Run(ctx, "", items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	counts := report.Counts()
	if counts.Cancelled != 3 {
		t.Fatalf("expected all items cancelled, got %+v", counts)
	}
}

func TestProposedNameForFolders(t *testing.T) {
	match := identification.Match{
		Outcome: identification.OutcomeFound,
		Result:  &identification.ProviderResult{ID: 1, Title: "Alien: Covenant", ReleaseYear: 2017},
	}
	if got := batch.ProposedName("", batch.Item{Name: "alien covenant 2017", IsDir: true}, match); got != "Alien - Covenant (2017)" {
		t.Fatalf("unexpected folder name %q", got)
	}
	if got := batch.ProposedName("{title}.{ext}", batch.Item{Name: "x.MKV"}, match); got != "Alien - Covenant.MKV" {
		t.Fatalf("unexpected pattern name %q", got)
	}
	if got := batch.ProposedName("", batch.Item{Name: "x.mkv"}, identification.Match{Outcome: identification.OutcomeNotFound}); got != "" {
		t.Fatalf("expected empty name for not found, got %q", got)
	}
}
