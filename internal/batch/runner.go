package batch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"reelname/internal/identification"
	"reelname/internal/logging"
	"reelname/internal/services"
	"reelname/internal/textutil"
)

const defaultWorkers = 4

// Resolver resolves raw names; *identification.Engine satisfies it.
type Resolver interface {
	ResolveName(ctx context.Context, raw string, isDir bool) (identification.Candidate, identification.Match, error)
}

// Recorder persists finished reports.
type Recorder interface {
	Record(ctx context.Context, report Report) error
}

// Runner resolves items on a bounded worker pool.
type Runner struct {
	Resolver Resolver
	Workers  int
	// NamingPattern renders ProposedName for found items.
	NamingPattern string
	Logger        *slog.Logger
	Recorder      Recorder
	// Progress, when set, is called from the worker goroutines after each
	// item completes.
	Progress func(done, total int, result ItemResult)
}

// Run resolves items and returns the report. The returned error is non-nil
// only when the recorder fails; cancellation yields a partial report whose
// unresolved items are marked cancelled.
func (r *Runner) Run(ctx context.Context, root string, items []Item) (Report, error) {
	report := Report{
		ID:      uuid.NewString(),
		Root:    root,
		Started: time.Now().UTC(),
		Items:   make([]ItemResult, len(items)),
	}
	for i, item := range items {
		report.Items[i] = ItemResult{Item: item, Outcome: OutcomeCancelled}
	}

	ctx = services.WithBatchID(ctx, report.ID)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(r.Logger, "batch"))
	workers := r.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	workers = min(workers, max(len(items), 1))
	logger.Info("batch started",
		logging.String("root", root),
		logging.Int("items", len(items)),
		logging.Int("workers", workers),
	)

	jobs := make(chan int)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		finished int
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				result := r.resolveOne(ctx, items[idx])
				mu.Lock()
				report.Items[idx] = result
				finished++
				done := finished
				mu.Unlock()
				if r.Progress != nil {
					r.Progress(done, len(items), result)
				}
			}
		}()
	}

dispatch:
	for idx := range items {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()
	report.Finished = time.Now().UTC()

	counts := report.Counts()
	attrs := []logging.Attr{
		logging.Int("found", counts.Found),
		logging.Int("not_found", counts.NotFound),
		logging.Int("unavailable", counts.Unavailable),
		logging.Int("cancelled", counts.Cancelled),
		logging.Duration("duration", report.Duration()),
	}
	if ctx.Err() != nil {
		logging.WarnWithContext(logger, "batch cancelled", "batch_cancelled",
			append(attrs,
				logging.String(logging.FieldErrorHint, "rerun the scan to resolve the remaining items"),
				logging.String(logging.FieldImpact, "unresolved items reported as cancelled"),
			)...)
	} else {
		logger.Info("batch finished", logging.Args(attrs...)...)
	}

	if r.Recorder != nil {
		// The run is recorded even when the batch was cancelled.
		if err := r.Recorder.Record(context.WithoutCancel(ctx), report); err != nil {
			return report, services.Wrap(services.ErrTransient, "batch", "record", "failed to record batch history", err)
		}
	}
	return report, nil
}

func (r *Runner) resolveOne(ctx context.Context, item Item) ItemResult {
	result := ItemResult{Item: item, Outcome: OutcomeCancelled}
	if ctx.Err() != nil {
		return result
	}
	itemCtx := services.WithItem(ctx, item.Name)
	start := time.Now()
	candidate, match, err := r.Resolver.ResolveName(itemCtx, item.Name, item.IsDir)
	result.Duration = time.Since(start)
	result.Candidate = candidate
	result.Match = match

	switch {
	case err != nil && (services.IsCancellation(err) || (errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil)):
		result.Outcome = OutcomeCancelled
	case err != nil:
		result.Outcome = OutcomeUnavailable
		result.Error = err.Error()
	case match.Found():
		result.Outcome = OutcomeFound
		result.ProposedName = ProposedName(r.NamingPattern, item, match)
	default:
		result.Outcome = OutcomeNotFound
	}
	return result
}

// ProposedName renders the new name for a found item. File extensions are
// appended unless the pattern places {ext} itself.
func ProposedName(pattern string, item Item, match identification.Match) string {
	if !match.Found() {
		return ""
	}
	ext := ""
	if !item.IsDir {
		ext = strings.TrimPrefix(filepath.Ext(item.Name), ".")
	}
	name := textutil.RenderName(pattern, match.Result.Title, match.Result.ReleaseYear, ext)
	if name == "" || ext == "" || strings.Contains(pattern, "{ext}") {
		return name
	}
	return name + "." + strings.ToLower(ext)
}
