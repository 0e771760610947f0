package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"reelname/internal/batch"
	"reelname/internal/identification"
	"reelname/internal/services"
)

// Run is a recorded batch summary.
type Run struct {
	ID       string       `json:"id"`
	Root     string       `json:"root,omitempty"`
	Started  time.Time    `json:"started"`
	Finished time.Time    `json:"finished"`
	Counts   batch.Counts `json:"counts"`
}

// RunItem is one recorded item outcome.
type RunItem struct {
	Position     int    `json:"position"`
	RawName      string `json:"raw_name"`
	IsDir        bool   `json:"is_dir,omitempty"`
	Title        string `json:"title"`
	Year         int    `json:"year,omitempty"`
	Outcome      string `json:"outcome"`
	TMDBID       int64  `json:"tmdb_id,omitempty"`
	MatchedTitle string `json:"matched_title,omitempty"`
	MatchedYear  int    `json:"matched_year,omitempty"`
	MatchedQuery string `json:"matched_query,omitempty"`
	ProposedName string `json:"proposed_name,omitempty"`
	Error        string `json:"error,omitempty"`
}

var _ batch.Recorder = (*Store)(nil)

// Record stores a finished report and its items in one transaction.
func (s *Store) Record(ctx context.Context, report batch.Report) error {
	counts := report.Counts()
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin record tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (id, root, started_at, finished_at, found, not_found, unavailable, cancelled)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			report.ID, report.Root, formatTime(report.Started), formatTime(report.Finished),
			counts.Found, counts.NotFound, counts.Unavailable, counts.Cancelled,
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO run_items (run_id, position, raw_name, is_dir, title, year, outcome,
                tmdb_id, matched_title, matched_year, matched_query, proposed_name, error_message)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare item insert: %w", err)
		}
		defer stmt.Close()

		for i, item := range report.Items {
			row := toRunItem(i, item)
			if _, err := stmt.ExecContext(ctx,
				report.ID, row.Position, row.RawName, boolToInt(row.IsDir), row.Title, nullInt(int64(row.Year)),
				row.Outcome, nullInt(row.TMDBID), nullString(row.MatchedTitle), nullInt(int64(row.MatchedYear)),
				nullString(row.MatchedQuery), nullString(row.ProposedName), nullString(row.Error),
			); err != nil {
				return fmt.Errorf("insert run item %d: %w", i, err)
			}
		}
		return tx.Commit()
	})
}

func toRunItem(position int, item batch.ItemResult) RunItem {
	row := RunItem{
		Position:     position,
		RawName:      item.Item.Name,
		IsDir:        item.Item.IsDir,
		Title:        item.Candidate.Title,
		Year:         item.Candidate.Year,
		Outcome:      string(item.Outcome),
		ProposedName: item.ProposedName,
		Error:        item.Error,
	}
	if item.Match.Found() {
		row.TMDBID = item.Match.Result.ID
		row.MatchedTitle = item.Match.Result.Title
		row.MatchedYear = item.Match.Result.ReleaseYear
		row.MatchedQuery = queryLabel(item.Match.Query)
	}
	return row
}

func queryLabel(q *identification.SearchQuery) string {
	if q == nil {
		return ""
	}
	return q.String()
}

// ListRuns returns the most recent runs first. A non-positive limit
// returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, root, started_at, finished_at, found, not_found, unavailable, cancelled
              FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns the run whose ID equals or starts with idPrefix. An
// ambiguous prefix is a validation error.
func (s *Store) GetRun(ctx context.Context, idPrefix string) (*Run, error) {
	idPrefix = strings.TrimSpace(idPrefix)
	if idPrefix == "" {
		return nil, services.Wrap(services.ErrValidation, "history", "get run", "run id required", nil)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, root, started_at, finished_at, found, not_found, unavailable, cancelled
         FROM runs WHERE id = ? OR id LIKE ? ORDER BY id LIMIT 2`,
		idPrefix, stripLikeWildcards(idPrefix)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		if run.ID == idPrefix {
			return &run, nil
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, services.Wrap(services.ErrNotFound, "history", "get run", "no run matches "+idPrefix, nil)
	case 1:
		return &matches[0], nil
	default:
		return nil, services.Wrap(services.ErrValidation, "history", "get run", "run id prefix "+idPrefix+" is ambiguous", nil)
	}
}

// RunItems returns the items recorded for runID in input order.
func (s *Store) RunItems(ctx context.Context, runID string) ([]RunItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, raw_name, is_dir, title, year, outcome, tmdb_id, matched_title,
                matched_year, matched_query, proposed_name, error_message
         FROM run_items WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run items: %w", err)
	}
	defer rows.Close()

	var items []RunItem
	for rows.Next() {
		var (
			item         RunItem
			isDir        int
			title        sql.NullString
			year         sql.NullInt64
			tmdbID       sql.NullInt64
			matchedTitle sql.NullString
			matchedYear  sql.NullInt64
			matchedQuery sql.NullString
			proposed     sql.NullString
			errMsg       sql.NullString
		)
		if err := rows.Scan(&item.Position, &item.RawName, &isDir, &title, &year, &item.Outcome,
			&tmdbID, &matchedTitle, &matchedYear, &matchedQuery, &proposed, &errMsg); err != nil {
			return nil, fmt.Errorf("scan run item: %w", err)
		}
		item.IsDir = isDir != 0
		item.Title = title.String
		item.Year = int(year.Int64)
		item.TMDBID = tmdbID.Int64
		item.MatchedTitle = matchedTitle.String
		item.MatchedYear = int(matchedYear.Int64)
		item.MatchedQuery = matchedQuery.String
		item.ProposedName = proposed.String
		item.Error = errMsg.String
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run                 Run
		root                sql.NullString
		startedRaw, doneRaw sql.NullString
	)
	if err := scanner.Scan(&run.ID, &root, &startedRaw, &doneRaw,
		&run.Counts.Found, &run.Counts.NotFound, &run.Counts.Unavailable, &run.Counts.Cancelled); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Root = root.String
	run.Started = parseTime(startedRaw)
	run.Finished = parseTime(doneRaw)
	return run, nil
}

func stripLikeWildcards(value string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(value)
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
