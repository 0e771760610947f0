package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelname/internal/identification"
	"reelname/internal/identification/overrides"
)

func newOverrideCommand(ctx *commandContext) *cobra.Command {
	overrideCmd := &cobra.Command{
		Use:   "override",
		Short: "Manage manual TMDB matches",
	}

	overrideCmd.AddCommand(newOverrideSearchCommand(ctx))
	overrideCmd.AddCommand(newOverrideSetCommand(ctx))
	overrideCmd.AddCommand(newOverrideListCommand(ctx))
	overrideCmd.AddCommand(newOverrideRemoveCommand(ctx))

	return overrideCmd
}

// searchHit is one pickable TMDB match for a name.
type searchHit struct {
	TMDBID      int64   `json:"tmdb_id"`
	Title       string  `json:"title"`
	ReleaseYear int     `json:"release_year,omitempty"`
	Rating      float64 `json:"rating"`
	Query       string  `json:"query"`
}

func newOverrideSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		asDir    bool
		asJSON   bool
		limit    int
		language string
	)

	cmd := &cobra.Command{
		Use:   "search <name>",
		Short: "List TMDB matches to pick an override from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			sess, err := ctx.newSession(cmd, language)
			if err != nil {
				return err
			}
			_, queries := sess.engine.Plan(args[0], asDir)

			hits := make([]searchHit, 0, limit)
			seen := make(map[int64]struct{})
			for _, q := range queries {
				if len(hits) >= limit {
					break
				}
				results, err := sess.provider.Search(cmd.Context(), q, sess.locale)
				if err != nil {
					return fmt.Errorf("search tmdb for %q: %w", q.Text, err)
				}
				for _, r := range results {
					if _, dup := seen[r.ID]; dup || len(hits) >= limit {
						continue
					}
					seen[r.ID] = struct{}{}
					hits = append(hits, searchHit{
						TMDBID:      r.ID,
						Title:       r.Title,
						ReleaseYear: r.ReleaseYear,
						Rating:      voteAverage(r.RawPayload),
						Query:       queryLabel(q),
					})
				}
			}

			if asJSON {
				return writeJSON(cmd, hits)
			}
			out := cmd.OutOrStdout()
			if len(hits) == 0 {
				fmt.Fprintf(out, "No TMDB results for %q\n", args[0])
				return nil
			}
			rows := make([][]string, 0, len(hits))
			for i, hit := range hits {
				year := "N/A"
				if hit.ReleaseYear > 0 {
					year = strconv.Itoa(hit.ReleaseYear)
				}
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					strconv.FormatInt(hit.TMDBID, 10),
					hit.Title,
					year,
					strconv.FormatFloat(hit.Rating, 'f', 1, 64) + "/10",
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "TMDB", "Title", "Year", "Rating"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignRight},
			))
			fmt.Fprintf(out, "Pin one with: reelname override set %q --tmdb-id <id>\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&asDir, "dir", false, "Treat the name as a folder name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of matches to list")
	cmd.Flags().StringVar(&language, "language", "", "Override the TMDB search language")
	return cmd
}

func queryLabel(q identification.SearchQuery) string {
	if q.Year > 0 {
		return q.Text + " (" + strconv.Itoa(q.Year) + ")"
	}
	return q.Text
}

// voteAverage reads TMDB's rating from a raw search record.
func voteAverage(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var record struct {
		VoteAverage float64 `json:"vote_average"`
	}
	if err := json.Unmarshal(raw, &record); err != nil {
		return 0
	}
	return record.VoteAverage
}

func newOverrideSetCommand(ctx *commandContext) *cobra.Command {
	var (
		tmdbID   int64
		asDir    bool
		language string
	)

	cmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Pin a file or folder name to a TMDB movie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tmdbID <= 0 {
				return fmt.Errorf("--tmdb-id must be a positive TMDB movie id")
			}
			sess, err := ctx.newSession(cmd, language)
			if err != nil {
				return err
			}
			if sess.catalog == nil {
				return fmt.Errorf("paths.overrides_file is not configured")
			}
			chosen, err := sess.provider.Lookup(cmd.Context(), tmdbID, sess.locale)
			if err != nil {
				return fmt.Errorf("look up tmdb id %d: %w", tmdbID, err)
			}

			key := sess.engine.Register(args[0], asDir, chosen)
			entry := overrides.Entry{
				Key:         key,
				RawName:     args[0],
				IsDir:       asDir,
				TMDBID:      chosen.ID,
				Title:       chosen.Title,
				ReleaseYear: chosen.ReleaseYear,
				Popularity:  chosen.Popularity,
			}
			if err := sess.catalog.Put(entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pinned %q to %s [tmdb %d]\n", key, resultLabel(chosen), chosen.ID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&tmdbID, "tmdb-id", 0, "TMDB movie id to pin")
	cmd.Flags().BoolVar(&asDir, "dir", false, "Treat the name as a folder name")
	cmd.Flags().StringVar(&language, "language", "", "Override the TMDB lookup language")
	_ = cmd.MarkFlagRequired("tmdb-id")
	return cmd
}

func newOverrideListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List manual matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, err := ctx.catalog(cfg, nil).List()
			if err != nil {
				return err
			}
			if asJSON {
				if entries == nil {
					entries = []overrides.Entry{}
				}
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No overrides")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.Key,
					strconv.FormatInt(entry.TMDBID, 10),
					resultLabel(entry.Result()),
					entry.UpdatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Key", "TMDB", "Title", "Updated"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newOverrideRemoveCommand(ctx *commandContext) *cobra.Command {
	var asDir bool

	cmd := &cobra.Command{
		Use:   "remove <name|key>",
		Short: "Remove a manual match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			key := args[0]
			if !strings.Contains(key, "|") {
				key = identification.CacheKey(identification.Expand(ctx.normalizer(cfg).NormalizeName(key, asDir)))
			}
			removed, err := ctx.catalog(cfg, nil).Remove(key)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("no override for %q", key)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed override %q\n", key)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asDir, "dir", false, "Treat the name as a folder name")
	return cmd
}

func resultLabel(r identification.ProviderResult) string {
	if r.ReleaseYear > 0 {
		return r.Title + " (" + strconv.Itoa(r.ReleaseYear) + ")"
	}
	return r.Title
}
