package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"reelname/internal/batch"
	"reelname/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded scan runs",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))

	return historyCmd
}

func (c *commandContext) openHistory() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return history.Open(cfg.Paths.HistoryDB)
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				if runs == nil {
					runs = []history.Run{}
				}
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No recorded runs")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					run.Started.Local().Format("2006-01-02 15:04:05"),
					run.Root,
					strconv.Itoa(run.Counts.Found),
					strconv.Itoa(run.Counts.NotFound),
					strconv.Itoa(run.Counts.Unavailable + run.Counts.Cancelled),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Started", "Root", "Found", "Missing", "Failed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

type runDetail struct {
	history.Run
	Items []history.RunItem `json:"items"`
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the items of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			items, err := store.RunItems(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, runDetail{Run: *run, Items: items})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run:      %s\n", run.ID)
			fmt.Fprintf(out, "Root:     %s\n", run.Root)
			fmt.Fprintf(out, "Started:  %s\n", run.Started.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Duration: %s\n", run.Finished.Sub(run.Started).Round(time.Millisecond))
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				tmdbID := ""
				if item.TMDBID > 0 {
					tmdbID = strconv.FormatInt(item.TMDBID, 10)
				}
				rows = append(rows, []string{
					item.RawName,
					outcomeLabel(batch.Outcome(item.Outcome), colorize),
					tmdbID,
					item.MatchedQuery,
					item.ProposedName,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Outcome", "TMDB", "Query", "Proposed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
