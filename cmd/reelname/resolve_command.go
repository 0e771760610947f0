package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"reelname/internal/batch"
)

type resolveOptions struct {
	asDir    bool
	json     bool
	language string
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var opts resolveOptions

	cmd := &cobra.Command{
		Use:   "resolve <name>...",
		Short: "Resolve file or folder names to TMDB titles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.newSession(cmd, opts.language)
			if err != nil {
				return err
			}
			runner := &batch.Runner{
				Resolver:      sess.engine,
				Workers:       sess.cfg.Resolver.Workers,
				NamingPattern: sess.cfg.Library.NamingPattern,
				Logger:        sess.logger,
			}
			report, err := runner.Run(cmd.Context(), "", batch.ItemsFromNames(args, opts.asDir))
			if err != nil {
				return err
			}
			return emitReport(cmd, report, opts.json)
		},
	}

	cmd.Flags().BoolVar(&opts.asDir, "dir", false, "Treat names as folder names (no extension stripping)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output JSON")
	cmd.Flags().StringVar(&opts.language, "language", "", "Override the TMDB query language")
	return cmd
}

// emitReport prints the report and converts unresolved outcomes into the
// command's exit status.
func emitReport(cmd *cobra.Command, report batch.Report, asJSON bool) error {
	if asJSON {
		if err := writeJSON(cmd, reportView(report)); err != nil {
			return err
		}
	} else {
		printReport(cmd.OutOrStdout(), report)
	}

	if err := cmd.Context().Err(); err != nil {
		return err
	}
	counts := report.Counts()
	if counts.Unavailable > 0 {
		return fmt.Errorf("%d of %d items could not be resolved because TMDB was unavailable", counts.Unavailable, counts.Total())
	}
	return nil
}

type reportJSON struct {
	batch.Report
	Counts batch.Counts `json:"counts"`
}

func reportView(report batch.Report) reportJSON {
	return reportJSON{Report: report, Counts: report.Counts()}
}

func printReport(out io.Writer, report batch.Report) {
	colorize := shouldColorize(out)
	rows := make([][]string, 0, len(report.Items))
	for _, item := range report.Items {
		tmdbID := ""
		matched := ""
		if item.Match.Found() {
			tmdbID = strconv.FormatInt(item.Match.Result.ID, 10)
			matched = resultLabel(*item.Match.Result)
			if item.Match.Manual() {
				matched += " *"
			}
		}
		proposed := item.ProposedName
		if proposed == "" {
			proposed = "-"
		}
		rows = append(rows, []string{
			item.Item.Name,
			item.Candidate.String(),
			outcomeLabel(item.Outcome, colorize),
			tmdbID,
			matched,
			proposed,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Name", "Candidate", "Outcome", "TMDB", "Match", "Proposed"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	))

	counts := report.Counts()
	fmt.Fprintf(out, "%d found, %d not found, %d unavailable", counts.Found, counts.NotFound, counts.Unavailable)
	if counts.Cancelled > 0 {
		fmt.Fprintf(out, ", %d cancelled", counts.Cancelled)
	}
	fmt.Fprintf(out, " (%s)\n", report.Duration().Round(time.Millisecond))
}
