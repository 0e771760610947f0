package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reelname/internal/identification"
)

type planView struct {
	Raw       string                       `json:"raw"`
	Candidate identification.Candidate     `json:"candidate"`
	CacheKey  string                       `json:"cache_key"`
	Queries   []identification.SearchQuery `json:"queries"`
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var asDir bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plan <name>",
		Short: "Show the normalized candidate and planned TMDB queries without searching",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			normalizer := ctx.normalizer(cfg)
			candidate := identification.Expand(normalizer.NormalizeName(args[0], asDir))
			view := planView{
				Raw:       args[0],
				Candidate: candidate,
				CacheKey:  identification.CacheKey(candidate),
				Queries:   identification.Plan(candidate),
			}
			if asJSON {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Title:     %s\n", candidate.Title)
			if candidate.Year > 0 {
				fmt.Fprintf(out, "Year:      %d\n", candidate.Year)
			} else {
				fmt.Fprintln(out, "Year:      -")
			}
			if candidate.RomanVariant != "" {
				fmt.Fprintf(out, "Variant:   %s\n", candidate.RomanVariant)
			}
			fmt.Fprintf(out, "Cache key: %s\n", view.CacheKey)
			rows := make([][]string, 0, len(view.Queries))
			for _, q := range view.Queries {
				year := "-"
				if q.Year > 0 {
					year = strconv.Itoa(q.Year)
				}
				rows = append(rows, []string{strconv.Itoa(q.Priority), q.Text, year})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Priority", "Query", "Year"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asDir, "dir", false, "Treat the name as a folder name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}
