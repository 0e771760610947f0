package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"reelname/internal/batch"
	"reelname/internal/config"
	"reelname/internal/history"
	"reelname/internal/logging"
)

type scanOptions struct {
	includeDirs bool
	workers     int
	json        bool
	noHistory   bool
	language    string
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var opts scanOptions

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Resolve every video file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			if info, err := os.Stat(root); err != nil {
				return fmt.Errorf("scan %s: %w", args[0], err)
			} else if !info.IsDir() {
				return fmt.Errorf("scan %s: not a directory", args[0])
			}

			sess, err := ctx.newSession(cmd, opts.language)
			if err != nil {
				return err
			}
			items, err := batch.Discover(root, sess.cfg.Library.VideoExtensions, opts.includeDirs)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No video files found under %s\n", root)
				return nil
			}

			workers := sess.cfg.Resolver.Workers
			if opts.workers > 0 {
				workers = opts.workers
			}
			runner := &batch.Runner{
				Resolver:      sess.engine,
				Workers:       workers,
				NamingPattern: sess.cfg.Library.NamingPattern,
				Logger:        sess.logger,
			}
			if !opts.noHistory {
				store, err := history.Open(sess.cfg.Paths.HistoryDB)
				if err != nil {
					return err
				}
				defer store.Close()
				runner.Recorder = store
			}
			if !opts.json && shouldColorize(cmd.ErrOrStderr()) {
				runner.Progress = func(done, total int, result batch.ItemResult) {
					fmt.Fprintf(cmd.ErrOrStderr(), "\r[%d/%d] %s", done, total, filepath.Base(result.Item.Path))
					if done == total {
						fmt.Fprintln(cmd.ErrOrStderr())
					}
				}
			}

			report, err := runner.Run(cmd.Context(), root, items)
			if err != nil {
				logging.WarnWithContext(sess.logger, "batch history not recorded", "history_record_failed",
					logging.String("batch_id", report.ID),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check paths.history_db permissions"),
					logging.String(logging.FieldImpact, "run missing from history"),
				)
			}
			return emitReport(cmd, report, opts.json)
		},
	}

	cmd.Flags().BoolVar(&opts.includeDirs, "dirs", false, "Also resolve top-level folder names")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Concurrent resolutions (default from config)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output JSON")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "Do not record this run in the history database")
	cmd.Flags().StringVar(&opts.language, "language", "", "Override the TMDB query language")
	return cmd
}
