package cmd

import (
	"fmt"

	storecontext "github.com/Ramsey-B/storedb/pkg/context"
	"github.com/spf13/cobra"
)

var createStore bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load every sales file waiting in the intake directory",
	Long: `Files are loaded in name order, one row at a time. A file is moved to the archive
directory only when all of its rows were loaded. The first failing row stops the run; rows
committed before it are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := storecontext.SetRunID(cmd.Context(), storecontext.NewRunID())

		s, err := openStore(ctx, createStore)
		if err != nil {
			return err
		}
		defer closeStore(ctx, s)

		summary, runErr := s.Ingest(ctx)
		if summary != nil {
			for _, f := range summary.Files {
				status := "archived"
				if !f.Committed {
					status = "stopped"
				}
				fmt.Printf("%-24s %-9s rows=%d customers=%d invoices=%d line_items=%d\n",
					f.File, status, f.Rows, f.CustomersCreated, f.InvoicesCreated, f.LineItems)
			}
			fmt.Printf("run %s: %d files loaded, %d rows\n", summary.RunID, summary.Loaded(), summary.Rows())
		}

		if err := s.Metrics().WriteTextfile(cfg.Resolve(cfg.MetricsTextfile)); err != nil {
			logger.WithContext(ctx).WithError(err).Warn("failed to write metrics")
		}
		return runErr
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&createStore, "create", false, "create the store first if it does not exist")
	rootCmd.AddCommand(ingestCmd)
}
