package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the number of rows in every table",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := openStore(ctx, false)
		if err != nil {
			return err
		}
		defer closeStore(ctx, s)

		counts, err := s.Stats(ctx)
		if err != nil {
			return err
		}
		for _, c := range counts {
			fmt.Printf("%-16s %d\n", c.Table, c.Rows)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
