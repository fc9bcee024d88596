package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database and load products, states and zip codes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := openStore(ctx, true)
		if err != nil {
			return err
		}
		defer closeStore(ctx, s)

		if !s.Created() {
			fmt.Printf("Store %s already exists\n", cfg.DatabaseFile())
			return nil
		}
		seeded := s.Seeded()
		fmt.Printf("Created %s\n", cfg.DatabaseFile())
		fmt.Printf("  products: %d\n  states:   %d\n  zips:     %d\n", seeded.Products, seeded.States, seeded.Zips)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
