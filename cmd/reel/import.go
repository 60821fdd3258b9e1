package main

import (
	"fmt"

	"github.com/aretw0/reel/pkg/adapters/jsondb"
	"github.com/aretw0/reel/pkg/adapters/sqlite"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <movies.json> <movies.db>",
	Short: "Copy a JSON movie database into SQLite",
	Long: `Reads an array of movie records and inserts them into the movies table of a
SQLite file, creating it when needed. Point DIALOGUE.db_path at the result.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := jsondb.Load(args[0])
		if err != nil {
			return err
		}
		db, err := sqlite.Open(args[1])
		if err != nil {
			return err
		}
		defer db.Close()

		records := src.Records()
		if err := db.Seed(cmd.Context(), records); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d movies into %s\n", len(records), args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
