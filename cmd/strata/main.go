package main

import (
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "Strata - schema-typed data mapping for PostgreSQL",
	Long: `Strata maps application records to relational storage through
registered schemas, validated changesets and composable queries.

The CLI validates schema definition files, explains planned queries
and checks database connectivity.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
