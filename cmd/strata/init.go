package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/strataorm/strata/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter .strata.yml in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}

		path := filepath.Join(wd, config.ConfigFileName)
		if _, err := os.Stat(path); err == nil && !initForce {
			printWarning("%s already exists (use --force to overwrite)", config.ConfigFileName)
			return fmt.Errorf("config exists")
		}

		if err := os.WriteFile(path, []byte(config.Template()), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", config.ConfigFileName, err)
		}

		printSuccess("Created %s", config.ConfigFileName)
		printInfo("Edit the connection string, then run 'strata ping'")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config")
	rootCmd.AddCommand(initCmd)
}
