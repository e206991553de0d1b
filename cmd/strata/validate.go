package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/strataorm/strata/internal/config"
	"github.com/strataorm/strata/internal/schemafile"
	"github.com/strataorm/strata/pkg/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Validate schema definition files",
	Long: `Parse and register schema definition files, reporting duplicate
fields, primary key problems and conflicting re-registrations.

With no arguments, files are discovered through the schema paths in
.strata.yml.

Examples:
  strata validate                     # validate configured schema paths
  strata validate schemas/shop.yml    # validate a single file`,
	RunE: func(cmd *cobra.Command, args []string) error {
		files := args
		if len(files) == 0 {
			var err error
			files, err = configuredSchemaFiles()
			if err != nil {
				return err
			}
		}
		if len(files) == 0 {
			printWarning("No schema files found")
			return nil
		}

		reg := schema.NewRegistry()
		kinds := 0
		for _, file := range files {
			if verbose {
				printInfo("Loading %s...", file)
			}
			defs, err := schemafile.Load(file)
			if err != nil {
				printError("%s: %v", file, err)
				return fmt.Errorf("validation failed")
			}
			if err := schemafile.RegisterAll(reg, defs); err != nil {
				printError("%s: %v", file, err)
				return fmt.Errorf("validation failed")
			}
			kinds += len(defs)
		}

		printSuccess("%d kind(s) registered from %d file(s)", kinds, len(files))
		return nil
	},
}

func configuredSchemaFiles() ([]string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.NewLoader(wd).LoadOrDefault()
	if err != nil {
		return nil, err
	}

	var files []string
	for _, dir := range cfg.Schema.Paths {
		for _, pattern := range []string{"*.yml", "*.yaml"} {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				return nil, err
			}
			files = append(files, matches...)
		}
	}
	return files, nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
