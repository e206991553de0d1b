package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/strataorm/strata/internal/config"
	"github.com/strataorm/strata/pkg/exec/postgres"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check database connectivity",
	Long: `Connect to the database configured in .strata.yml (or DATABASE_URL)
and verify the connection is alive.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadDriverConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		connector := postgres.NewConnector(cfg)
		if err := connector.Connect(ctx); err != nil {
			printError("connection failed: %v", err)
			return err
		}
		defer connector.Close()

		if err := connector.Ping(ctx); err != nil {
			printError("ping failed: %v", err)
			return err
		}

		printSuccess("Database is reachable")
		return nil
	},
}

// loadDriverConfig resolves connection settings from DATABASE_URL first,
// then the project configuration file, then defaults.
func loadDriverConfig() (postgres.Config, error) {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		if verbose {
			printInfo("Using DATABASE_URL from environment")
		}
		return postgres.ParseConnectionString(url)
	}

	wd, err := os.Getwd()
	if err != nil {
		return postgres.Config{}, err
	}
	cfg, err := config.NewLoader(wd).LoadOrDefault()
	if err != nil {
		return postgres.Config{}, err
	}
	driverCfg, err := postgres.ParseConnectionString(cfg.Database.ConnectionString)
	if err != nil {
		return postgres.Config{}, err
	}
	if cfg.Database.MaxConnections > 0 {
		driverCfg.MaxConns = int32(cfg.Database.MaxConnections)
	}
	return driverCfg, nil
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
