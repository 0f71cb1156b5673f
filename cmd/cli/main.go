package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/strandhq/strand/backend/internal/config"
	"github.com/strandhq/strand/backend/internal/database"
	"github.com/strandhq/strand/backend/internal/logger"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "strand",
	Short: "Strand admin CLI - operate on the feed service database",
	Long: `Strand admin CLI runs maintenance operations directly against the
database: schema migration and ranking score replay.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found, using system environment variables")
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
			os.Exit(1)
		}

		if err := logger.Initialize(cfg.LogLevel, "cli.log"); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to initialize logger: %v\n", err)
			os.Exit(1)
		}
		if err := database.Initialize(cfg.DatabaseURL, cfg.Environment); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to connect to database: %v\n", err)
			os.Exit(1)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		database.Close()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(rescoreCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
