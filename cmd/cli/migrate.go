package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/strandhq/strand/backend/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run schema auto-migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(); err != nil {
			return err
		}
		fmt.Println("Migrations complete")
		return nil
	},
}
