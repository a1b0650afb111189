package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/teacher-contracts/internal/auth"
	"github.com/frahmantamala/teacher-contracts/internal/core/database"
	"github.com/frahmantamala/teacher-contracts/pkg/logger"
)

// seedPassword is shared by every demo account.
const seedPassword = "password"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long: `Seed the database with two departments, six users, two templates, five
contracts and their notifications for development and testing purposes.
Every account signs in with the password "` + seedPassword + `".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		lg := logger.LoggerWrapper()

		db, err := database.Open(cfg.Database, lg)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		defer db.Close()

		ctx := context.Background()
		if clearData {
			if err := database.Clear(ctx, db.Gorm); err != nil {
				return err
			}
			lg.Info("existing data cleared")
		}

		hash, err := auth.HashPassword(seedPassword, cfg.Security.BCryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash seed password: %w", err)
		}

		if err := database.Seed(ctx, db.Gorm, hash, time.Now().UTC()); err != nil {
			return fmt.Errorf("failed to seed: %w", err)
		}

		lg.Info("database seeded",
			"hr_admin", "hr@university.edu",
			"teacher", "alice.wong@university.edu")
		return nil
	},
}
