package cmd

import (
	"log"

	"qrbooks/core/config"
	"qrbooks/core/database"
	"qrbooks/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var migrateDownSteps int

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long:  `Applies the embedded versioned SQL migrations to the configured database.`,
	Run: func(cmd *cobra.Command, args []string) {
		db, logg := connectForMigration()
		defer logg.Sync()

		if err := database.Migrate(db, dataModels...); err != nil {
			logg.Fatal("Migration failed", zap.Error(err))
		}
		logg.Info("Migrations applied")
	},
}

// migrateDownCmd represents the migrate down command
var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back database migrations",
	Long:  `Rolls back the given number of migration steps (default one).`,
	Run: func(cmd *cobra.Command, args []string) {
		db, logg := connectForMigration()
		defer logg.Sync()

		if err := database.MigrateDown(db, migrateDownSteps); err != nil {
			logg.Fatal("Rollback failed", zap.Error(err))
		}
		logg.Info("Rollback applied", zap.Int("steps", migrateDownSteps))
	},
}

func connectForMigration() (db *gorm.DB, logg *zap.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logg, err = logger.New(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	db, err = database.Connect(cfg.Database)
	if err != nil {
		logg.Fatal("Database unreachable", zap.Error(err))
	}
	return db, logg
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "number of migration steps to roll back")
	migrateCmd.AddCommand(migrateDownCmd)
	RootCmd.AddCommand(migrateCmd)
}
