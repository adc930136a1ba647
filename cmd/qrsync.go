package cmd

import (
	"log"

	"qrbooks/core/config"
	"qrbooks/core/database"
	"qrbooks/core/logger"
	"qrbooks/core/storage"
	"qrbooks/feature/rooms"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var qrsyncPrune bool

// qrsyncCmd represents the qrsync command
var qrsyncCmd = &cobra.Command{
	Use:   "qrsync",
	Short: "Reconcile room QR codes against object storage",
	Long: `Compares the room catalog with the QR images in object storage,
regenerates missing codes and reports objects that no longer belong to
any room. With --prune the orphaned objects are deleted.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()

		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Database unreachable", zap.Error(err))
		}

		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			logg.Fatal("Failed to create storage client", zap.Error(err))
		}

		qrGen := rooms.NewGenerator(store, cfg.Storage.Bucket, cfg.Server)
		roomSvc := rooms.NewService(db, logg, qrGen)

		report, err := roomSvc.ReconcileQR(cmd.Context(), qrsyncPrune)
		if err != nil {
			logg.Fatal("Reconcile failed", zap.Error(err))
		}
		for _, key := range report.Orphans {
			logg.Warn("Orphaned QR object", zap.String("key", key), zap.Bool("pruned", qrsyncPrune))
		}
	},
}

func init() {
	qrsyncCmd.Flags().BoolVar(&qrsyncPrune, "prune", false, "delete QR objects that no longer belong to any room")
	RootCmd.AddCommand(qrsyncCmd)
}
