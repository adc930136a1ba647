package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qrbooks/core/config"
	"qrbooks/core/database"
	"qrbooks/core/loader"
	"qrbooks/core/logger"
	coreauth "qrbooks/core/middleware/auth"
	"qrbooks/core/middleware/ratelimit"
	"qrbooks/core/middleware/rayid"
	"qrbooks/core/storage"
	"qrbooks/feature/admin"
	auditfeat "qrbooks/feature/audit"
	auditmodels "qrbooks/feature/audit/models"
	authfeat "qrbooks/feature/auth"
	authmodels "qrbooks/feature/auth/models"
	"qrbooks/feature/health"
	"qrbooks/feature/reservations"
	resmodels "qrbooks/feature/reservations/models"
	"qrbooks/feature/rooms"
	roommodels "qrbooks/feature/rooms/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	_ "qrbooks/docs/swagger"
)

// dataModels lists every table for the SQLite AutoMigrate fallback.
var dataModels = []any{
	&authmodels.User{},
	&roommodels.Room{},
	&resmodels.Reservation{},
	&auditmodels.AuditLog{},
}

// finishSweepInterval is how often active reservations past their end
// time get flipped to finished.
const finishSweepInterval = time.Minute

// @title QR Books API
// @version 1.0
// @description API for QR-code driven room booking.
// @host localhost:8080
// @BasePath /api

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the booking server",
	Long: `Starts the HTTP server: verifies the database, applies migrations,
seeds baseline data when the user table is empty and serves the API.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database (required, the service is useless without it)
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Database unreachable, aborting startup", zap.Error(err))
		}
		logg.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

		// 4. Apply Migrations
		if err := database.Migrate(db, dataModels...); err != nil {
			logg.Fatal("Migration failed, aborting startup", zap.Error(err))
		}
		logg.Info("Migrations applied")

		// 5. Initialize Storage
		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			logg.Fatal("Failed to create storage client", zap.Error(err))
		}
		if err := storage.EnsureBucket(cmd.Context(), store, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			logg.Warn("Storage bucket not ready, QR codes unavailable", zap.Error(err))
		}

		// 6. Build Services
		tokens := coreauth.NewManager(cfg.Auth)
		qrGen := rooms.NewGenerator(store, cfg.Storage.Bucket, cfg.Server)

		auditSvc := auditfeat.NewService(db, logg)
		userSvc := authfeat.NewService(db, logg)
		resSvc := reservations.NewService(db, logg)
		roomSvc := rooms.NewService(db, logg, qrGen)
		statsSvc := admin.NewService(db, logg)

		// 7. Seed baseline data when the user table is empty
		if cfg.SeedOnEmpty {
			count, err := userSvc.Count(cmd.Context())
			if err != nil {
				logg.Fatal("Failed to check user table", zap.Error(err))
			}
			if count == 0 {
				logg.Info("User table empty, seeding baseline data")
				if err := runSeed(cmd.Context(), logg, userSvc, roomSvc, resSvc); err != nil {
					logg.Fatal("Seeding failed", zap.Error(err))
				}
			}
		}

		// 8. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
			Prefork:               cfg.Server.Prefork,
			ReadTimeout:           time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		})

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Logging Middleware (Custom to use Zap + RayID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 3. CORS for the frontend
		app.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.CORSOrigins,
			AllowCredentials: true,
			AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		}))

		// 4. Global rate limit keyed by user, falling back to client IP
		limiter := ratelimit.New(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
		app.Use(coreauth.Optional(tokens))
		app.Use(ratelimit.Middleware(limiter, ratelimit.ByUserOrIP))

		// 5. Swagger Documentation (Public)
		app.Get("/swagger/*", swagger.HandlerDefault)

		// 9. Register Features
		mgr := loader.NewManager()
		mgr.Register(health.NewFeature(db, logg))
		mgr.Register(authfeat.NewFeature(userSvc, auditSvc, tokens, logg, cfg.RateLimit))
		mgr.Register(rooms.NewFeature(roomSvc, resSvc, auditSvc, tokens, logg))
		mgr.Register(reservations.NewFeature(resSvc, auditSvc, tokens, logg))
		mgr.Register(admin.NewFeature(admin.Deps{
			Rooms:        roomSvc,
			Reservations: resSvc,
			Users:        userSvc,
			Audit:        auditSvc,
			Stats:        statsSvc,
			Tokens:       tokens,
			Logger:       logg,
		}))

		api := app.Group("/api")
		if err := mgr.LoadAll(api); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 10. Background sweeps
		sweepCtx, stopSweeps := context.WithCancel(context.Background())
		defer stopSweeps()
		go runSweeps(sweepCtx, logg, resSvc, limiter)

		// 11. Start Server
		go func() {
			logg.Info("Starting server",
				zap.String("port", cfg.Server.Port),
				zap.Bool("prefork", cfg.Server.Prefork))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 12. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

// runSweeps periodically finishes elapsed reservations and drops idle
// rate limiter buckets.
func runSweeps(ctx context.Context, logg *zap.Logger, resSvc *reservations.Service, limiter *ratelimit.Limiter) {
	ticker := time.NewTicker(finishSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			changed, err := resSvc.MarkFinished(ctx, now)
			if err != nil {
				logg.Warn("Finish sweep failed", zap.Error(err))
			} else if changed > 0 {
				logg.Info("Reservations finished", zap.Int64("count", changed))
			}
			limiter.Cleanup(10 * time.Minute)
		}
	}
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
