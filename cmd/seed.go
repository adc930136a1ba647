package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"qrbooks/core/config"
	"qrbooks/core/database"
	"qrbooks/core/logger"
	authfeat "qrbooks/feature/auth"
	authmodels "qrbooks/feature/auth/models"
	"qrbooks/feature/reservations"
	"qrbooks/feature/rooms"
	roommodels "qrbooks/feature/rooms/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert baseline users, rooms and sample reservations",
	Long: `Seeds the database with demo accounts, the initial room catalog and
a few sample reservations. Existing records are left untouched, so the
command is safe to run repeatedly.`,
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
		if err := database.Migrate(db, dataModels...); err != nil {
			logg.Fatal("Migration failed", zap.Error(err))
		}

		userSvc := authfeat.NewService(db, logg)
		roomSvc := rooms.NewService(db, logg, nil)
		resSvc := reservations.NewService(db, logg)

		if err := runSeed(cmd.Context(), logg, userSvc, roomSvc, resSvc); err != nil {
			logg.Fatal("Seeding failed", zap.Error(err))
		}
		logg.Info("Seed complete")
	},
}

// Demo accounts created by the seeder. The passwords are development
// defaults; production deployments reset them on first login.
var seedUsers = []struct {
	name     string
	password string
	role     authmodels.UserRole
}{
	{"admin", "admin1234", authmodels.RoleAdmin},
	{"teacher", "teacher1234", authmodels.RoleTeacher},
	{"student", "student1234", authmodels.RoleStudent},
	{"guest", "guest1234", authmodels.RoleStudent},
}

var seedWindowStart = "08:00"
var seedWindowEnd = "20:00"

var seedRooms = []rooms.CreateParams{
	{Name: "B101", Type: roommodels.TypePublic, BookingStart: &seedWindowStart, BookingEnd: &seedWindowEnd},
	{Name: "B102", Type: roommodels.TypePublic, BookingStart: &seedWindowStart, BookingEnd: &seedWindowEnd},
	{Name: "A200", Type: roommodels.TypeAdmin},
	{Name: "S001", Type: roommodels.TypeService},
}

// runSeed inserts the baseline data, skipping anything that already
// exists. Sample reservations are only added when the room has none.
func runSeed(ctx context.Context, logg *zap.Logger, userSvc *authfeat.Service, roomSvc *rooms.Service, resSvc *reservations.Service) error {
	users := make(map[string]*authmodels.User, len(seedUsers))
	for _, su := range seedUsers {
		existing, err := userSvc.GetByName(ctx, su.name)
		if err != nil {
			return fmt.Errorf("failed to look up user %q: %w", su.name, err)
		}
		if existing != nil {
			users[su.name] = existing
			continue
		}
		created, err := userSvc.Create(ctx, su.name, su.password, su.role)
		if err != nil {
			return fmt.Errorf("failed to create user %q: %w", su.name, err)
		}
		users[su.name] = created
		logg.Info("Seeded user", zap.String("name", su.name), zap.String("role", string(su.role)))
	}

	roomsByName := make(map[string]*roommodels.Room, len(seedRooms))
	for _, params := range seedRooms {
		existing, err := roomSvc.GetByName(ctx, params.Name)
		if err != nil {
			return fmt.Errorf("failed to look up room %q: %w", params.Name, err)
		}
		if existing != nil {
			roomsByName[params.Name] = existing
			continue
		}
		created, err := roomSvc.Create(ctx, params)
		if err != nil {
			return fmt.Errorf("failed to create room %q: %w", params.Name, err)
		}
		roomsByName[params.Name] = created
		logg.Info("Seeded room", zap.String("name", params.Name), zap.String("type", string(params.Type)))
	}

	// A couple of demo bookings in B101 tomorrow, so the dashboard and
	// room pages are not empty on first run.
	room := roomsByName["B101"]
	student := users["student"]
	if room == nil || student == nil {
		return nil
	}
	schedule, err := resSvc.Schedule(ctx, room.ID)
	if err != nil {
		return fmt.Errorf("failed to check room schedule: %w", err)
	}
	if len(schedule) > 0 {
		return nil
	}

	now := time.Now().UTC()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	slots := []struct{ start, end time.Time }{
		{tomorrow.Add(10 * time.Hour), tomorrow.Add(11 * time.Hour)},
		{tomorrow.Add(14 * time.Hour), tomorrow.Add(15*time.Hour + 30*time.Minute)},
	}
	for _, slot := range slots {
		if _, err := resSvc.Create(ctx, room, student.ID, slot.start, slot.end); err != nil {
			return fmt.Errorf("failed to create sample reservation: %w", err)
		}
	}
	logg.Info("Seeded sample reservations", zap.String("room", room.Name), zap.Int("count", len(slots)))
	return nil
}

func init() {
	RootCmd.AddCommand(seedCmd)
}
