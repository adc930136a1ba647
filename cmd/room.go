package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"qrbooks/core/config"
	"qrbooks/core/database"
	"qrbooks/core/logger"
	"qrbooks/feature/reservations"
	resmodels "qrbooks/feature/reservations/models"
	"qrbooks/feature/rooms"
	roommodels "qrbooks/feature/rooms/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// roomCmd represents the room command
var roomCmd = &cobra.Command{
	Use:   "room [name]",
	Short: "View one room's status and schedule",
	Long:  `Prints a console detail view of a room: type, block state, booking window, live status and upcoming reservations.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runRoomDetail(cmd.Context(), args[0])
	},
}

func runRoomDetail(ctx context.Context, name string) {
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

	roomSvc := rooms.NewService(db, logg, nil)
	resSvc := reservations.NewService(db, logg)

	room, err := roomSvc.GetByName(ctx, name)
	if err != nil {
		logg.Fatal("Room lookup failed", zap.Error(err))
	}
	if room == nil {
		logg.Fatal("Room not found", zap.String("name", name))
	}

	now := time.Now().UTC()
	current, err := resSvc.CurrentActive(ctx, room.ID, now)
	if err != nil {
		logg.Fatal("Status lookup failed", zap.Error(err))
	}
	schedule, err := resSvc.Schedule(ctx, room.ID)
	if err != nil {
		logg.Fatal("Schedule lookup failed", zap.Error(err))
	}

	status := roommodels.StatusAvailable
	if room.IsBlocked {
		status = roommodels.StatusBlocked
	} else if current != nil {
		status = roommodels.StatusOccupied
	}

	// Pretty Console Output
	fmt.Println("\n--- Room Detail View ---")
	fmt.Printf("Name:           %s\n", room.Name)
	fmt.Printf("Type:           %s\n", room.Type)
	fmt.Printf("Blocked:        %v\n", room.IsBlocked)
	fmt.Printf("Booking Window: %s\n", windowString(room))
	if room.QRCodeURL != nil {
		fmt.Printf("QR Code:        %s\n", *room.QRCodeURL)
	}
	fmt.Println("------------------------")

	statusColor := "\033[32m" // Green
	if status == roommodels.StatusBlocked {
		statusColor = "\033[31m" // Red
	} else if status == roommodels.StatusOccupied {
		statusColor = "\033[33m" // Yellow
	}
	resetColor := "\033[0m"
	fmt.Printf("Status:         %s%s%s\n", statusColor, status, resetColor)

	if current != nil {
		fmt.Printf("Occupied by:    %s (until %s)\n", slotUser(currentUserName(current)), current.EndTime.Format("15:04"))
	}

	fmt.Printf("\nUpcoming reservations: %d\n", len(schedule))
	for _, res := range schedule {
		fmt.Printf("  %s - %s  %s\n",
			res.StartTime.Format("2006-01-02 15:04"),
			res.EndTime.Format("15:04"),
			slotUser(currentUserName(&res)))
	}
	fmt.Println()
}

func windowString(room *roommodels.Room) string {
	if room.BookingStart == nil && room.BookingEnd == nil {
		return "unrestricted"
	}
	start, end := "00:00", "24:00"
	if room.BookingStart != nil {
		start = *room.BookingStart
	}
	if room.BookingEnd != nil {
		end = *room.BookingEnd
	}
	return start + " - " + end
}

func currentUserName(res *resmodels.Reservation) string {
	if res.User != nil {
		return res.User.Name
	}
	return ""
}

func slotUser(name string) string {
	if name == "" {
		return "(unknown)"
	}
	return name
}

func init() {
	RootCmd.AddCommand(roomCmd)
}
