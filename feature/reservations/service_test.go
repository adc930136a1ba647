package reservations_test

import (
	"context"
	"testing"
	"time"

	"qrbooks/core/database"
	authmodels "qrbooks/feature/auth/models"
	"qrbooks/feature/reservations"
	"qrbooks/feature/reservations/models"
	roommodels "qrbooks/feature/rooms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	svc      *reservations.Service
	room     *roommodels.Room
	user     *authmodels.User
	tomorrow time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&authmodels.User{}, &roommodels.Room{}, &models.Reservation{}))

	user := &authmodels.User{Name: "alice", Role: authmodels.RoleStudent, HashedPassword: "x"}
	require.NoError(t, db.Create(user).Error)

	room := &roommodels.Room{Name: "B101", Type: roommodels.TypePublic}
	require.NoError(t, db.Create(room).Error)

	// Midnight UTC tomorrow keeps slot clocks deterministic.
	now := time.Now().UTC()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)

	return &fixture{
		db:       db,
		svc:      reservations.NewService(db, zap.NewNop()),
		room:     room,
		user:     user,
		tomorrow: tomorrow,
	}
}

func (f *fixture) at(hour, min int) time.Time {
	return f.tomorrow.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func TestCreateReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, f.room, f.user.ID, f.at(10, 0), f.at(11, 0))
	require.NoError(t, err)
	assert.NotZero(t, res.ID)
	assert.Equal(t, models.StatusActive, res.Status)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("InvertedRange", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.room, f.user.ID, f.at(11, 0), f.at(10, 0))
		assert.ErrorIs(t, err, reservations.ErrInvalidRange)
	})

	t.Run("PastStart", func(t *testing.T) {
		past := time.Now().UTC().Add(-2 * time.Hour)
		_, err := f.svc.Create(ctx, f.room, f.user.ID, past, past.Add(time.Hour))
		assert.ErrorIs(t, err, reservations.ErrPastStart)
	})

	t.Run("BlockedRoom", func(t *testing.T) {
		blocked := &roommodels.Room{Name: "S001", Type: roommodels.TypeService, IsBlocked: true}
		require.NoError(t, f.db.Create(blocked).Error)

		_, err := f.svc.Create(ctx, blocked, f.user.ID, f.at(10, 0), f.at(11, 0))
		assert.ErrorIs(t, err, reservations.ErrRoomBlocked)
	})
}

func TestBookingWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	start, end := "09:00", "17:00"
	windowed := &roommodels.Room{
		Name:         "B102",
		Type:         roommodels.TypePublic,
		BookingStart: &start,
		BookingEnd:   &end,
	}
	require.NoError(t, f.db.Create(windowed).Error)

	t.Run("InsideWindow", func(t *testing.T) {
		_, err := f.svc.Create(ctx, windowed, f.user.ID, f.at(9, 0), f.at(10, 0))
		assert.NoError(t, err)
	})

	t.Run("StartsTooEarly", func(t *testing.T) {
		_, err := f.svc.Create(ctx, windowed, f.user.ID, f.at(8, 30), f.at(9, 30))
		assert.ErrorIs(t, err, reservations.ErrOutsideWindow)
	})

	t.Run("EndsTooLate", func(t *testing.T) {
		_, err := f.svc.Create(ctx, windowed, f.user.ID, f.at(16, 30), f.at(17, 30))
		assert.ErrorIs(t, err, reservations.ErrOutsideWindow)
	})

	t.Run("CrossesMidnight", func(t *testing.T) {
		_, err := f.svc.Create(ctx, windowed, f.user.ID, f.at(16, 0), f.at(25, 0))
		assert.ErrorIs(t, err, reservations.ErrOutsideWindow)
	})
}

func TestOverlapConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.room, f.user.ID, f.at(10, 0), f.at(12, 0))
	require.NoError(t, err)

	tests := []struct {
		name       string
		start, end time.Time
		conflict   bool
	}{
		{"SameSlot", f.at(10, 0), f.at(12, 0), true},
		{"OverlapsStart", f.at(9, 0), f.at(10, 30), true},
		{"OverlapsEnd", f.at(11, 30), f.at(13, 0), true},
		{"Contained", f.at(10, 30), f.at(11, 30), true},
		{"Covering", f.at(9, 0), f.at(13, 0), true},
		{"TouchesEnd", f.at(12, 0), f.at(13, 0), false},
		{"TouchesStart", f.at(9, 0), f.at(10, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, f.room, f.user.ID, tt.start, tt.end)
			if tt.conflict {
				assert.ErrorIs(t, err, reservations.ErrConflict)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("CancelledDoesNotConflict", func(t *testing.T) {
		res, err := f.svc.Create(ctx, f.room, f.user.ID, f.at(14, 0), f.at(15, 0))
		require.NoError(t, err)
		require.NoError(t, f.svc.Cancel(ctx, res))

		_, err = f.svc.Create(ctx, f.room, f.user.ID, f.at(14, 0), f.at(15, 0))
		assert.NoError(t, err)
	})

	t.Run("OtherRoomDoesNotConflict", func(t *testing.T) {
		other := &roommodels.Room{Name: "B103", Type: roommodels.TypePublic}
		require.NoError(t, f.db.Create(other).Error)

		_, err := f.svc.Create(ctx, other, f.user.ID, f.at(10, 0), f.at(12, 0))
		assert.NoError(t, err)
	})
}

func TestUpdateTimes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, f.room, f.user.ID, f.at(10, 0), f.at(11, 0))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.room, f.user.ID, f.at(13, 0), f.at(14, 0))
	require.NoError(t, err)

	t.Run("MoveClear", func(t *testing.T) {
		err := f.svc.UpdateTimes(ctx, res, f.room, f.at(11, 0), f.at(12, 0))
		assert.NoError(t, err)
	})

	t.Run("OwnSlotIsNotAConflict", func(t *testing.T) {
		err := f.svc.UpdateTimes(ctx, res, f.room, f.at(11, 30), f.at(12, 30))
		assert.NoError(t, err)
	})

	t.Run("MoveIntoConflict", func(t *testing.T) {
		err := f.svc.UpdateTimes(ctx, res, f.room, f.at(13, 30), f.at(14, 30))
		assert.ErrorIs(t, err, reservations.ErrConflict)
	})
}

func TestStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, f.room, f.user.ID, f.at(10, 0), f.at(11, 0))
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.SetStatus(ctx, res, models.ReservationStatus("parked")), reservations.ErrInvalidStatus)

	require.NoError(t, f.svc.Cancel(ctx, res))
	assert.Equal(t, models.StatusCancelled, res.Status)

	// Cancelling again is a no-op.
	require.NoError(t, f.svc.Cancel(ctx, res))
}

func TestBulkCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, f.room, f.user.ID, f.at(10, 0), f.at(11, 0))
	require.NoError(t, err)
	b, err := f.svc.Create(ctx, f.room, f.user.ID, f.at(11, 0), f.at(12, 0))
	require.NoError(t, err)
	require.NoError(t, f.svc.Cancel(ctx, b))

	changed, err := f.svc.BulkCancel(ctx, []uint{a.ID, b.ID, 9999})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	changed, err = f.svc.BulkCancel(ctx, nil)
	assert.NoError(t, err)
	assert.Zero(t, changed)
}

func TestMarkFinished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, f.room, f.user.ID, f.at(10, 0), f.at(11, 0))
	require.NoError(t, err)

	changed, err := f.svc.MarkFinished(ctx, f.at(10, 30))
	assert.NoError(t, err)
	assert.Zero(t, changed)

	changed, err = f.svc.MarkFinished(ctx, f.at(11, 0))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	reloaded, err := f.svc.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, reloaded.Status)
}

func TestCurrentAndNext(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.room, f.user.ID, f.at(10, 0), f.at(11, 0))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.room, f.user.ID, f.at(14, 0), f.at(15, 0))
	require.NoError(t, err)

	current, err := f.svc.CurrentActive(ctx, f.room.ID, f.at(10, 30))
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, f.at(10, 0), current.StartTime.UTC())
	assert.NotNil(t, current.User)

	free, err := f.svc.CurrentActive(ctx, f.room.ID, f.at(12, 0))
	require.NoError(t, err)
	assert.Nil(t, free)

	next, err := f.svc.NextAfter(ctx, f.room.ID, f.at(11, 0))
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, f.at(14, 0), next.StartTime.UTC())

	none, err := f.svc.NextAfter(ctx, f.room.ID, f.at(16, 0))
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestFreeWindows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.room, f.user.ID, f.at(10, 0), f.at(11, 0))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.room, f.user.ID, f.at(14, 0), f.at(15, 0))
	require.NoError(t, err)

	windows, err := f.svc.FreeWindows(ctx, f.room, f.at(9, 0), 8*time.Hour)
	require.NoError(t, err)
	require.Len(t, windows, 3)

	assert.Equal(t, f.at(9, 0), windows[0].Start)
	assert.Equal(t, f.at(10, 0), windows[0].End)
	assert.Equal(t, f.at(11, 0), windows[1].Start)
	assert.Equal(t, f.at(14, 0), windows[1].End)
	assert.Equal(t, f.at(15, 0), windows[2].Start)
	assert.Equal(t, f.at(17, 0), windows[2].End)

	t.Run("EmptyRoomIsOneWindow", func(t *testing.T) {
		other := &roommodels.Room{Name: "B104", Type: roommodels.TypePublic}
		require.NoError(t, f.db.Create(other).Error)

		windows, err := f.svc.FreeWindows(ctx, other, f.at(9, 0), 8*time.Hour)
		require.NoError(t, err)
		require.Len(t, windows, 1)
		assert.Equal(t, f.at(9, 0), windows[0].Start)
		assert.Equal(t, f.at(17, 0), windows[0].End)
	})

	t.Run("FullyBooked", func(t *testing.T) {
		packed := &roommodels.Room{Name: "B105", Type: roommodels.TypePublic}
		require.NoError(t, f.db.Create(packed).Error)
		_, err := f.svc.Create(ctx, packed, f.user.ID, f.at(9, 0), f.at(17, 0))
		require.NoError(t, err)

		windows, err := f.svc.FreeWindows(ctx, packed, f.at(9, 0), 8*time.Hour)
		require.NoError(t, err)
		assert.Empty(t, windows)
	})
}

func TestSearchReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := &roommodels.Room{Name: "A200", Type: roommodels.TypeAdmin}
	require.NoError(t, f.db.Create(other).Error)

	a, err := f.svc.Create(ctx, f.room, f.user.ID, f.at(10, 0), f.at(11, 0))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, other, f.user.ID, f.at(10, 0), f.at(11, 0))
	require.NoError(t, err)
	require.NoError(t, f.svc.Cancel(ctx, a))

	t.Run("ByRoom", func(t *testing.T) {
		items, meta, err := f.svc.Search(ctx, reservations.SearchParams{RoomID: &f.room.ID})
		require.NoError(t, err)
		assert.Len(t, items, 1)
		assert.Equal(t, int64(1), meta.Total)
	})

	t.Run("ByStatus", func(t *testing.T) {
		items, _, err := f.svc.Search(ctx, reservations.SearchParams{
			Statuses: []models.ReservationStatus{models.StatusCancelled},
		})
		require.NoError(t, err)
		assert.Len(t, items, 1)
		assert.Equal(t, a.ID, items[0].ID)
	})

	t.Run("ByRoomName", func(t *testing.T) {
		items, _, err := f.svc.Search(ctx, reservations.SearchParams{Query: "a200"})
		require.NoError(t, err)
		assert.Len(t, items, 1)
		assert.Equal(t, other.ID, items[0].RoomID)
		assert.NotNil(t, items[0].Room)
	})

	t.Run("ByTimeRange", func(t *testing.T) {
		from := f.at(12, 0)
		items, _, err := f.svc.Search(ctx, reservations.SearchParams{From: &from})
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}
