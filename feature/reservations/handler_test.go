package reservations_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"qrbooks/core/database"
	coreauth "qrbooks/core/middleware/auth"
	auditfeat "qrbooks/feature/audit"
	auditmodels "qrbooks/feature/audit/models"
	authmodels "qrbooks/feature/auth/models"
	"qrbooks/feature/reservations"
	"qrbooks/feature/reservations/models"
	roommodels "qrbooks/feature/rooms/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type handlerFixture struct {
	app      *fiber.App
	db       *gorm.DB
	tokens   *coreauth.Manager
	tomorrow time.Time
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	logger := zap.NewNop()

	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&authmodels.User{}, &roommodels.Room{}, &models.Reservation{}, &auditmodels.AuditLog{}))

	svc := reservations.NewService(db, logger)
	auditSvc := auditfeat.NewService(db, logger)
	tokens := coreauth.NewManager(coreauth.Config{Secret: "test-secret", AccessTTLMinutes: 60})

	feat := reservations.NewFeature(svc, auditSvc, tokens, logger)

	app := fiber.New()
	require.NoError(t, feat.Load(app))

	// Midnight UTC tomorrow keeps slot clocks deterministic.
	now := time.Now().UTC()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)

	return &handlerFixture{app: app, db: db, tokens: tokens, tomorrow: tomorrow}
}

func (f *handlerFixture) seedUser(t *testing.T, name string, role authmodels.UserRole) (*authmodels.User, string) {
	t.Helper()

	user := &authmodels.User{Name: name, Role: role, HashedPassword: "x"}
	require.NoError(t, f.db.Create(user).Error)

	token, err := f.tokens.IssueAccess(user.ID, string(role))
	require.NoError(t, err)
	return user, token
}

func (f *handlerFixture) at(hour, min int) string {
	return f.tomorrow.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute).Format(time.RFC3339)
}

func (f *handlerFixture) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, 2000)
	require.NoError(t, err)
	return resp
}

func (f *handlerFixture) get(t *testing.T, path, token string) *http.Response {
	return f.request(t, "GET", path, token, nil)
}

func (f *handlerFixture) post(t *testing.T, path, token string, body any) *http.Response {
	return f.request(t, "POST", path, token, body)
}

func (f *handlerFixture) patch(t *testing.T, path, token string, body any) *http.Response {
	return f.request(t, "PATCH", path, token, body)
}

func (f *handlerFixture) delete(t *testing.T, path, token string) *http.Response {
	return f.request(t, "DELETE", path, token, nil)
}

func TestHandleCreateReservation(t *testing.T) {
	f := newHandlerFixture(t)

	_, token := f.seedUser(t, "alice", authmodels.RoleStudent)
	room := &roommodels.Room{Name: "B101", Type: roommodels.TypePublic}
	require.NoError(t, f.db.Create(room).Error)

	resp := f.post(t, "/reservations", token, fiber.Map{
		"room_id": room.ID, "start_time": f.at(10, 0), "end_time": f.at(11, 0),
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created models.Reservation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, room.ID, created.RoomID)
	assert.Equal(t, models.StatusActive, created.Status)

	t.Run("TouchingEndAllowed", func(t *testing.T) {
		resp := f.post(t, "/reservations", token, fiber.Map{
			"room_id": room.ID, "start_time": f.at(11, 0), "end_time": f.at(12, 0),
		})
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	})

	t.Run("ContainedConflict", func(t *testing.T) {
		resp := f.post(t, "/reservations", token, fiber.Map{
			"room_id": room.ID, "start_time": f.at(10, 15), "end_time": f.at(10, 45),
		})
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})

	t.Run("PastStart", func(t *testing.T) {
		past := time.Now().UTC().Add(-2 * time.Hour)
		resp := f.post(t, "/reservations", token, fiber.Map{
			"room_id":    room.ID,
			"start_time": past.Format(time.RFC3339),
			"end_time":   past.Add(time.Hour).Format(time.RFC3339),
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("OutsideWindow", func(t *testing.T) {
		opens, closes := "09:00", "17:00"
		windowed := &roommodels.Room{
			Name: "B102", Type: roommodels.TypePublic,
			BookingStart: &opens, BookingEnd: &closes,
		}
		require.NoError(t, f.db.Create(windowed).Error)

		resp := f.post(t, "/reservations", token, fiber.Map{
			"room_id": windowed.ID, "start_time": f.at(8, 0), "end_time": f.at(9, 0),
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("UnknownRoom", func(t *testing.T) {
		resp := f.post(t, "/reservations", token, fiber.Map{
			"room_id": 999, "start_time": f.at(10, 0), "end_time": f.at(11, 0),
		})
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("ServiceRoomForbidden", func(t *testing.T) {
		service := &roommodels.Room{Name: "S001", Type: roommodels.TypeService}
		require.NoError(t, f.db.Create(service).Error)

		resp := f.post(t, "/reservations", token, fiber.Map{
			"room_id": service.ID, "start_time": f.at(10, 0), "end_time": f.at(11, 0),
		})
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})
}

func TestHandleListMine(t *testing.T) {
	f := newHandlerFixture(t)

	alice, token := f.seedUser(t, "alice", authmodels.RoleStudent)
	bob, _ := f.seedUser(t, "bob", authmodels.RoleStudent)
	room := &roommodels.Room{Name: "B101", Type: roommodels.TypePublic}
	require.NoError(t, f.db.Create(room).Error)

	for _, r := range []*models.Reservation{
		{RoomID: room.ID, UserID: alice.ID, StartTime: f.tomorrow.Add(10 * time.Hour), EndTime: f.tomorrow.Add(11 * time.Hour), Status: models.StatusActive},
		{RoomID: room.ID, UserID: bob.ID, StartTime: f.tomorrow.Add(12 * time.Hour), EndTime: f.tomorrow.Add(13 * time.Hour), Status: models.StatusActive},
	} {
		require.NoError(t, f.db.Create(r).Error)
	}

	resp := f.get(t, "/reservations/mine", token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var items []models.Reservation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	require.Len(t, items, 1)
	assert.Equal(t, alice.ID, items[0].UserID)

	t.Run("Anonymous", func(t *testing.T) {
		resp := f.get(t, "/reservations/mine", "")
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestHandleCancelOwnership(t *testing.T) {
	f := newHandlerFixture(t)

	alice, aliceToken := f.seedUser(t, "alice", authmodels.RoleStudent)
	_, bobToken := f.seedUser(t, "bob", authmodels.RoleStudent)
	_, teacherToken := f.seedUser(t, "carol", authmodels.RoleTeacher)
	room := &roommodels.Room{Name: "B101", Type: roommodels.TypePublic}
	require.NoError(t, f.db.Create(room).Error)

	res := &models.Reservation{
		RoomID: room.ID, UserID: alice.ID,
		StartTime: f.tomorrow.Add(10 * time.Hour), EndTime: f.tomorrow.Add(11 * time.Hour),
		Status: models.StatusActive,
	}
	require.NoError(t, f.db.Create(res).Error)

	resp := f.delete(t, "/reservations/1", bobToken)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = f.delete(t, "/reservations/1", aliceToken)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var reloaded models.Reservation
	require.NoError(t, f.db.First(&reloaded, res.ID).Error)
	assert.Equal(t, models.StatusCancelled, reloaded.Status)

	t.Run("StaffCancelsAnyones", func(t *testing.T) {
		other := &models.Reservation{
			RoomID: room.ID, UserID: alice.ID,
			StartTime: f.tomorrow.Add(12 * time.Hour), EndTime: f.tomorrow.Add(13 * time.Hour),
			Status: models.StatusActive,
		}
		require.NoError(t, f.db.Create(other).Error)

		resp := f.delete(t, "/reservations/2", teacherToken)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func TestHandleUpdateReservation(t *testing.T) {
	f := newHandlerFixture(t)

	alice, aliceToken := f.seedUser(t, "alice", authmodels.RoleStudent)
	_, teacherToken := f.seedUser(t, "carol", authmodels.RoleTeacher)
	room := &roommodels.Room{Name: "B101", Type: roommodels.TypePublic}
	require.NoError(t, f.db.Create(room).Error)

	res := &models.Reservation{
		RoomID: room.ID, UserID: alice.ID,
		StartTime: f.tomorrow.Add(10 * time.Hour), EndTime: f.tomorrow.Add(11 * time.Hour),
		Status: models.StatusActive,
	}
	require.NoError(t, f.db.Create(res).Error)

	resp := f.patch(t, "/reservations/1", aliceToken, fiber.Map{
		"start_time": f.at(12, 0), "end_time": f.at(13, 0),
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = f.patch(t, "/reservations/1", teacherToken, fiber.Map{
		"start_time": f.at(12, 0), "end_time": f.at(13, 0),
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var moved models.Reservation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&moved))
	assert.True(t, moved.StartTime.Equal(f.tomorrow.Add(12*time.Hour)))
}
