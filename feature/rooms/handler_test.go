package rooms_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"qrbooks/core/database"
	coreauth "qrbooks/core/middleware/auth"
	"qrbooks/core/server"
	"qrbooks/core/storage/mocks"
	auditfeat "qrbooks/feature/audit"
	auditmodels "qrbooks/feature/audit/models"
	authmodels "qrbooks/feature/auth/models"
	"qrbooks/feature/reservations"
	resmodels "qrbooks/feature/reservations/models"
	"qrbooks/feature/rooms"
	"qrbooks/feature/rooms/models"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type handlerFixture struct {
	app    *fiber.App
	db     *gorm.DB
	client *mocks.Client
	tokens *coreauth.Manager
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	logger := zap.NewNop()

	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&authmodels.User{}, &models.Room{}, &resmodels.Reservation{}, &auditmodels.AuditLog{}))

	client := new(mocks.Client)
	gen := rooms.NewGenerator(client, "qrbooks", server.Config{
		ExternalBase: "http://api.test",
		FrontendBase: "http://app.test",
	})

	resSvc := reservations.NewService(db, logger)
	roomSvc := rooms.NewService(db, logger, gen)
	auditSvc := auditfeat.NewService(db, logger)
	tokens := coreauth.NewManager(coreauth.Config{Secret: "test-secret", AccessTTLMinutes: 60})

	feat := rooms.NewFeature(roomSvc, resSvc, auditSvc, tokens, logger)

	app := fiber.New()
	require.NoError(t, feat.Load(app))

	return &handlerFixture{app: app, db: db, client: client, tokens: tokens}
}

func (f *handlerFixture) seedUser(t *testing.T, name string, role authmodels.UserRole) (*authmodels.User, string) {
	t.Helper()

	user := &authmodels.User{Name: name, Role: role, HashedPassword: "x"}
	require.NoError(t, f.db.Create(user).Error)

	token, err := f.tokens.IssueAccess(user.ID, string(role))
	require.NoError(t, err)
	return user, token
}

func TestHandleList(t *testing.T) {
	f := newHandlerFixture(t)

	user, _ := f.seedUser(t, "alice", authmodels.RoleStudent)
	occupied := &models.Room{Name: "B101", Type: models.TypePublic}
	free := &models.Room{Name: "B102", Type: models.TypePublic}
	blocked := &models.Room{Name: "S001", Type: models.TypeService, IsBlocked: true}
	require.NoError(t, f.db.Create(occupied).Error)
	require.NoError(t, f.db.Create(free).Error)
	require.NoError(t, f.db.Create(blocked).Error)

	now := time.Now().UTC()
	require.NoError(t, f.db.Create(&resmodels.Reservation{
		RoomID:    occupied.ID,
		UserID:    user.ID,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
		Status:    resmodels.StatusActive,
	}).Error)

	req := httptest.NewRequest("GET", "/rooms", nil)
	resp, err := f.app.Test(req, 2000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var views []rooms.RoomView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	require.Len(t, views, 3)

	byName := map[string]rooms.RoomView{}
	for _, v := range views {
		byName[v.Name] = v
	}
	assert.Equal(t, models.StatusOccupied, byName["B101"].Status)
	require.NotNil(t, byName["B101"].Current)
	assert.Equal(t, "alice", byName["B101"].Current.UserName)
	assert.Equal(t, models.StatusAvailable, byName["B102"].Status)
	assert.Equal(t, models.StatusBlocked, byName["S001"].Status)
}

func TestHandleDetail(t *testing.T) {
	f := newHandlerFixture(t)

	user, _ := f.seedUser(t, "alice", authmodels.RoleStudent)
	room := &models.Room{Name: "B101", Type: models.TypePublic}
	require.NoError(t, f.db.Create(room).Error)

	now := time.Now().UTC()
	require.NoError(t, f.db.Create(&resmodels.Reservation{
		RoomID:    room.ID,
		UserID:    user.ID,
		StartTime: now.Add(2 * time.Hour),
		EndTime:   now.Add(3 * time.Hour),
		Status:    resmodels.StatusActive,
	}).Error)

	req := httptest.NewRequest("GET", "/rooms/1", nil)
	resp, err := f.app.Test(req, 2000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var detail rooms.RoomDetail
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	assert.Equal(t, models.StatusAvailable, detail.Status)
	assert.Len(t, detail.Schedule, 1)
	assert.Len(t, detail.FreeSlots, 2)
	require.NotNil(t, detail.Next)
	assert.Equal(t, "alice", detail.Next.UserName)

	t.Run("Missing", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/rooms/999", nil)
		resp, err := f.app.Test(req, 2000)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestHandleQRImage(t *testing.T) {
	f := newHandlerFixture(t)

	room := &models.Room{Name: "B101", Type: models.TypePublic}
	require.NoError(t, f.db.Create(room).Error)

	png := []byte{0x89, 'P', 'N', 'G'}
	f.client.On("GetObject", mock.Anything, "qrbooks", "qr/1.png", mock.Anything).
		Return(io.NopCloser(bytes.NewReader(png)), nil)

	req := httptest.NewRequest("GET", "/rooms/1/qr.png", nil)
	resp, err := f.app.Test(req, 2000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, png, body)
}

func TestHandleCreateRoom(t *testing.T) {
	f := newHandlerFixture(t)

	_, adminToken := f.seedUser(t, "root", authmodels.RoleAdmin)
	_, studentToken := f.seedUser(t, "alice", authmodels.RoleStudent)

	f.client.On("PutObject", mock.Anything, "qrbooks", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	post := func(token string, body any) int {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest("POST", "/rooms", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := f.app.Test(req, 2000)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusCreated, post(adminToken, fiber.Map{"name": "B101", "type": "public"}))
	assert.Equal(t, fiber.StatusForbidden, post(studentToken, fiber.Map{"name": "B102", "type": "public"}))
	assert.Equal(t, fiber.StatusConflict, post(adminToken, fiber.Map{"name": "B101", "type": "public"}))
}

func TestHandleReserve(t *testing.T) {
	f := newHandlerFixture(t)

	_, studentToken := f.seedUser(t, "alice", authmodels.RoleStudent)

	public := &models.Room{Name: "B101", Type: models.TypePublic}
	service := &models.Room{Name: "S001", Type: models.TypeService}
	require.NoError(t, f.db.Create(public).Error)
	require.NoError(t, f.db.Create(service).Error)

	start := time.Now().UTC().Add(time.Hour).Format(time.RFC3339)
	end := time.Now().UTC().Add(2 * time.Hour).Format(time.RFC3339)

	reserve := func(roomID string, token string) int {
		payload, err := json.Marshal(fiber.Map{"start_time": start, "end_time": end})
		require.NoError(t, err)
		req := httptest.NewRequest("POST", "/rooms/"+roomID+"/reserve", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := f.app.Test(req, 2000)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusCreated, reserve("1", studentToken))
	assert.Equal(t, fiber.StatusConflict, reserve("1", studentToken))
	assert.Equal(t, fiber.StatusForbidden, reserve("2", studentToken))

	t.Run("Anonymous", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/rooms/1/reserve", nil)
		resp, err := f.app.Test(req, 2000)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}
