package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"qrbooks/core/database"
	coreauth "qrbooks/core/middleware/auth"
	"qrbooks/core/middleware/ratelimit"
	auditfeat "qrbooks/feature/audit"
	auditmodels "qrbooks/feature/audit/models"
	"qrbooks/feature/auth"
	"qrbooks/feature/auth/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T) (*fiber.App, *auth.Service, *coreauth.Manager) {
	t.Helper()

	logger := zap.NewNop()

	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	assert.NoError(t, err)
	err = db.AutoMigrate(&models.User{}, &auditmodels.AuditLog{})
	assert.NoError(t, err)

	svc := auth.NewService(db, logger)
	auditSvc := auditfeat.NewService(db, logger)
	tokens := coreauth.NewManager(coreauth.Config{
		Secret:           "test-secret",
		AccessTTLMinutes: 60,
		RefreshTTLHours:  168,
	})

	feat := auth.NewFeature(svc, auditSvc, tokens, logger, ratelimit.Config{LoginPerMinute: 100})

	app := fiber.New()
	err = feat.Load(app)
	assert.NoError(t, err)

	return app, svc, tokens
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	assert.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 2000)
	assert.NoError(t, err)
	return resp
}

func TestHandleLogin(t *testing.T) {
	app, svc, _ := newTestApp(t)

	_, err := svc.Create(context.Background(), "alice", "password123", models.RoleStudent)
	assert.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		resp := postJSON(t, app, "/auth/login", fiber.Map{"name": "alice", "password": "password123"})
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body struct {
			AccessToken string       `json:"access_token"`
			User        *models.User `json:"user"`
		}
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.NotEmpty(t, body.AccessToken)
		assert.Equal(t, "alice", body.User.Name)

		cookies := resp.Cookies()
		names := make([]string, 0, len(cookies))
		for _, c := range cookies {
			names = append(names, c.Name)
		}
		assert.Contains(t, names, coreauth.AccessCookie)
		assert.Contains(t, names, coreauth.RefreshCookie)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		resp := postJSON(t, app, "/auth/login", fiber.Map{"name": "alice", "password": "nope nope"})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		resp := postJSON(t, app, "/auth/login", fiber.Map{"name": "mallory", "password": "password123"})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestHandleSignup(t *testing.T) {
	app, _, _ := newTestApp(t)

	t.Run("Student", func(t *testing.T) {
		resp := postJSON(t, app, "/auth/signup", fiber.Map{"name": "bob", "password": "password123"})
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	})

	t.Run("AdminRoleRejected", func(t *testing.T) {
		resp := postJSON(t, app, "/auth/signup", fiber.Map{"name": "eve", "password": "password123", "role": "admin"})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("DuplicateName", func(t *testing.T) {
		resp := postJSON(t, app, "/auth/signup", fiber.Map{"name": "bob", "password": "password123"})
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})
}

func TestHandleRegister(t *testing.T) {
	app, svc, tokens := newTestApp(t)

	admin, err := svc.Create(context.Background(), "root", "password123", models.RoleAdmin)
	assert.NoError(t, err)
	adminToken, err := tokens.IssueAccess(admin.ID, string(admin.Role))
	assert.NoError(t, err)

	student, err := svc.Create(context.Background(), "alice", "password123", models.RoleStudent)
	assert.NoError(t, err)
	studentToken, err := tokens.IssueAccess(student.ID, string(student.Role))
	assert.NoError(t, err)

	register := func(token string, body any) *http.Response {
		payload, err := json.Marshal(body)
		assert.NoError(t, err)
		req := httptest.NewRequest("POST", "/auth/register", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req, 2000)
		assert.NoError(t, err)
		return resp
	}

	t.Run("AdminCreatesAdmin", func(t *testing.T) {
		resp := register(adminToken, fiber.Map{"name": "root2", "password": "password123", "role": "admin"})
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	})

	t.Run("StudentForbidden", func(t *testing.T) {
		resp := register(studentToken, fiber.Map{"name": "sneaky", "password": "password123", "role": "admin"})
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})
}

func TestHandleMe(t *testing.T) {
	app, svc, tokens := newTestApp(t)

	user, err := svc.Create(context.Background(), "alice", "password123", models.RoleStudent)
	assert.NoError(t, err)
	token, err := tokens.IssueAccess(user.ID, string(user.Role))
	assert.NoError(t, err)

	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, 2000)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body models.User
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "alice", body.Name)

	t.Run("Anonymous", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/auth/me", nil)
		resp, err := app.Test(req, 2000)
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestHandleRefresh(t *testing.T) {
	app, svc, tokens := newTestApp(t)

	user, err := svc.Create(context.Background(), "alice", "password123", models.RoleStudent)
	assert.NoError(t, err)
	refresh, err := tokens.IssueRefresh(user.ID)
	assert.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: coreauth.RefreshCookie, Value: refresh})
		resp, err := app.Test(req, 2000)
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("AccessTokenRejected", func(t *testing.T) {
		access, err := tokens.IssueAccess(user.ID, string(user.Role))
		assert.NoError(t, err)

		req := httptest.NewRequest("POST", "/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: coreauth.RefreshCookie, Value: access})
		resp, err := app.Test(req, 2000)
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Missing", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/auth/refresh", nil)
		resp, err := app.Test(req, 2000)
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}
