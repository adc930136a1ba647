package auth_test

import (
	"context"
	"testing"

	"qrbooks/core/database"
	"qrbooks/feature/auth"
	"qrbooks/feature/auth/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) *auth.Service {
	t.Helper()

	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	assert.NoError(t, err)

	err = db.AutoMigrate(&models.User{})
	assert.NoError(t, err)

	return auth.NewService(db, zap.NewNop())
}

func TestCreateUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, "alice", "correct horse", models.RoleStudent)
	assert.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "correct horse", user.HashedPassword)

	t.Run("DuplicateName", func(t *testing.T) {
		_, err := svc.Create(ctx, "alice", "another pass", models.RoleTeacher)
		assert.ErrorIs(t, err, auth.ErrUserExists)
	})

	t.Run("WeakPassword", func(t *testing.T) {
		_, err := svc.Create(ctx, "bob", "short", models.RoleStudent)
		assert.ErrorIs(t, err, auth.ErrWeakPassword)
	})

	t.Run("InvalidRole", func(t *testing.T) {
		_, err := svc.Create(ctx, "bob", "long enough", models.UserRole("wizard"))
		assert.ErrorIs(t, err, auth.ErrInvalidRole)
	})
}

func TestVerifyPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, "alice", "correct horse", models.RoleStudent)
	assert.NoError(t, err)

	assert.True(t, svc.VerifyPassword(user, "correct horse"))
	assert.False(t, svc.VerifyPassword(user, "wrong horse"))
}

func TestSetPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, "alice", "correct horse", models.RoleStudent)
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.SetPassword(ctx, user, "nope"), auth.ErrWeakPassword)

	err = svc.SetPassword(ctx, user, "new password")
	assert.NoError(t, err)

	reloaded, err := svc.GetByID(ctx, user.ID)
	assert.NoError(t, err)
	assert.True(t, svc.VerifyPassword(reloaded, "new password"))
	assert.False(t, svc.VerifyPassword(reloaded, "correct horse"))
}

func TestGetByNameMissing(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.GetByName(context.Background(), "nobody")
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestSearchUsers(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, u := range []struct {
		name string
		role models.UserRole
	}{
		{"admin", models.RoleAdmin},
		{"teacher", models.RoleTeacher},
		{"student-a", models.RoleStudent},
		{"student-b", models.RoleStudent},
	} {
		_, err := svc.Create(ctx, u.name, "password123", u.role)
		assert.NoError(t, err)
	}

	t.Run("ByRole", func(t *testing.T) {
		users, meta, err := svc.Search(ctx, auth.SearchParams{Roles: []models.UserRole{models.RoleStudent}})
		assert.NoError(t, err)
		assert.Len(t, users, 2)
		assert.Equal(t, int64(2), meta.Total)
	})

	t.Run("ByQuery", func(t *testing.T) {
		users, _, err := svc.Search(ctx, auth.SearchParams{Query: "STUDENT-A"})
		assert.NoError(t, err)
		assert.Len(t, users, 1)
		assert.Equal(t, "student-a", users[0].Name)
	})

	t.Run("Paged", func(t *testing.T) {
		users, meta, err := svc.Search(ctx, auth.SearchParams{Page: 2, PerPage: 3})
		assert.NoError(t, err)
		assert.Len(t, users, 1)
		assert.Equal(t, int64(2), meta.Pages)
	})
}
