package core

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/unihub/internal/model"
)

func TestNewUserService(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)

	require.NotNil(t, svc)
	assert.Equal(t, db, svc.db)
}

// ---------- GetByID ----------

func TestUserService_GetByID_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"user-1"}).Return(&mockRow{scanFunc: userScan(model.User{
		ID: "user-1", Email: "a@b.com", FullName: strPtr("A B"), Role: model.RoleUser, IsActive: true, CreatedAt: testNow,
	})})

	u, err := svc.GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", u.Email)
	assert.Equal(t, "A B", *u.FullName)
	assert.Equal(t, testNow, u.CreatedAt)
	db.AssertExpectations(t)
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(errRow(pgx.ErrNoRows))

	u, err := svc.GetByID(ctx, "missing")
	require.Error(t, err)
	assert.Nil(t, u)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_GetByID_DBError(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(errRow(errors.New("boom")))

	_, err := svc.GetByID(ctx, "user-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "get user user-1")
}

// ---------- List ----------

func TestUserService_List(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)
	ctx := context.Background()

	rows := newMockRows(
		userScan(model.User{ID: "u1", Email: "a@b.com", Role: model.RoleAdmin}),
		userScan(model.User{ID: "u2", Email: "c@d.com", Role: model.RoleUser}),
	)
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, model.RoleUser, users[1].Role)
}

func TestUserService_List_Empty(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)
	ctx := context.Background()

	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(newEmptyMockRows(), nil)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestUserService_List_QueryError(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)
	ctx := context.Background()

	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(nil, errors.New("down"))

	_, err := svc.List(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list users")
}

// ---------- Delete ----------

func TestUserService_Delete_Existing(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), []any{"user-2"}).Return(tag("DELETE 1"), nil)

	require.NoError(t, svc.Delete(ctx, "admin-1", "user-2"))
	db.AssertExpectations(t)
}

func TestUserService_Delete_MissingIsNotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), []any{"ghost"}).Return(tag("DELETE 0"), nil)

	err := svc.Delete(ctx, "admin-1", "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_Delete_Self(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)

	err := svc.Delete(context.Background(), "admin-1", "admin-1")
	assert.ErrorIs(t, err, ErrForbidden)
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

// ---------- SetActive / SetRole ----------

func TestUserService_SetActive(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"user-2", true}).Return(&mockRow{scanFunc: userScan(model.User{
		ID: "user-2", IsActive: true,
	})})

	u, err := svc.SetActive(ctx, "admin-1", "user-2", true)
	require.NoError(t, err)
	assert.True(t, u.IsActive)
}

func TestUserService_SetActive_CannotDeactivateSelf(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)

	_, err := svc.SetActive(context.Background(), "admin-1", "admin-1", false)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUserService_SetActive_Missing(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(errRow(pgx.ErrNoRows))

	_, err := svc.SetActive(ctx, "admin-1", "ghost", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_SetRole(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"user-2", model.RoleAdmin}).Return(&mockRow{scanFunc: userScan(model.User{
		ID: "user-2", Role: model.RoleAdmin,
	})})

	u, err := svc.SetRole(ctx, "admin-1", "user-2", model.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
}

func TestUserService_SetRole_Invalid(t *testing.T) {
	_, err := NewUserService(&mockDB{}).SetRole(context.Background(), "admin-1", "user-2", model.Role("root"))
	assert.True(t, IsValidation(err))
}

func TestUserService_SetRole_CannotDemoteSelf(t *testing.T) {
	_, err := NewUserService(&mockDB{}).SetRole(context.Background(), "admin-1", "admin-1", model.RoleUser)
	assert.ErrorIs(t, err, ErrForbidden)
}

// ---------- Passwords ----------

func TestUserService_SetPassword(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(args []any) bool {
		return args[0] == "user-2" && VerifyPassword("newpass", args[1].(string))
	})).Return(tag("UPDATE 1"), nil)

	require.NoError(t, svc.SetPassword(ctx, "user-2", "newpass"))
	db.AssertExpectations(t)
}

func TestUserService_SetPassword_TooShort(t *testing.T) {
	db := &mockDB{}
	err := NewUserService(db).SetPassword(context.Background(), "user-2", "abc")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_SetPassword_Missing(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(tag("UPDATE 0"), nil)

	assert.ErrorIs(t, svc.SetPassword(ctx, "ghost", "newpass"), ErrNotFound)
}

func TestUserService_ChangePassword_WrongCurrent(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)
	ctx := context.Background()

	hash, err := HashPassword("oldpass")
	require.NoError(t, err)
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(&mockRow{scanFunc: userScan(model.User{
		ID: "user-1", PasswordHash: hash,
	})})

	err = svc.ChangePassword(ctx, "user-1", "guess", "newpass")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_ChangePassword_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)
	ctx := context.Background()

	hash, err := HashPassword("oldpass")
	require.NoError(t, err)
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(&mockRow{scanFunc: userScan(model.User{
		ID: "user-1", PasswordHash: hash,
	})})
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(tag("UPDATE 1"), nil)

	require.NoError(t, svc.ChangePassword(ctx, "user-1", "oldpass", "newpass"))
	db.AssertExpectations(t)
}

// ---------- Create / EnsureAdmin ----------

func TestUserService_Create_InvalidRole(t *testing.T) {
	_, err := NewUserService(&mockDB{}).Create(context.Background(), "a@b.com", "secret1", nil, model.Role("x"), true)
	assert.True(t, IsValidation(err))
}

func TestUserService_EnsureAdmin(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), argAt(1, "root@example.com")).Return(&mockRow{scanFunc: userScan(model.User{
		ID: "admin-1", Email: "root@example.com", Role: model.RoleAdmin, IsActive: true,
	})})

	u, err := svc.EnsureAdmin(ctx, " root@example.com ", "secret1", nil)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
	assert.True(t, u.IsActive)
}

func TestUserService_UpdateProfile(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)
	ctx := context.Background()

	name := "New Name"
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(&mockRow{scanFunc: userScan(model.User{
		ID: "user-1", FullName: &name,
	})})

	u, err := svc.UpdateProfile(ctx, "user-1", &name, nil)
	require.NoError(t, err)
	assert.Equal(t, "New Name", *u.FullName)
}
