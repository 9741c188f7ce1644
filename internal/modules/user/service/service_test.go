package service

import (
	"context"
	"os"
	"testing"

	"anoa.com/yamdb/internal/entity"
	"anoa.com/yamdb/internal/modules/user/dto"
	"anoa.com/yamdb/internal/policy"
	"anoa.com/yamdb/pkg/apperror"
	commonDto "anoa.com/yamdb/pkg/dto"
	"anoa.com/yamdb/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := validator.Register(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func strPtr(s string) *string { return &s }

func newUserFixture(t *testing.T) (UserService, *fakeUserRepo, *entity.User, *entity.User) {
	t.Helper()
	enforcer, err := policy.New()
	require.NoError(t, err)

	repo := newFakeUserRepo()
	admin := &entity.User{Username: "root", Email: "root@x.com", Role: entity.RoleAdmin, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), admin))
	alice := &entity.User{Username: "alice", Email: "a@x.com", Role: entity.RoleUser, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), alice))

	return NewUserService(repo, enforcer), repo, admin, alice
}

func TestAdminManagesUsers(t *testing.T) {
	svc, repo, admin, _ := newUserFixture(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, admin, dto.CreateUserRequest{Username: "bob", Email: "b@x.com", Role: entity.RoleModerator})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleModerator, created.Role)

	bob, err := repo.FindByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, bob.IsActive)

	list, err := svc.ListUsers(ctx, admin, commonDto.SearchFilter{Search: "bo"})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "bob", list.Data[0].Username)
	assert.Equal(t, int64(1), list.Meta.TotalItems)

	updated, err := svc.UpdateUser(ctx, admin, "bob", dto.UpdateUserRequest{Role: strPtr(entity.RoleAdmin), Bio: strPtr("hi")})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, updated.Role)
	assert.Equal(t, "hi", *updated.Bio)

	require.NoError(t, svc.DeleteUser(ctx, admin, "bob"))
	_, err = svc.GetUser(ctx, admin, "bob")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCreateUserRejectsDuplicatesAndReserved(t *testing.T) {
	svc, _, admin, _ := newUserFixture(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, admin, dto.CreateUserRequest{Username: "alice", Email: "new@x.com"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = svc.CreateUser(ctx, admin, dto.CreateUserRequest{Username: "new", Email: "a@x.com"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = svc.CreateUser(ctx, admin, dto.CreateUserRequest{Username: "me", Email: "me@x.com"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestNonAdminCannotManageUsers(t *testing.T) {
	svc, _, _, alice := newUserFixture(t)
	ctx := context.Background()

	_, err := svc.ListUsers(ctx, alice, commonDto.SearchFilter{})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.ListUsers(ctx, nil, commonDto.SearchFilter{})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	err = svc.DeleteUser(ctx, alice, "root")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestUpdateMeIgnoresRole(t *testing.T) {
	svc, repo, _, alice := newUserFixture(t)
	ctx := context.Background()

	resp, err := svc.UpdateMe(ctx, alice, dto.UpdateUserRequest{
		FirstName: strPtr("Alice"),
		Role:      strPtr(entity.RoleAdmin),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", resp.FirstName)
	assert.Equal(t, entity.RoleUser, resp.Role)

	stored, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, stored.Role)
}

func TestUpdateMeRejectsTakenUsername(t *testing.T) {
	svc, _, _, alice := newUserFixture(t)

	_, err := svc.UpdateMe(context.Background(), alice, dto.UpdateUserRequest{Username: strPtr("root")})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	// Keeping one's own username is not a conflict.
	_, err = svc.UpdateMe(context.Background(), alice, dto.UpdateUserRequest{Username: strPtr("alice")})
	assert.NoError(t, err)
}

func TestGetMe(t *testing.T) {
	svc, _, _, alice := newUserFixture(t)

	resp, err := svc.GetMe(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Username)

	_, err = svc.GetMe(context.Background(), nil)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
