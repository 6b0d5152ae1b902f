package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lbc354/sgp/internal/dto"
	"github.com/lbc354/sgp/internal/model"
)

func newUserService(users *stubUserRepo) *userService {
	return &userService{users: users, totp: &stubTOTP{}, cfg: testConfig()}
}

func TestRegisterUsesDefaultPassword(t *testing.T) {
	users := newStubUserRepo()
	svc := newUserService(users)

	resp, err := svc.Register(context.Background(), dto.RegisterUserRequest{
		Username: "  alice ", FirstName: "Alice", Role: "staff",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Username, "whitespace trimmed")
	assert.True(t, resp.Active)
	assert.True(t, resp.Available)

	stored, err := users.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(stored.PasswordHash), []byte("@PassWord123")))
}

func TestUpdateOwnRoleRejected(t *testing.T) {
	users := newStubUserRepo()
	svc := newUserService(users)
	boss := users.add(model.User{Username: "boss", Role: model.RoleManager, Active: true})

	_, err := svc.Update(context.Background(),
		Viewer{ID: boss.ID, Role: model.RoleManager}, boss.ID,
		dto.UpdateUserRequest{Role: "staff"})
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "role", fieldErr.Field)
}

func TestManagerPromotesAnotherUser(t *testing.T) {
	users := newStubUserRepo()
	svc := newUserService(users)
	boss := users.add(model.User{Username: "boss", Role: model.RoleManager, Active: true})
	alice := users.add(model.User{Username: "alice", Role: model.RoleStaff, Active: true})

	resp, err := svc.Update(context.Background(),
		Viewer{ID: boss.ID, Role: model.RoleManager}, alice.ID,
		dto.UpdateUserRequest{Role: "manager"})
	require.NoError(t, err)
	assert.Equal(t, "manager", resp.Role)
}

func TestResetUserPasswordRestoresDefault(t *testing.T) {
	users := newStubUserRepo()
	svc := newUserService(users)
	alice := users.add(model.User{Username: "alice", Role: model.RoleStaff,
		PasswordHash: "something-else", Active: true})

	require.NoError(t, svc.ResetUserPassword(context.Background(), alice.ID))

	stored, _ := users.FindByID(context.Background(), alice.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(stored.PasswordHash), []byte("@PassWord123")))
}

func TestDisableMFAClearsSecret(t *testing.T) {
	users := newStubUserRepo()
	svc := newUserService(users)
	alice := users.add(model.User{Username: "alice", Role: model.RoleStaff,
		MFASecret: "SECRET", MFAEnabled: true, Active: true})

	require.NoError(t, svc.DisableMFA(context.Background(), alice.ID))

	stored, _ := users.FindByID(context.Background(), alice.ID)
	assert.False(t, stored.MFAEnabled)
	assert.Empty(t, stored.MFASecret, "a fresh secret is issued on next login")
}

func TestProfileProvisionsSecretAndWarns(t *testing.T) {
	users := newStubUserRepo()
	svc := newUserService(users)
	alice := users.add(model.User{Username: "alice", Role: model.RoleStaff, Active: true})

	resp, err := svc.Profile(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.OTPAuthURI)
	assert.NotEmpty(t, resp.QRCode)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "two-factor")

	stored, _ := users.FindByID(context.Background(), alice.ID)
	assert.Equal(t, "SECRET", stored.MFASecret)
	assert.False(t, stored.MFAEnabled)
}

func TestListPaginates(t *testing.T) {
	users := newStubUserRepo()
	svc := newUserService(users)
	svc.cfg.PerPage = 2
	for _, name := range []string{"alice", "bob", "carol"} {
		users.add(model.User{Username: name, Role: model.RoleStaff, Active: true})
	}

	resp, err := svc.List(context.Background(), true, 2)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "carol", resp.Items[0].Username)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
	assert.Equal(t, 2, resp.Pagination.CurrentPage)
}
