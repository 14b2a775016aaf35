package user

import (
	"context"
	"testing"

	"tecnicosrd/models"
	"tecnicosrd/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const goodPassword = "Clave#2024"

func newTestService(t *testing.T) (*DefaultUserService, *memoryUserRepo, *utils.MemoryCache, *fakeRewarder) {
	t.Helper()
	utils.SetLogger(zap.NewNop())
	repo := newMemoryUserRepo()
	cache := utils.NewMemoryCache()
	rewards := &fakeRewarder{}
	return &DefaultUserService{Repo: repo, AuthCache: cache, Rewards: rewards}, repo, cache, rewards
}

func register(t *testing.T, svc *DefaultUserService, email, role string) *models.User {
	t.Helper()
	u, err := svc.Register(context.Background(), models.UserRegistrationRequest{
		Name:        "Juan Pérez",
		Email:       email,
		Password:    goodPassword,
		PhoneNumber: "+1 (809) 555-1234",
		Role:        role,
	})
	require.NoError(t, err)
	return u
}

func TestVerifyPasswordComplexity(t *testing.T) {
	assert.Error(t, VerifyPasswordComplexity("Ab1#"))
	assert.Error(t, VerifyPasswordComplexity("abcdefg1#"))
	assert.Error(t, VerifyPasswordComplexity("ABCDEFG1#"))
	assert.Error(t, VerifyPasswordComplexity("Abcdefgh#"))
	assert.Error(t, VerifyPasswordComplexity("Abcdefgh1"))
	assert.NoError(t, VerifyPasswordComplexity(goodPassword))
}

func TestNormalizePhone(t *testing.T) {
	got, err := NormalizePhone("829-555-0000")
	require.NoError(t, err)
	assert.Equal(t, "8295550000", got)

	got, err = NormalizePhone("+1 849 555 0000")
	require.NoError(t, err)
	assert.Equal(t, "8495550000", got)

	_, err = NormalizePhone("212-555-0000")
	assert.Error(t, err)
	_, err = NormalizePhone("809555")
	assert.Error(t, err)
}

func TestRegister(t *testing.T) {
	svc, repo, _, rewards := newTestService(t)
	u := register(t, svc, "Juan@Example.com ", "")

	assert.Equal(t, models.RoleCustomer, u.Role)
	assert.Equal(t, "juan@example.com", u.Email)
	assert.Equal(t, "8095551234", u.PhoneNumber)
	assert.Empty(t, u.PasswordHash)

	stored, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, goodPassword, stored.PasswordHash)
	assert.Equal(t, []string{u.ID}, rewards.profiles)
	assert.Equal(t, []string{u.ID + ":signup"}, rewards.awards)
}

func TestRegisterRejects(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, "ana@example.com", models.RoleTechnician)

	base := models.UserRegistrationRequest{Name: "Ana", Email: "ana@example.com", Password: goodPassword, PhoneNumber: "8095550000"}
	_, err := svc.Register(ctx, base)
	assert.ErrorIs(t, err, ErrEmailTaken)

	admin := base
	admin.Email = "boss@example.com"
	admin.Role = models.RoleAdmin
	_, err = svc.Register(ctx, admin)
	assert.ErrorIs(t, err, ErrInvalidRole)

	weak := base
	weak.Email = "weak@example.com"
	weak.Password = "password"
	_, err = svc.Register(ctx, weak)
	var verr *utils.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)

	badEmail := base
	badEmail.Email = "not-an-email"
	_, err = svc.Register(ctx, badEmail)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, _, cache, _ := newTestService(t)
	ctx := context.Background()
	u := register(t, svc, "luis@example.com", models.RoleTechnician)

	_, err := svc.Login(ctx, models.LoginRequest{Email: "luis@example.com", Password: "Wrong#2024"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: goodPassword})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := svc.Login(ctx, models.LoginRequest{Email: "LUIS@example.com", Password: goodPassword, DeviceID: "phone"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, resp.ID)
	assert.Equal(t, models.RoleTechnician, resp.Role)
	assert.Equal(t, "phone", resp.DeviceID)

	claims, err := svc.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "phone", claims.DeviceID)

	// cache miss falls back to the stored session
	require.NoError(t, cache.Delete(ctx, utils.AuthCacheKey(u.ID, "phone")))
	_, err = svc.Authenticate(ctx, resp.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, u.ID, "phone"))
	_, err = svc.Authenticate(ctx, resp.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.Authenticate(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestChangePasswordSignsOutOtherDevices(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()
	u := register(t, svc, "rosa@example.com", "")

	phone, err := svc.Login(ctx, models.LoginRequest{Email: "rosa@example.com", Password: goodPassword, DeviceID: "phone"})
	require.NoError(t, err)
	laptop, err := svc.Login(ctx, models.LoginRequest{Email: "rosa@example.com", Password: goodPassword, DeviceID: "laptop"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, u.ID, "Wrong#2024", "Nueva#2025", "phone")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, goodPassword, "Nueva#2025", "phone"))

	_, err = svc.Authenticate(ctx, phone.Token)
	assert.NoError(t, err)
	_, err = svc.Authenticate(ctx, laptop.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)

	stored, _ := repo.GetByID(ctx, u.ID)
	require.Len(t, stored.Sessions, 1)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "rosa@example.com", Password: "Nueva#2025"})
	assert.NoError(t, err)
}

func TestUpdateAndDelete(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	u := register(t, svc, "pedro@example.com", "")

	city := "Santiago"
	token := "fcm-token"
	updated, err := svc.Update(ctx, u.ID, models.UserUpdateRequest{City: &city, FCMToken: &token})
	require.NoError(t, err)
	assert.Equal(t, "Santiago", updated.City)
	assert.Empty(t, updated.FCMToken)

	bad := "123"
	_, err = svc.Update(ctx, u.ID, models.UserUpdateRequest{PhoneNumber: &bad})
	var verr *utils.ValidationError
	assert.ErrorAs(t, err, &verr)

	require.NoError(t, svc.Delete(ctx, u.ID))
	_, err = svc.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, u.ID), ErrUserNotFound)
}

func TestProfileEditDoesNotRestoreRevokedSession(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()
	u := register(t, svc, "carmen@example.com", "")
	resp, err := svc.Login(ctx, models.LoginRequest{Email: "carmen@example.com", Password: goodPassword, DeviceID: "tablet"})
	require.NoError(t, err)

	// the logout lands between the read and the write of the edit
	repo.afterGet = func() {
		require.NoError(t, svc.Logout(ctx, u.ID, "tablet"))
	}
	city := "La Romana"
	updated, err := svc.Update(ctx, u.ID, models.UserUpdateRequest{City: &city})
	require.NoError(t, err)
	assert.Equal(t, "La Romana", updated.City)
	assert.Empty(t, updated.Sessions)

	_, err = svc.Authenticate(ctx, resp.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestDeleteRetiresTechnicianAndGamificationProfiles(t *testing.T) {
	svc, _, _, rewards := newTestService(t)
	ctx := context.Background()
	u := register(t, svc, "tecnico@example.com", models.RoleTechnician)
	profiles := &fakeTechnicianProfiles{techs: map[string]*models.Technician{
		"tech-1": {ID: "tech-1", UserID: u.ID, Active: true},
		"tech-2": {ID: "tech-2", UserID: "someone-else", Active: true},
	}}
	svc.Technicians = profiles

	require.NoError(t, svc.Delete(ctx, u.ID))
	assert.False(t, profiles.techs["tech-1"].Active)
	assert.True(t, profiles.techs["tech-2"].Active)
	assert.Equal(t, []string{u.ID}, rewards.removed)

	// customers have no technician profile
	c := register(t, svc, "cliente@example.com", "")
	require.NoError(t, svc.Delete(ctx, c.ID))
	assert.Equal(t, []string{u.ID, c.ID}, rewards.removed)
}
