package services

import (
	"testing"

	"tradehub_backend/internal/auth"
	"tradehub_backend/internal/config"
	"tradehub_backend/internal/models"
	"tradehub_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestConfig(t *testing.T) {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.TTL = 60
	config.AppConfig = cfg
}

func TestRegisterAndLogin(t *testing.T) {
	setTestConfig(t)
	svc := NewAuthService(newFakeUserRepo())

	resp, err := svc.Register(&models.RegisterRequest{
		Email:    "trader@example.com",
		Password: "hunter22hunter22",
		Name:     "Sam Trader",
		Role:     models.UserRoleTrader,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.NotEqual(t, "hunter22hunter22", resp.User.PasswordHash)

	claims, err := auth.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, models.UserRoleTrader, claims.Role)

	login, err := svc.Login(&models.LoginRequest{
		Email:    "trader@example.com",
		Password: "hunter22hunter22",
	})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	setTestConfig(t)
	svc := NewAuthService(newFakeUserRepo())

	req := &models.RegisterRequest{
		Email:    "dup@example.com",
		Password: "hunter22hunter22",
		Name:     "Dup",
		Role:     models.UserRoleCustomer,
	}
	_, err := svc.Register(req)
	require.NoError(t, err)

	_, err = svc.Register(req)
	assert.True(t, apperrors.Is(err, apperrors.ErrEmailAlreadyExists))
}

func TestLogin_WrongPassword(t *testing.T) {
	setTestConfig(t)
	svc := NewAuthService(newFakeUserRepo())

	_, err := svc.Register(&models.RegisterRequest{
		Email:    "who@example.com",
		Password: "correct-horse-battery",
		Name:     "Who",
		Role:     models.UserRoleTrader,
	})
	require.NoError(t, err)

	_, err = svc.Login(&models.LoginRequest{Email: "who@example.com", Password: "wrong"})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidCredentials))

	_, err = svc.Login(&models.LoginRequest{Email: "nobody@example.com", Password: "wrong"})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidCredentials))
}
