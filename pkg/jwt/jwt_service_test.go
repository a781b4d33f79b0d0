package jwt

import (
	"testing"
	"time"

	"recipehub-backend/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserTokenRoundTrip(t *testing.T) {
	service := NewJWTService()

	token := service.GenerateTokenUser("user-123", domain.RoleUser)
	require.NotEmpty(t, token)

	id, role, err := service.GetUserIDByToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", id)
	assert.Equal(t, domain.RoleUser, role)
}

func TestInvalidUserToken(t *testing.T) {
	service := NewJWTService()

	_, _, err := service.GetUserIDByToken("not-a-token")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestExpiredUserToken(t *testing.T) {
	service := NewJWTService()

	token, err := service.GenerateTokenForgetPassword(map[string]any{
		"user_id": "user-123",
	}, -time.Minute)
	require.NoError(t, err)

	_, err = service.ValidateTokenForgetPassword(token)
	assert.Error(t, err)
}

func TestForgetPasswordTokenRoundTrip(t *testing.T) {
	service := NewJWTService()

	token, err := service.GenerateTokenForgetPassword(map[string]any{
		"user_id": "user-123",
	}, time.Minute*30)
	require.NoError(t, err)

	claims, err := service.ValidateTokenForgetPassword(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims["user_id"])
}
