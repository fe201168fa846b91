package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/internal/model"
)

func testUser() *model.User {
	doctorID := uuid.New()
	return &model.User{
		ID:       uuid.New(),
		Email:    "doc@clinic.local",
		DoctorID: &doctorID,
		Roles:    []string{model.RoleDoctor},
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	user := testUser()

	token, expiresAt, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Roles, claims.Roles)
	require.NotNil(t, claims.DoctorID)
	assert.Equal(t, *user.DoctorID, *claims.DoctorID)
	assert.True(t, claims.HasRole(model.RoleDoctor))
	assert.False(t, claims.HasRole(model.RoleAdmin))
}

func TestAccessTokenWithoutDoctorLink(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	user := &model.User{ID: uuid.New(), Email: "rec@clinic.local", Roles: []string{model.RoleReceptionist}}

	token, _, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Nil(t, claims.DoctorID)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	user := testUser()

	token, _, err := svc.GenerateRefreshToken(user)
	require.NoError(t, err)

	userID, err := svc.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	user := testUser()

	access, _, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	refresh, _, err := svc.GenerateRefreshToken(user)
	require.NoError(t, err)

	_, err = svc.ValidateRefreshToken(access)
	assert.Error(t, err)
	_, err = svc.ValidateToken(refresh)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret", -time.Minute, 24*time.Hour)

	token, _, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestWrongSecretRejected(t *testing.T) {
	issuer := NewJWTService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	verifier := NewJWTService("other-secret", "refresh-secret", time.Hour, 24*time.Hour)

	token, _, err := issuer.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}
