package service_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ignatzorin/parcel-trip-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := service.NewTokenManager("test-secret-test-secret-test-secret")
	userID := uuid.New()

	token, err := tm.Issue(userID, "user@example.com", time.Hour)
	require.NoError(t, err)

	id, err := tm.ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, userID, id.UserID)
	assert.Equal(t, "user@example.com", id.Email)
}

func TestTokenManager_Rejects(t *testing.T) {
	tm := service.NewTokenManager("test-secret-test-secret-test-secret")

	expired, err := tm.Issue(uuid.New(), "user@example.com", -time.Minute)
	require.NoError(t, err)
	_, err = tm.ParseAccess(expired)
	assert.Error(t, err)

	foreign, err := service.NewTokenManager("other-secret").Issue(uuid.New(), "user@example.com", time.Hour)
	require.NoError(t, err)
	_, err = tm.ParseAccess(foreign)
	assert.Error(t, err)

	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "user@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := noSub.SignedString([]byte("test-secret-test-secret-test-secret"))
	require.NoError(t, err)
	_, err = tm.ParseAccess(signed)
	assert.Error(t, err)

	_, err = tm.ParseAccess("not-a-token")
	assert.Error(t, err)

	badEmail, err := tm.Issue(uuid.New(), "not-an-email", time.Hour)
	require.NoError(t, err)
	_, err = tm.ParseAccess(badEmail)
	assert.Error(t, err)
}
