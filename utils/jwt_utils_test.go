package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazario/api/models"
)

func TestJWTRoundTrip(t *testing.T) {
	user := &models.User{
		ID:           42,
		Email:        "buyer@example.com",
		Role:         models.RoleCustomer,
		AuthProvider: models.AuthProviderGoogle,
	}

	tokenString, err := GenerateJWT(user)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := ValidateJWT(tokenString)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "buyer@example.com", claims.Email)
	assert.Equal(t, models.RoleCustomer, claims.Role)
	assert.Equal(t, models.AuthProviderGoogle, claims.AuthProvider)
	assert.Equal(t, "bazario-api", claims.Issuer)
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	_, err := ValidateJWT("not-a-token")
	assert.Error(t, err)
}

func TestValidateJWTRejectsTampering(t *testing.T) {
	user := &models.User{ID: 1, Email: "a@example.com", Role: models.RoleCustomer}
	tokenString, err := GenerateJWT(user)
	require.NoError(t, err)

	_, err = ValidateJWT(tokenString + "x")
	assert.Error(t, err)
}
