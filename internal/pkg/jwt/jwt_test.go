package jwt

import (
	"context"
	"testing"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimsFromContext(t *testing.T) {
	svc := NewJWTService("test-secret-key-for-jwt", "1h")

	tokenString, expiresAt, err := svc.GenerateAccessToken("user-1", "company-1", RolePayroll)
	require.NoError(t, err)
	assert.NotZero(t, expiresAt)

	token, err := svc.JWTAuth().Decode(tokenString)
	require.NoError(t, err)

	ctx := jwtauth.NewContext(context.Background(), token, nil)
	companyID, userID, err := ClaimsFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "company-1", companyID)
	assert.Equal(t, "user-1", userID)
}

func TestClaimsFromContext_MissingCompany(t *testing.T) {
	svc := NewJWTService("test-secret-key-for-jwt", "1h")

	tokenString, _, err := svc.GenerateAccessToken("user-1", "", RoleEmployee)
	require.NoError(t, err)
	token, err := svc.JWTAuth().Decode(tokenString)
	require.NoError(t, err)

	ctx := jwtauth.NewContext(context.Background(), token, nil)
	_, _, err = ClaimsFromContext(ctx)
	assert.ErrorIs(t, err, ErrMissingCompany)
}

func TestGenerateAccessToken_InvalidDuration(t *testing.T) {
	svc := NewJWTService("secret", "not-a-duration")
	_, _, err := svc.GenerateAccessToken("user-1", "company-1", RoleOwner)
	assert.Error(t, err)
}
