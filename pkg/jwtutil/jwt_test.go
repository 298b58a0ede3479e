package jwtutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	util := NewJWTUtil(&JWTConfig{SigningKey: "test-key", ExpirationHours: 1})
	tenantID := uint(7)

	token, err := util.GenerateTokenWithTenant("admin@complex.test", 42, &tenantID, "Torres del Parque", "admin")
	require.NoError(t, err)

	claims, err := util.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	require.NotNil(t, claims.TenantID)
	assert.Equal(t, uint(7), *claims.TenantID)
	assert.Equal(t, "admin", claims.Role)
}

func TestValidateToken_WrongKey(t *testing.T) {
	signer := NewJWTUtil(&JWTConfig{SigningKey: "key-a", ExpirationHours: 1})
	verifier := NewJWTUtil(&JWTConfig{SigningKey: "key-b", ExpirationHours: 1})

	token, err := signer.GenerateTokenWithTenant("resident@complex.test", 1, nil, "", "resident")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	util := NewJWTUtil(&JWTConfig{SigningKey: "key", ExpirationHours: -1})

	token, err := util.GenerateTokenWithTenant("resident@complex.test", 1, nil, "", "resident")
	require.NoError(t, err)

	_, err = util.ValidateToken(token)
	assert.Error(t, err)
}

func TestNilConfig(t *testing.T) {
	util := NewJWTUtil(nil)
	_, err := util.GenerateTokenWithTenant("x", 1, nil, "", "")
	assert.Error(t, err)
	_, err = util.ValidateToken("abc")
	assert.Error(t, err)
}
