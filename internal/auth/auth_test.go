package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys_GenerateAndValidate(t *testing.T) {
	k, err := NewKeys([]byte("test-secret"))
	require.NoError(t, err)

	tkn, err := k.GenerateToken(NewClaims("42", time.Minute, RoleUser))
	require.NoError(t, err)

	claims, err := k.ValidateToken(tkn)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.True(t, claims.HasRole(RoleUser))
	assert.False(t, claims.HasRole(RoleAdmin))
}

func TestKeys_ValidateToken_Rejects(t *testing.T) {
	k, err := NewKeys([]byte("test-secret"))
	require.NoError(t, err)
	other, err := NewKeys([]byte("other-secret"))
	require.NoError(t, err)

	foreign, err := other.GenerateToken(NewClaims("42", time.Minute, RoleUser))
	require.NoError(t, err)
	expired, err := k.GenerateToken(NewClaims("42", -time.Minute, RoleUser))
	require.NoError(t, err)
	noSubject, err := k.GenerateToken(NewClaims("", time.Minute, RoleUser))
	require.NoError(t, err)

	tt := []struct {
		name  string
		token string
	}{
		{name: "wrong secret", token: foreign},
		{name: "expired", token: expired},
		{name: "missing subject", token: noSubject},
		{name: "garbage", token: "not-a-token"},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := k.ValidateToken(tc.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewKeys_EmptySecret(t *testing.T) {
	_, err := NewKeys(nil)
	assert.Error(t, err)
}
