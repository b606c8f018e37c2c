package jwtx_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/luofilm/luofilm/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "luofilm-auth"}}

	t.Run("matching issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer("luofilm-auth"))
	})

	t.Run("empty expected issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer(""))
	})

	t.Run("mismatched issuer", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateIssuer("someone-else"), jwtx.ErrIssuer)
	})
}

func TestValidateExpiry(t *testing.T) {
	now := time.Now().UTC()

	t.Run("valid window", func(t *testing.T) {
		c := jwtx.NewClaims("u1", nil, time.Minute, "", now)
		require.NoError(t, c.ValidateExpiry())
	})

	t.Run("expired", func(t *testing.T) {
		c := jwtx.NewClaims("u1", nil, time.Minute, "", now.Add(-time.Hour))
		require.ErrorIs(t, c.ValidateExpiry(), jwtx.ErrExpired)
	})

	t.Run("expired but within leeway", func(t *testing.T) {
		c := jwtx.NewClaims("u1", nil, time.Minute, "", now.Add(-61*time.Second))
		require.NoError(t, c.ValidateExpiryWithLeeway(10*time.Second))
	})

	t.Run("not yet valid", func(t *testing.T) {
		c := jwtx.NewClaims("u1", nil, time.Minute, "", now.Add(time.Hour))
		require.ErrorIs(t, c.ValidateExpiry(), jwtx.ErrNotYetValid)
	})
}

func TestHasScope(t *testing.T) {
	c := jwtx.NewClaims("u1", []string{jwtx.ScopeAdminWrite}, time.Minute, "", time.Now())
	require.True(t, c.HasScope("admin:write"))
	require.False(t, c.HasScope("admin:read"))
}
