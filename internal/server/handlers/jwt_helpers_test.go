package handlers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDeviceToken(t *testing.T) {
	cfg := JWTConfig{Secret: []byte("test-secret"), AccessTokenTTL: time.Hour}

	token, expiresIn, err := GenerateDeviceToken(cfg, "laptop")
	require.NoError(t, err)
	assert.Equal(t, int64(3600), expiresIn)

	claims, err := ValidateDeviceToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "laptop", claims.DeviceID())
	assert.Equal(t, "confsync", claims.Issuer)
	require.NotNil(t, claims.ExpiresAt)
}

func TestGenerateDeviceToken_NoExpiry(t *testing.T) {
	cfg := JWTConfig{Secret: []byte("test-secret")}

	token, expiresIn, err := GenerateDeviceToken(cfg, "laptop")
	require.NoError(t, err)
	assert.Zero(t, expiresIn)

	claims, err := ValidateDeviceToken(cfg, token)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
}

func TestGenerateDeviceToken_RequiresDevice(t *testing.T) {
	_, _, err := GenerateDeviceToken(JWTConfig{Secret: []byte("s")}, "")
	assert.Error(t, err)
}

func TestValidateDeviceToken_Invalid(t *testing.T) {
	cfg := JWTConfig{Secret: []byte("test-secret"), AccessTokenTTL: time.Hour}

	valid, _, err := GenerateDeviceToken(cfg, "laptop")
	require.NoError(t, err)

	expired, _, err := GenerateDeviceToken(JWTConfig{Secret: cfg.Secret, AccessTokenTTL: -time.Hour}, "laptop")
	require.NoError(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, DeviceClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "laptop", Issuer: "someone-else"},
	})
	foreignToken, err := foreign.SignedString(cfg.Secret)
	require.NoError(t, err)

	noSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, DeviceClaims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer},
	})
	noSubjectToken, err := noSubject.SignedString(cfg.Secret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		cfg   JWTConfig
	}{
		{name: "garbage", token: "not-a-token", cfg: cfg},
		{name: "wrong secret", token: valid, cfg: JWTConfig{Secret: []byte("other")}},
		{name: "expired", token: expired, cfg: cfg},
		{name: "foreign issuer", token: foreignToken, cfg: cfg},
		{name: "missing subject", token: noSubjectToken, cfg: cfg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateDeviceToken(tt.cfg, tt.token)
			assert.Error(t, err)
		})
	}
}
