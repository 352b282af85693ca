package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "confsync"

// DeviceClaims представляет JWT claims токена устройства.
// Subject содержит deviceId.
type DeviceClaims struct {
	jwt.RegisteredClaims
}

// DeviceID возвращает deviceId из claims
func (c *DeviceClaims) DeviceID() string {
	return c.Subject
}

// JWTConfig содержит конфигурацию для JWT
type JWTConfig struct {
	Secret         []byte
	AccessTokenTTL time.Duration
}

// GenerateDeviceToken создает новый JWT токен устройства.
// Нулевой AccessTokenTTL выпускает бессрочный токен.
func GenerateDeviceToken(cfg JWTConfig, deviceID string) (string, int64, error) {
	if deviceID == "" {
		return "", 0, errors.New("device id is required")
	}

	now := time.Now()
	claims := DeviceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   deviceID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}
	if cfg.AccessTokenTTL != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(cfg.AccessTokenTTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(cfg.Secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, int64(cfg.AccessTokenTTL.Seconds()), nil
}

// ValidateDeviceToken валидирует и парсит JWT токен устройства
func ValidateDeviceToken(cfg JWTConfig, tokenString string) (*DeviceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &DeviceClaims{}, func(token *jwt.Token) (any, error) {
		// Проверяем что используется правильный алгоритм подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return cfg.Secret, nil
	}, jwt.WithIssuer(tokenIssuer))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*DeviceClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
