package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/iudanet/confsync/internal/models"
	"github.com/iudanet/confsync/internal/server/handlers"
	"github.com/iudanet/confsync/internal/server/storage"
)

// DeviceRegistry проверяет, что устройство зарегистрировано и не отозвано
type DeviceRegistry interface {
	GetDevice(ctx context.Context, deviceID string) (*models.Device, error)
	UpdateLastSeen(ctx context.Context, deviceID string, at time.Time) error
}

// AuthMiddleware создает middleware для проверки JWT токена устройства.
// registry может быть nil, тогда достаточно валидной подписи.
func AuthMiddleware(logger *slog.Logger, jwtConfig handlers.JWTConfig, registry DeviceRegistry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Ожидаем формат: "Bearer <token>"
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("Missing Authorization header")
				unauthorized(w, "missing token")
				return
			}

			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
				logger.Warn("Invalid Authorization header format")
				unauthorized(w, "invalid token format")
				return
			}

			claims, err := handlers.ValidateDeviceToken(jwtConfig, tokenString)
			if err != nil {
				logger.Warn("Invalid access token", "error", err)
				unauthorized(w, "invalid token")
				return
			}
			deviceID := claims.DeviceID()

			if registry != nil {
				device, err := registry.GetDevice(r.Context(), deviceID)
				switch {
				case errors.Is(err, storage.ErrDeviceNotFound):
					logger.Warn("Token for unknown device", "device_id", deviceID)
					unauthorized(w, "unknown device")
					return
				case err != nil:
					logger.Error("Failed to load device", "device_id", deviceID, "error", err)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				case device.Revoked():
					logger.Warn("Token for revoked device", "device_id", deviceID)
					unauthorized(w, "device revoked")
					return
				}

				if err := registry.UpdateLastSeen(r.Context(), deviceID, time.Now()); err != nil {
					logger.Warn("Failed to update last seen", "device_id", deviceID, "error", err)
				}
			}

			r, info := withRequestInfo(r)
			info.deviceID = deviceID
			logger.Debug("Device authenticated", "device_id", deviceID)

			next.ServeHTTP(w, r.WithContext(handlers.WithDeviceID(r.Context(), deviceID)))
		})
	}
}

func unauthorized(w http.ResponseWriter, reason string) {
	http.Error(w, "Unauthorized: "+reason, http.StatusUnauthorized)
}
