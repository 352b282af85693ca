package handlers

import "context"

// contextKey тип для ключей контекста
type contextKey string

// DeviceIDKey ключ для хранения device_id в контексте
const DeviceIDKey contextKey = "device_id"

// WithDeviceID возвращает контекст с deviceId аутентифицированного устройства
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, DeviceIDKey, deviceID)
}

// GetDeviceID извлекает device_id из контекста запроса
func GetDeviceID(ctx context.Context) (string, bool) {
	deviceID, ok := ctx.Value(DeviceIDKey).(string)
	return deviceID, ok && deviceID != ""
}
