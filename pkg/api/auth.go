package api

// TokenResponse токен устройства, который печатает confsync-server token --json
type TokenResponse struct {
	AccessToken string `json:"access_token"` // JWT access token
	DeviceID    string `json:"device_id"`    // deviceId, записанный в sub
	ExpiresIn   int64  `json:"expires_in"`   // время жизни access token в секундах
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
