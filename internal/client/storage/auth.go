package storage

import "context"

// CredentialStorage хранит токен доступа к relay-серверу.
// Токен хранится как есть: он уже привязан к deviceId и отзывается на сервере.
type CredentialStorage interface {
	// SaveCredentials заменяет сохраненный токен
	SaveCredentials(ctx context.Context, creds *Credentials) error

	// GetCredentials возвращает ErrCredentialsNotFound, если токена нет
	GetCredentials(ctx context.Context) (*Credentials, error)

	// DeleteCredentials удаляет токен (logout)
	DeleteCredentials(ctx context.Context) error
}

// Credentials токен устройства для relay-сервера
type Credentials struct {
	Token     string `json:"token"`
	DeviceID  string `json:"device_id"`  // DeviceID subject токена
	ExpiresAt int64  `json:"expires_at"` // ExpiresAt unix-секунды, 0 - бессрочный
}
