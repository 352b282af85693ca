// Package auth управляет токеном устройства для relay-сервера.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/confsync/internal/client/storage"
)

var (
	// ErrTokenDevice токен выпущен для другого устройства
	ErrTokenDevice = errors.New("token was issued for another device")
	// ErrTokenExpired срок действия токена истек
	ErrTokenExpired = errors.New("token has expired")
)

// Service сохраняет токен relay-сервера в локальном хранилище
type Service struct {
	storage  storage.CredentialStorage
	now      func() time.Time
	deviceID string
}

// NewService создает сервис для устройства deviceID
func NewService(store storage.CredentialStorage, deviceID string) *Service {
	return &Service{
		storage:  store,
		deviceID: deviceID,
		now:      time.Now,
	}
}

// WithNow подменяет часы (для тестов)
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Login проверяет, что токен выпущен для этого устройства и не истек, и
// сохраняет его. Подпись проверяет только сервер: секрета у клиента нет.
func (s *Service) Login(ctx context.Context, token string) (*storage.Credentials, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("token cannot be empty")
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims.Subject != s.deviceID {
		return nil, fmt.Errorf("%w: token subject %q, this device %q", ErrTokenDevice, claims.Subject, s.deviceID)
	}

	creds := &storage.Credentials{Token: token, DeviceID: claims.Subject}
	if claims.ExpiresAt != nil {
		creds.ExpiresAt = claims.ExpiresAt.Unix()
		if !s.now().Before(claims.ExpiresAt.Time) {
			return nil, ErrTokenExpired
		}
	}

	if err := s.storage.SaveCredentials(ctx, creds); err != nil {
		return nil, fmt.Errorf("failed to save credentials: %w", err)
	}
	return creds, nil
}

// Logout удаляет сохраненный токен
func (s *Service) Logout(ctx context.Context) error {
	if err := s.storage.DeleteCredentials(ctx); err != nil {
		if errors.Is(err, storage.ErrCredentialsNotFound) {
			return errors.New("not logged in")
		}
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}

// Token возвращает сохраненный токен. Пустая строка без ошибки означает,
// что login не выполнялся.
func (s *Service) Token(ctx context.Context) (string, error) {
	creds, err := s.storage.GetCredentials(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrCredentialsNotFound) {
			return "", nil
		}
		return "", err
	}

	if creds.ExpiresAt > 0 && !s.now().Before(time.Unix(creds.ExpiresAt, 0)) {
		return "", ErrTokenExpired
	}
	return creds.Token, nil
}
