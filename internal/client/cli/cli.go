// Package cli реализует команды клиента confsync: локальные правки,
// просмотр конфигурации, синхронизацию и сброс корня.
package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iudanet/confsync/internal/client/iocli"
	"github.com/iudanet/confsync/internal/client/storage"
	"github.com/iudanet/confsync/internal/client/sync"
	"github.com/iudanet/confsync/internal/config"
	"github.com/iudanet/confsync/internal/models"
	"github.com/iudanet/confsync/internal/transport"
)

//go:generate moq -out engine_mock.go . Engine

// Engine операции координатора синхронизации, которые использует CLI
type Engine interface {
	SetField(ctx context.Context, entityType models.EntityType, entityID, field string, value models.Value) (models.Operation, error)
	DeleteEntity(ctx context.Context, entityType models.EntityType, entityID string) (models.Operation, error)
	Domain(ctx context.Context) (map[string]*models.DomainEntity, error)
	Status(ctx context.Context) (*sync.Status, error)
	RunCycle(ctx context.Context) (*sync.CycleResult, error)
	PreviewReset(ctx context.Context) (*transport.ResetPreview, error)
	Reset(ctx context.Context) (*sync.CycleResult, error)
}

//go:generate moq -out authenticator_mock.go . Authenticator

// Authenticator хранит токен устройства для relay-сервера
type Authenticator interface {
	Login(ctx context.Context, token string) (*storage.Credentials, error)
	Logout(ctx context.Context) error
}

// Session открытое локальное хранилище и транспорт одного запуска команды
type Session struct {
	Engine Engine
	Auth   Authenticator
	// Watch блокируется, вызывая onChange при появлении объектов других
	// устройств. nil, если транспорт не умеет уведомлять.
	Watch   func(ctx context.Context, onChange func()) error
	Metrics prometheus.Gatherer
	Close   func() error
}

// Opener открывает сессию по настройкам
type Opener func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Session, error)

type Cli struct {
	io     iocli.IO
	engine Engine
	auth   Authenticator
	logger *slog.Logger
}

func New(out iocli.IO, engine Engine, logger *slog.Logger) *Cli {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cli{
		io:     out,
		engine: engine,
		logger: logger,
	}
}

// WithAuth подключает хранилище токена для login и logout
func (c *Cli) WithAuth(auth Authenticator) *Cli {
	c.auth = auth
	return c
}
