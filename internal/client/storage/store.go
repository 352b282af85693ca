// Package storage описывает локальное состояние устройства: идентификатор,
// счетчик операций, базис последнего цикла, доменное состояние и
// неопубликованные правки.
package storage

import (
	"context"

	"github.com/iudanet/confsync/internal/models"
)

//go:generate moq -out store_mock.go . Store

// LocalState все, что устройство хранит между запусками
type LocalState struct {
	Baseline *models.Baseline                // Baseline базис последнего успешного цикла
	Domain   map[string]*models.DomainEntity // Domain доменное состояние с учетом неопубликованных правок
	Pending  []models.Operation              // Pending неопубликованные локальные правки по возрастанию opId
}

// CycleCommit результат успешного цикла синхронизации
type CycleCommit struct {
	// Baseline новый базис; Baseline.Snapshot.Entities - сошедшееся состояние
	Baseline *models.Baseline
	// ConsumedThroughOpID правки с opId <= этого значения учтены циклом
	// (опубликованы или вытеснены) и удаляются из очереди
	ConsumedThroughOpID int64
}

// Store локальное хранилище устройства.
//
// Каждый метод, меняющий состояние, выполняется одной транзакцией.
type Store interface {
	// EnsureDeviceID возвращает идентификатор устройства, создавая его при первом вызове
	EnsureDeviceID(ctx context.Context) (string, error)

	// LoadState читает состояние целиком
	LoadState(ctx context.Context) (*LocalState, error)

	// RecordEdit сохраняет локальную правку: операция ставится в очередь,
	// счетчик opId продвигается, доменное состояние обновляется
	RecordEdit(ctx context.Context, op models.Operation) error

	// CommitCycle атомарно заменяет базис и доменное состояние. Правки,
	// записанные после начала цикла, остаются в очереди и повторно
	// применяются поверх нового доменного состояния.
	CommitCycle(ctx context.Context, commit *CycleCommit) error

	// ResetLocal после сброса корня заменяет очередь правками republish,
	// сбрасывает базис и переводит счетчик на последний opId republish
	ResetLocal(ctx context.Context, baseline *models.Baseline, republish []models.Operation) error
}
