package sync

import (
	"context"
	"errors"

	"github.com/iudanet/confsync/internal/models"
)

// Trigger объединяет запросы на синхронизацию: запрос во время цикла
// означает "запустить еще раз", но не второй параллельный цикл.
type Trigger struct {
	requests chan struct{}
}

// NewTrigger создает триггер
func NewTrigger() *Trigger {
	return &Trigger{requests: make(chan struct{}, 1)}
}

// Request запрашивает цикл. Не блокируется; повторные запросы до начала
// следующего цикла схлопываются в один.
func (t *Trigger) Request() {
	select {
	case t.requests <- struct{}{}:
	default:
	}
}

// Run вызывает cycle на каждый запрос до отмены ctx. Ошибки цикла
// передаются в onError; Run не повторяет неуспешный цикл сам.
func (t *Trigger) Run(ctx context.Context, cycle func(ctx context.Context) error, onError func(error)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.requests:
		}

		err := cycle(ctx)
		if err == nil || errors.Is(err, models.ErrCycleInProgress) {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		if onError != nil {
			onError(err)
		}
	}
}
