package sync

import (
	"time"

	"github.com/iudanet/confsync/internal/models"
)

// Phase состояние цикла синхронизации
type Phase int32

// Cycle phases
const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseMerging
	PhaseDiffing
	PhasePublishing
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseMerging:
		return "merging"
	case PhaseDiffing:
		return "diffing"
	case PhasePublishing:
		return "publishing"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CycleResult contains sync cycle results
type CycleResult struct {
	// FailedIn фаза, в которой цикл завершился ошибкой (PhaseIdle для успешного)
	FailedIn           Phase
	UnreachableDevices []string                         // устройства, чей лог не удалось прочитать
	Corrupt            []*models.CorruptOperationError  // пропущенные поврежденные записи
	Collisions         []*models.IdentityCollisionError // сущности в карантине
	Duration           time.Duration
	Applied            int  // удаленные операции, изменившие состояние
	Emitted            int  // опубликованные локальные правки
	Overwritten        int  // локальные правки, вытесненные более новыми удаленными
	Ignored            int  // объекты и операции, отсеченные водяным знаком сброса
	Changed            int  // локальные сущности, измененные удаленными записями
	Degraded           bool // часть логов недоступна, слияние best-effort
	Compacted          bool // опубликован новый снапшот
}

// result метка для метрик
func (r *CycleResult) result() string {
	switch {
	case r.FailedIn != PhaseIdle:
		return "failed"
	case r.Degraded:
		return "degraded"
	default:
		return "ok"
	}
}
