package crdt

import (
	"bytes"
	"context"
	"runtime"
	"slices"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/iudanet/confsync/internal/models"
)

// CompareOperations задает полный порядок над операциями.
// Основной критерий - WriteKey. Одинаковые ключи у разных операций
// (аномалия протокола) разрешаются побайтовым сравнением канонического JSON,
// поэтому результат не зависит от порядка доставки.
func CompareOperations(a, b models.Operation) int {
	if c := a.WriteKey.Compare(b.WriteKey); c != 0 {
		return c
	}
	return bytes.Compare(a.CanonicalBytes(), b.CanonicalBytes())
}

// SortOperations sorts ops in place by CompareOperations.
func SortOperations(ops []models.Operation) {
	slices.SortFunc(ops, CompareOperations)
}

// Apply применяет одну операцию к состоянию сущности и возвращает новое
// состояние. Входное состояние не изменяется (copy-on-write).
// state может быть nil для еще не виденной сущности.
//
// Правила LWW с tombstone:
//   - delete-entity с ключом больше известного tombstone запоминается как
//     новый tombstone и вытесняет все поля с ключом <= tombstone; сущность
//     удалена, если ни одно поле не пережило tombstone
//   - set-field с ключом <= tombstone - no-op
//   - иначе поле записывается, если ключ больше сохраненного (или поля нет),
//     и сущность воскрешается
//
// Операция с типом сущности, отличным от сохраненного, - no-op; такие
// конфликты идентичности обнаруживает MergeAll.
func Apply(state *models.EntityState, op models.Operation) *models.EntityState {
	if state == nil {
		state = models.NewEntityState(op.EntityType, op.EntityID)
	} else {
		state = state.Clone()
	}
	applyInPlace(state, op)
	return state
}

// applyInPlace mutates s and reports whether the operation changed it.
func applyInPlace(s *models.EntityState, op models.Operation) bool {
	if s.EntityType != op.EntityType {
		return false
	}

	switch op.Kind {
	case models.OpDeleteEntity:
		return applyDelete(s, op.WriteKey)
	case models.OpSetField:
		return applySet(s, op)
	default:
		return false
	}
}

func applyDelete(s *models.EntityState, key models.WriteKey) bool {
	// Уже известен tombstone не старше этого - операция вытеснена
	if s.DeletedWriteKey != nil && key.Compare(*s.DeletedWriteKey) <= 0 {
		return false
	}

	tombstone := key
	s.DeletedWriteKey = &tombstone

	// При равенстве ключей удаление выигрывает у записи поля
	for name, f := range s.Fields {
		if f.WriteKey.Compare(key) <= 0 {
			delete(s.Fields, name)
		}
	}

	s.Deleted = len(s.Fields) == 0
	return true
}

func applySet(s *models.EntityState, op models.Operation) bool {
	key := op.WriteKey

	if s.DeletedWriteKey != nil && key.Compare(*s.DeletedWriteKey) <= 0 {
		return false
	}

	if current, ok := s.Fields[op.Field]; ok {
		switch c := key.Compare(current.WriteKey); {
		case c < 0:
			return false
		case c == 0 && models.CompareValues(op.Value, current.Value) <= 0:
			// одинаковые ключи: детерминированно выигрывает большее значение
			return false
		}
	}

	s.Fields[op.Field] = models.FieldState{Value: op.Value, WriteKey: key}
	s.Deleted = false
	return true
}

// Join объединяет два состояния одной сущности так, как если бы были
// свернуты операции обоих: наибольший tombstone, для каждого поля запись с
// наибольшим ключом, поля не новее tombstone отбрасываются. ok=false, если
// типы сущностей различаются. Входные состояния не изменяются.
func Join(a, b *models.EntityState) (*models.EntityState, bool) {
	switch {
	case a == nil:
		return b.Clone(), true
	case b == nil:
		return a.Clone(), true
	case a.EntityType != b.EntityType:
		return nil, false
	}

	joined := a.Clone()
	if b.DeletedWriteKey != nil &&
		(joined.DeletedWriteKey == nil || b.DeletedWriteKey.Compare(*joined.DeletedWriteKey) > 0) {
		tombstone := *b.DeletedWriteKey
		joined.DeletedWriteKey = &tombstone
	}

	for name, f := range b.Fields {
		current, ok := joined.Fields[name]
		if ok {
			c := f.WriteKey.Compare(current.WriteKey)
			if c < 0 || (c == 0 && models.CompareValues(f.Value, current.Value) <= 0) {
				continue
			}
		}
		joined.Fields[name] = f
	}

	if joined.DeletedWriteKey != nil {
		for name, f := range joined.Fields {
			if f.WriteKey.Compare(*joined.DeletedWriteKey) <= 0 {
				delete(joined.Fields, name)
			}
		}
		joined.Deleted = len(joined.Fields) == 0
	} else {
		joined.Deleted = false
	}

	return joined, true
}

// MergeStats итоги слияния
type MergeStats struct {
	Collisions []*models.IdentityCollisionError // Collisions сущности, исключенные из слияния
	Applied    int                              // Applied операции, изменившие состояние
	NoOps      int                              // NoOps вытесненные или повторные операции
	Entities   int                              // Entities сущности, затронутые операциями
}

type mergeConfig struct {
	parallelism int
}

// MergeOption configures MergeAll.
type MergeOption func(*mergeConfig)

// WithParallelism bounds the number of entities folded concurrently.
// Values below 1 mean GOMAXPROCS.
func WithParallelism(n int) MergeOption {
	return func(c *mergeConfig) {
		c.parallelism = n
	}
}

// CheckSchema returns a SchemaTooNewError for the first operation written
// by a newer schema than this engine supports.
func CheckSchema(ops []models.Operation) error {
	for _, op := range ops {
		if op.SyncSchemaVersion > models.CurrentSyncSchemaVersion {
			return &models.SchemaTooNewError{
				Source:    "operation",
				Version:   op.SyncSchemaVersion,
				Supported: models.CurrentSyncSchemaVersion,
			}
		}
	}
	return nil
}

// MergeAll сворачивает операции поверх базового состояния.
//
// Операции группируются по entityId; операции одной сущности
// применяются последовательно одним исполнителем, разные сущности
// обрабатываются параллельно. base не изменяется.
//
// Если хотя бы одна операция имеет версию схемы новее поддерживаемой,
// возвращается *models.SchemaTooNewError и ничего не применяется.
// Сущности, встреченные с разными типами, исключаются из результата и
// перечисляются в MergeStats.Collisions.
func MergeAll(ctx context.Context, base map[string]*models.EntityState, ops []models.Operation, opts ...MergeOption) (map[string]*models.EntityState, MergeStats, error) {
	var stats MergeStats

	cfg := mergeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.parallelism < 1 {
		cfg.parallelism = runtime.GOMAXPROCS(0)
	}

	if err := CheckSchema(ops); err != nil {
		return nil, stats, err
	}

	// Группируем операции по сущностям
	groups := make(map[string][]models.Operation)
	for _, op := range ops {
		groups[op.EntityID] = append(groups[op.EntityID], op)
	}

	result := make(map[string]*models.EntityState, len(base)+len(groups))
	for id, s := range base {
		if _, touched := groups[id]; !touched {
			result[id] = s.Clone()
		}
	}

	// Обнаруживаем конфликты идентичности до слияния: результат зависит
	// только от множества операций, а не от их порядка
	ids := make([]string, 0, len(groups))
	for id, group := range groups {
		if collision := detectCollision(id, base[id], group); collision != nil {
			stats.Collisions = append(stats.Collisions, collision)
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	sort.Slice(stats.Collisions, func(i, j int) bool {
		return stats.Collisions[i].EntityID < stats.Collisions[j].EntityID
	})

	type folded struct {
		state   *models.EntityState
		applied int
		noops   int
	}
	out := make([]folded, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.parallelism)

	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			group := groups[id]
			state := base[id].Clone()
			if state == nil {
				state = models.NewEntityState(group[0].EntityType, id)
			}

			var f folded
			for _, op := range group {
				if applyInPlace(state, op) {
					f.applied++
				} else {
					f.noops++
				}
			}
			f.state = state
			out[i] = f
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	for i, id := range ids {
		result[id] = out[i].state
		stats.Applied += out[i].applied
		stats.NoOps += out[i].noops
	}
	stats.Entities = len(ids)

	return result, stats, nil
}

func detectCollision(id string, base *models.EntityState, ops []models.Operation) *models.IdentityCollisionError {
	seen := make(map[models.EntityType]struct{}, 1)
	if base != nil {
		seen[base.EntityType] = struct{}{}
	}
	for _, op := range ops {
		seen[op.EntityType] = struct{}{}
	}
	if len(seen) < 2 {
		return nil
	}

	types := make([]models.EntityType, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	slices.Sort(types)

	return &models.IdentityCollisionError{EntityID: id, Types: types}
}
