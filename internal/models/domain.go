package models

import "maps"

// DomainEntity представляет сущность так, как ее видит приложение:
// сайт, монитор или настройка с текущими значениями полей.
// Удаленные сущности в доменном состоянии отсутствуют.
type DomainEntity struct {
	Fields     map[string]Value `json:"fields"`
	EntityID   string           `json:"entity_id"`
	EntityType EntityType       `json:"entity_type"`
}

// Clone создает глубокую копию сущности
func (e *DomainEntity) Clone() *DomainEntity {
	if e == nil {
		return nil
	}
	clone := &DomainEntity{
		EntityID:   e.EntityID,
		EntityType: e.EntityType,
		Fields:     make(map[string]Value, len(e.Fields)),
	}
	maps.Copy(clone.Fields, e.Fields)
	return clone
}

// ApplyToDomain применяет локальную операцию к доменному состоянию без
// LWW-проверок. Используется для оптимистичного отображения локальных правок
// до следующего цикла синхронизации.
func ApplyToDomain(domain map[string]*DomainEntity, op Operation) {
	switch op.Kind {
	case OpDeleteEntity:
		delete(domain, op.EntityID)
	case OpSetField:
		entity, ok := domain[op.EntityID]
		if !ok {
			entity = &DomainEntity{
				EntityID:   op.EntityID,
				EntityType: op.EntityType,
				Fields:     make(map[string]Value),
			}
			domain[op.EntityID] = entity
		}
		entity.Fields[op.Field] = op.Value
	}
}

// Project converts converged entity states into the domain view: live
// entities only, field values without write keys.
func Project(states map[string]*EntityState) map[string]*DomainEntity {
	domain := make(map[string]*DomainEntity, len(states))
	for id, s := range states {
		if s.Deleted {
			continue
		}
		entity := &DomainEntity{
			EntityID:   id,
			EntityType: s.EntityType,
			Fields:     make(map[string]Value, len(s.Fields)),
		}
		for name, f := range s.Fields {
			entity.Fields[name] = f.Value
		}
		domain[id] = entity
	}
	return domain
}

// Baseline локальный базис устройства: последнее слитое состояние и
// счетчик операций. Изменяется только в конце успешного цикла.
type Baseline struct {
	Snapshot         *Snapshot `json:"snapshot"`           // Snapshot последнее сошедшееся состояние
	DeviceID         string    `json:"device_id"`          // DeviceID идентификатор этого устройства
	LastOpID         int64     `json:"last_op_id"`         // LastOpID наибольший выданный opId
	LastTimestampMs  int64     `json:"last_timestamp_ms"`  // LastTimestampMs timestamp последнего выданного ключа
	ResetAt          int64     `json:"reset_at"`           // ResetAt водяной знак сброса, известный устройству
	LastSyncAtMs     int64     `json:"last_sync_at_ms"`    // LastSyncAtMs время последнего успешного цикла
	RemoteSnapshotV  int64     `json:"remote_snapshot_v"`  // RemoteSnapshotV версия удаленного снапшота, на которой основан базис
	RemoteManifestV  int64     `json:"remote_manifest_v"`  // RemoteManifestV версия манифеста на момент последнего цикла
}

// Clone создает глубокую копию базиса
func (b *Baseline) Clone() *Baseline {
	if b == nil {
		return nil
	}
	clone := *b
	clone.Snapshot = b.Snapshot.Clone()
	return &clone
}
