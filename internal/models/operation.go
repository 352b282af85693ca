package models

import (
	"encoding/json"
	"fmt"
)

// CurrentSyncSchemaVersion версия схемы синхронизации, которую поддерживает этот клиент
const CurrentSyncSchemaVersion = 1

// OpKind тип операции
type OpKind string

// Operation kinds
const (
	OpSetField     OpKind = "set-field"
	OpDeleteEntity OpKind = "delete-entity"
)

// EntityType тип синхронизируемой сущности
type EntityType string

// Entity types
const (
	EntitySite    EntityType = "site"
	EntityMonitor EntityType = "monitor"
	EntitySetting EntityType = "setting"
)

// EntityTypes lists every known entity type.
var EntityTypes = []EntityType{EntitySite, EntityMonitor, EntitySetting}

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	switch t {
	case EntitySite, EntityMonitor, EntitySetting:
		return true
	default:
		return false
	}
}

// Operation одна неизменяемая запись в логе операций устройства.
// Field и Value имеют смысл только для OpSetField.
type Operation struct {
	Value             Value      `json:"-"`
	Kind              OpKind     `json:"-"`
	EntityType        EntityType `json:"-"`
	EntityID          string     `json:"-"`
	Field             string     `json:"-"`
	WriteKey          WriteKey   `json:"-"`
	SyncSchemaVersion int        `json:"-"`
}

// operationJSON wire-представление операции.
// Value указатель, чтобы set-field с null сериализовался как "value":null,
// а delete-entity не содержал поле вовсе.
type operationJSON struct {
	Kind              OpKind          `json:"kind"`
	EntityType        EntityType      `json:"entityType"`
	EntityID          string          `json:"entityId"`
	Field             string          `json:"field,omitempty"`
	Value             json.RawMessage `json:"value,omitempty"`
	WriteKey          WriteKey        `json:"writeKey"`
	SyncSchemaVersion int             `json:"syncSchemaVersion"`
}

// NewSetField creates a set-field operation at the current schema version.
func NewSetField(entityType EntityType, entityID, field string, value Value, key WriteKey) Operation {
	return Operation{
		Kind:              OpSetField,
		EntityType:        entityType,
		EntityID:          entityID,
		Field:             field,
		Value:             value,
		WriteKey:          key,
		SyncSchemaVersion: CurrentSyncSchemaVersion,
	}
}

// NewDeleteEntity creates a delete-entity operation at the current schema version.
func NewDeleteEntity(entityType EntityType, entityID string, key WriteKey) Operation {
	return Operation{
		Kind:              OpDeleteEntity,
		EntityType:        entityType,
		EntityID:          entityID,
		WriteKey:          key,
		SyncSchemaVersion: CurrentSyncSchemaVersion,
	}
}

// MarshalJSON implements json.Marshaler.
func (op Operation) MarshalJSON() ([]byte, error) {
	w := operationJSON{
		Kind:              op.Kind,
		EntityType:        op.EntityType,
		EntityID:          op.EntityID,
		WriteKey:          op.WriteKey,
		SyncSchemaVersion: op.SyncSchemaVersion,
	}

	if op.Kind == OpSetField {
		raw, err := op.Value.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal value: %w", err)
		}
		w.Field = op.Field
		w.Value = raw
	}

	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. A set-field record without a
// "value" key is rejected; an explicit null is a valid value.
func (op *Operation) UnmarshalJSON(data []byte) error {
	var w operationJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	parsed := Operation{
		Kind:              w.Kind,
		EntityType:        w.EntityType,
		EntityID:          w.EntityID,
		Field:             w.Field,
		WriteKey:          w.WriteKey,
		SyncSchemaVersion: w.SyncSchemaVersion,
	}

	if len(w.Value) > 0 {
		if err := parsed.Value.UnmarshalJSON(w.Value); err != nil {
			return err
		}
	} else if w.Kind == OpSetField {
		return fmt.Errorf("%w: set-field without value", ErrInvalidOperation)
	}

	*op = parsed
	return nil
}

// CanonicalBytes returns the deterministic JSON encoding of the operation.
// Two replicas holding the same operation produce identical bytes.
func (op Operation) CanonicalBytes() []byte {
	data, err := op.MarshalJSON()
	if err != nil {
		// невалидные операции отфильтрованы до слияния; fallback для детерминизма
		return []byte(fmt.Sprintf("%s|%s|%s|%s|%s", op.Kind, op.EntityType, op.EntityID, op.Field, op.WriteKey))
	}
	return data
}

// Validate checks structural well-formedness. Schema version gating is
// done separately (see SchemaTooNewError).
func (op Operation) Validate() error {
	switch op.Kind {
	case OpSetField:
		if op.Field == "" {
			return fmt.Errorf("%w: set-field without field", ErrInvalidOperation)
		}
		if !op.Value.Valid() {
			return fmt.Errorf("%w: invalid value for field %q", ErrInvalidOperation, op.Field)
		}
	case OpDeleteEntity:
		if op.Field != "" || !op.Value.IsNull() {
			return fmt.Errorf("%w: delete-entity must not carry field or value", ErrInvalidOperation)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidOperation, op.Kind)
	}

	if !op.EntityType.Valid() {
		return fmt.Errorf("%w: unknown entity type %q", ErrInvalidOperation, op.EntityType)
	}
	if op.EntityID == "" {
		return fmt.Errorf("%w: empty entity id", ErrInvalidOperation)
	}
	if op.WriteKey.DeviceID == "" {
		return fmt.Errorf("%w: empty device id in write key", ErrInvalidOperation)
	}
	if op.WriteKey.OpID <= 0 {
		return fmt.Errorf("%w: op id must be positive, got %d", ErrInvalidOperation, op.WriteKey.OpID)
	}
	if op.WriteKey.TimestampEpochMs < 0 {
		return fmt.Errorf("%w: negative timestamp", ErrInvalidOperation)
	}
	if op.SyncSchemaVersion < 1 {
		return fmt.Errorf("%w: sync schema version must be >= 1", ErrInvalidOperation)
	}

	return nil
}
