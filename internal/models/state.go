package models

import "maps"

// FieldState текущее значение поля и ключ записи, которая его установила
type FieldState struct {
	Value    Value    `json:"value"`
	WriteKey WriteKey `json:"writeKey"`
}

// EntityState производное (слитое) состояние одной сущности.
//
// DeletedWriteKey хранит наибольший ключ delete-entity, когда-либо
// примененный к сущности. Он сохраняется и после воскрешения: записи полей
// с ключом <= DeletedWriteKey остаются вытесненными независимо от порядка
// доставки операций.
type EntityState struct {
	Fields          map[string]FieldState `json:"fields"`
	DeletedWriteKey *WriteKey             `json:"deletedWriteKey,omitempty"`
	EntityID        string                `json:"entityId"`
	EntityType      EntityType            `json:"entityType"`
	Deleted         bool                  `json:"deleted"`
}

// NewEntityState creates an empty, live entity.
func NewEntityState(entityType EntityType, entityID string) *EntityState {
	return &EntityState{
		EntityID:   entityID,
		EntityType: entityType,
		Fields:     make(map[string]FieldState),
	}
}

// Clone создает глубокую копию состояния
func (s *EntityState) Clone() *EntityState {
	if s == nil {
		return nil
	}

	clone := &EntityState{
		EntityID:   s.EntityID,
		EntityType: s.EntityType,
		Deleted:    s.Deleted,
		Fields:     make(map[string]FieldState, len(s.Fields)),
	}
	maps.Copy(clone.Fields, s.Fields)

	if s.DeletedWriteKey != nil {
		key := *s.DeletedWriteKey
		clone.DeletedWriteKey = &key
	}

	return clone
}

// LatestWrite returns the greatest write key known for the entity: the
// tombstone key or the greatest field write key. ok is false for an entity
// that has seen no writes at all.
func (s *EntityState) LatestWrite() (WriteKey, bool) {
	var latest WriteKey
	ok := false

	if s.DeletedWriteKey != nil {
		latest = *s.DeletedWriteKey
		ok = true
	}

	for _, f := range s.Fields {
		if !ok || f.WriteKey.IsNewerThan(latest) {
			latest = f.WriteKey
			ok = true
		}
	}

	return latest, ok
}

// Equal сравнивает два состояния по значению
func (s *EntityState) Equal(other *EntityState) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.EntityID != other.EntityID || s.EntityType != other.EntityType || s.Deleted != other.Deleted {
		return false
	}
	if (s.DeletedWriteKey == nil) != (other.DeletedWriteKey == nil) {
		return false
	}
	if s.DeletedWriteKey != nil && *s.DeletedWriteKey != *other.DeletedWriteKey {
		return false
	}
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	for name, f := range s.Fields {
		o, ok := other.Fields[name]
		if !ok || o.WriteKey != f.WriteKey || !o.Value.Equal(f.Value) {
			return false
		}
	}
	return true
}

// EqualStates compares two entity maps by value.
func EqualStates(a, b map[string]*EntityState) bool {
	if len(a) != len(b) {
		return false
	}
	for id, s := range a {
		if !s.Equal(b[id]) {
			return false
		}
	}
	return true
}

// CloneStates deep-copies an entity map.
func CloneStates(states map[string]*EntityState) map[string]*EntityState {
	clone := make(map[string]*EntityState, len(states))
	for id, s := range states {
		clone[id] = s.Clone()
	}
	return clone
}
