package models

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrNotFound indicates that a remote or local object does not exist
	ErrNotFound = errors.New("not found")

	// ErrNotScalar indicates that a field value is an array or an object
	ErrNotScalar = errors.New("value is not a JSON scalar")

	// ErrInvalidNumber indicates NaN, Inf or an unparsable number
	ErrInvalidNumber = errors.New("invalid number")

	// ErrInvalidOperation indicates a structurally malformed operation
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrCycleInProgress indicates that a sync cycle is already running for the sync root
	ErrCycleInProgress = errors.New("sync cycle already in progress")
)

// SchemaTooNewError is returned when an operation, snapshot or manifest was
// written by a newer client than this engine supports. Nothing from the
// newer schema is applied.
type SchemaTooNewError struct {
	Source    string // Source что именно слишком новое: "operation", "snapshot", "manifest"
	Version   int
	Supported int
}

func (e *SchemaTooNewError) Error() string {
	return fmt.Sprintf("%s sync schema version %d is newer than supported version %d",
		e.Source, e.Version, e.Supported)
}

// TransportUnavailableError wraps a failed remote call. It is recoverable:
// the caller retries the cycle later.
type TransportUnavailableError struct {
	Err      error
	Op       string // Op имя вызова транспорта (например, "readManifest")
	DeviceID string // DeviceID заполнен для чтения лога конкретного устройства
}

func (e *TransportUnavailableError) Error() string {
	if e.DeviceID != "" {
		return fmt.Sprintf("transport unavailable: %s (device %s): %v", e.Op, e.DeviceID, e.Err)
	}
	return fmt.Sprintf("transport unavailable: %s: %v", e.Op, e.Err)
}

func (e *TransportUnavailableError) Unwrap() error {
	return e.Err
}

// CorruptOperationError describes one malformed record in an operation log
// object. Corrupt records are skipped and counted, never fatal.
type CorruptOperationError struct {
	Err       error
	ObjectKey string
	Line      int
}

func (e *CorruptOperationError) Error() string {
	return fmt.Sprintf("corrupt operation in %s line %d: %v", e.ObjectKey, e.Line, e.Err)
}

func (e *CorruptOperationError) Unwrap() error {
	return e.Err
}

// IdentityCollisionError reports an entity id observed with incompatible
// entity types. The entity is excluded from the merge until resolved.
type IdentityCollisionError struct {
	EntityID string
	Types    []EntityType
}

func (e *IdentityCollisionError) Error() string {
	return fmt.Sprintf("identity collision: entity %s observed as %v", e.EntityID, e.Types)
}

// IsFatal reports whether err must abort a sync cycle.
// Corrupt records and identity collisions are reported but never abort.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var corrupt *CorruptOperationError
	if errors.As(err, &corrupt) {
		return false
	}
	var collision *IdentityCollisionError
	return !errors.As(err, &collision)
}
