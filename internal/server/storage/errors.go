package storage

import "errors"

// Common storage errors
var (
	// ErrDeviceNotFound indicates that device was not registered on the relay
	ErrDeviceNotFound = errors.New("device not found")

	// ErrDeviceAlreadyExists indicates that device with this id is already registered
	ErrDeviceAlreadyExists = errors.New("device already exists")
)
