package storage

import "errors"

// Common client storage errors
var (
	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")

	// ErrNoDeviceID indicates that the device identity was not created yet
	ErrNoDeviceID = errors.New("device id not initialized")

	// ErrCredentialsNotFound indicates that no relay token was saved
	ErrCredentialsNotFound = errors.New("relay credentials not found")
)
