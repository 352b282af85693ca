package storage

import (
	"context"
	"time"

	"github.com/iudanet/confsync/internal/models"
)

// DeviceStorage defines interface for registered devices persistence
type DeviceStorage interface {
	// CreateDevice registers a new device
	// Returns ErrDeviceAlreadyExists if device with this id exists
	CreateDevice(ctx context.Context, device *models.Device) error

	// GetDevice retrieves device by id
	// Returns ErrDeviceNotFound if device doesn't exist
	GetDevice(ctx context.Context, deviceID string) (*models.Device, error)

	// ListDevices retrieves all registered devices ordered by id
	ListDevices(ctx context.Context) ([]*models.Device, error)

	// RevokeDevice marks device as revoked; its tokens are rejected afterwards
	// Returns ErrDeviceNotFound if device doesn't exist
	RevokeDevice(ctx context.Context, deviceID string, at time.Time) error

	// UpdateLastSeen updates the last request timestamp
	UpdateLastSeen(ctx context.Context, deviceID string, at time.Time) error
}
