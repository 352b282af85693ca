package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/confsync/internal/models"
	"github.com/iudanet/confsync/internal/server/storage"
)

// CreateDevice registers a new device
func (s *Storage) CreateDevice(ctx context.Context, device *models.Device) error {
	query := `
		INSERT INTO devices (id, label, created_at)
		VALUES (?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		device.ID,
		device.Label,
		timeToMillis(device.CreatedAt),
	)

	if err != nil {
		// Проверяем на duplicate id
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return storage.ErrDeviceAlreadyExists
		}
		return fmt.Errorf("failed to insert device: %w", err)
	}

	return nil
}

// GetDevice retrieves device by id
func (s *Storage) GetDevice(ctx context.Context, deviceID string) (*models.Device, error) {
	query := `
		SELECT id, label, created_at, last_seen_at, revoked_at
		FROM devices
		WHERE id = ?
	`

	device, err := scanDevice(s.db.QueryRowContext(ctx, query, deviceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrDeviceNotFound
		}
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return device, nil
}

// ListDevices retrieves all registered devices ordered by id
func (s *Storage) ListDevices(ctx context.Context) ([]*models.Device, error) {
	query := `
		SELECT id, label, created_at, last_seen_at, revoked_at
		FROM devices
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	devices := []*models.Device{}
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, device)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return devices, nil
}

// RevokeDevice marks device as revoked
func (s *Storage) RevokeDevice(ctx context.Context, deviceID string, at time.Time) error {
	query := `UPDATE devices SET revoked_at = ? WHERE id = ?`

	return s.updateDevice(ctx, query, timeToMillis(at), deviceID)
}

// UpdateLastSeen updates the last request timestamp
func (s *Storage) UpdateLastSeen(ctx context.Context, deviceID string, at time.Time) error {
	query := `UPDATE devices SET last_seen_at = ? WHERE id = ?`

	return s.updateDevice(ctx, query, timeToMillis(at), deviceID)
}

func (s *Storage) updateDevice(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update device: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrDeviceNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (*models.Device, error) {
	var (
		device    models.Device
		createdAt int64
		lastSeen  sql.NullInt64
		revokedAt sql.NullInt64
	)

	if err := row.Scan(&device.ID, &device.Label, &createdAt, &lastSeen, &revokedAt); err != nil {
		return nil, err
	}

	device.CreatedAt = millisToTime(createdAt)
	device.LastSeenAt = nullMillisToTime(lastSeen)
	device.RevokedAt = nullMillisToTime(revokedAt)

	return &device, nil
}
