package models

import "time"

// Device представляет устройство, которому relay-сервер выдал токен
type Device struct {
	CreatedAt  time.Time  `json:"created_at"`             // время регистрации
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"` // время последнего запроса
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`   // время отзыва доступа
	ID         string     `json:"id"`                     // deviceId
	Label      string     `json:"label,omitempty"`        // человекочитаемое имя
}

// Revoked reports whether the device may no longer talk to the relay.
func (d *Device) Revoked() bool {
	return d.RevokedAt != nil
}
