// Package validation проверяет идентификаторы, которые вводит пользователь
// и которые попадают в ключи объектов корня синхронизации.
package validation

import (
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"
)

// DeviceIDPattern определяет допустимый формат deviceId.
// deviceId становится сегментом пути "ops/<deviceId>/", поэтому
// разделители и точки в начале запрещены.
var DeviceIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_.-]{0,63}$`)

// FieldNamePattern определяет допустимое имя поля сущности
var FieldNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.-]{0,63}$`)

const (
	// MaxEntityIDLen максимальная длина entityId в байтах
	MaxEntityIDLen = 128
)

// ValidateDeviceID проверяет идентификатор устройства
func ValidateDeviceID(id string) error {
	if id == "" {
		return fmt.Errorf("device id cannot be empty")
	}
	if !DeviceIDPattern.MatchString(id) {
		return fmt.Errorf("invalid device id %q: use up to 64 letters, digits, '_', '.' or '-'", id)
	}
	return nil
}

// ValidateEntityID проверяет идентификатор сущности.
// Допускается любой печатный UTF-8 без управляющих символов.
func ValidateEntityID(id string) error {
	if id == "" {
		return fmt.Errorf("entity id cannot be empty")
	}
	if len(id) > MaxEntityIDLen {
		return fmt.Errorf("entity id must not exceed %d bytes", MaxEntityIDLen)
	}
	if !utf8.ValidString(id) {
		return fmt.Errorf("entity id must be valid UTF-8")
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return fmt.Errorf("entity id %q contains whitespace or control characters", id)
		}
	}
	return nil
}

// ValidateFieldName проверяет имя поля
func ValidateFieldName(name string) error {
	if name == "" {
		return fmt.Errorf("field name cannot be empty")
	}
	if !FieldNamePattern.MatchString(name) {
		return fmt.Errorf("invalid field name %q: must start with a letter or '_' and contain up to 64 letters, digits, '_', '.' or '-'", name)
	}
	return nil
}
