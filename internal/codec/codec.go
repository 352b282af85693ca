// Package codec отвечает за формат объектов на удаленном хранилище:
// логи операций в NDJSON, манифест в JSON и снапшот в сжатом snappy JSON.
// Ядро слияния работает только с models и ничего не знает о байтах.
package codec

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/golang/snappy"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/iudanet/confsync/internal/models"
)

const (
	schemaURL = "https://confsync.local/schema/operation.schema.json"

	// maxRecordSize ограничивает длину одной строки NDJSON
	maxRecordSize = 1 << 20
)

//go:embed schema/operation.schema.json
var operationSchemaJSON []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func operationSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(operationSchemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("failed to parse operation schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("failed to add operation schema: %w", err)
			return
		}

		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// EncodeOperations сериализует операции в NDJSON: одна запись на строку,
// каждая строка завершается '\n'.
func EncodeOperations(ops []models.Operation) ([]byte, error) {
	var buf bytes.Buffer
	for i, op := range ops {
		line, err := json.Marshal(op)
		if err != nil {
			return nil, fmt.Errorf("failed to encode operation %d: %w", i, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// DecodeOption configures DecodeOperations.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	deviceID string
}

// WithDevice marks records whose write key belongs to another device as
// corrupt: a device log holds only that device's operations.
func WithDevice(deviceID string) DecodeOption {
	return func(c *decodeConfig) {
		c.deviceID = deviceID
	}
}

// DecodeOperations parses an NDJSON operation-log object. Malformed records
// are skipped and returned as CorruptOperationErrors; they never fail the
// whole object. Records written by a newer sync schema are returned as-is so
// the merge engine can reject them with a SchemaTooNewError.
// CorruptOperationError.Line is the 1-based line in the object.
func DecodeOperations(objectKey string, data []byte, opts ...DecodeOption) ([]models.Operation, []*models.CorruptOperationError) {
	var cfg decodeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var (
		ops     []models.Operation
		corrupt []*models.CorruptOperationError
	)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

	line := 0
	for scanner.Scan() {
		line++
		record := bytes.TrimSpace(scanner.Bytes())
		if len(record) == 0 {
			continue
		}

		op, err := decodeRecord(record)
		if err == nil && cfg.deviceID != "" && op.WriteKey.DeviceID != cfg.deviceID {
			err = fmt.Errorf("%w: write key device %q in log of %q",
				models.ErrInvalidOperation, op.WriteKey.DeviceID, cfg.deviceID)
		}
		if err != nil {
			corrupt = append(corrupt, &models.CorruptOperationError{
				ObjectKey: objectKey,
				Line:      line,
				Err:       err,
			})
			continue
		}
		ops = append(ops, op)
	}

	// Остаток объекта не читается: обрезанная или слишком длинная строка
	if err := scanner.Err(); err != nil {
		corrupt = append(corrupt, &models.CorruptOperationError{
			ObjectKey: objectKey,
			Line:      line + 1,
			Err:       err,
		})
	}

	return ops, corrupt
}

func decodeRecord(record []byte) (models.Operation, error) {
	var header struct {
		SyncSchemaVersion int             `json:"syncSchemaVersion"`
		WriteKey          models.WriteKey `json:"writeKey"`
		EntityID          string          `json:"entityId"`
	}
	if err := json.Unmarshal(record, &header); err != nil {
		return models.Operation{}, fmt.Errorf("invalid json: %w", err)
	}

	// Запись новой схемы: структура может отличаться, проверку версии делает движок слияния
	if header.SyncSchemaVersion > models.CurrentSyncSchemaVersion {
		return models.Operation{
			EntityID:          header.EntityID,
			WriteKey:          header.WriteKey,
			SyncSchemaVersion: header.SyncSchemaVersion,
		}, nil
	}

	schema, err := operationSchema()
	if err != nil {
		return models.Operation{}, err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(record))
	if err != nil {
		return models.Operation{}, fmt.Errorf("invalid json: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return models.Operation{}, fmt.Errorf("schema validation failed: %w", err)
	}

	var op models.Operation
	if err := json.Unmarshal(record, &op); err != nil {
		return models.Operation{}, err
	}
	if err := op.Validate(); err != nil {
		return models.Operation{}, err
	}
	return op, nil
}

// EncodeSnapshot сериализует снапшот в JSON и сжимает snappy.
func EncodeSnapshot(s *models.Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return snappy.Encode(nil, data), nil
}

// DecodeSnapshot разжимает и разбирает снапшот.
func DecodeSnapshot(data []byte) (*models.Snapshot, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}

	var s models.Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	if s.Entities == nil {
		s.Entities = make(map[string]*models.EntityState)
	}
	if s.CompactedThrough == nil {
		s.CompactedThrough = make(models.DeviceWatermarks)
	}
	for id, e := range s.Entities {
		if e == nil {
			delete(s.Entities, id)
			continue
		}
		if e.Fields == nil {
			e.Fields = make(map[string]models.FieldState)
		}
		if e.EntityID == "" {
			e.EntityID = id
		}
	}

	return &s, nil
}

// EncodeManifest сериализует манифест в JSON.
func EncodeManifest(m *models.Manifest) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return data, nil
}

// DecodeManifest parses a manifest and normalizes the device roster into a
// sorted set.
func DecodeManifest(data []byte) (*models.Manifest, error) {
	var m models.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	if m.KnownDeviceIDs == nil {
		m.KnownDeviceIDs = []string{}
	}
	slices.Sort(m.KnownDeviceIDs)
	m.KnownDeviceIDs = slices.Compact(m.KnownDeviceIDs)

	return &m, nil
}
