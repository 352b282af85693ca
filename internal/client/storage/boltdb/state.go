package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/confsync/internal/client/storage"
	"github.com/iudanet/confsync/internal/models"
)

var keyBaseline = []byte("current")

// LoadState читает базис, доменное состояние и очередь правок.
// Счетчик операций берется из meta: он мог уйти вперед базиса из-за
// правок после последнего цикла.
func (s *Storage) LoadState(ctx context.Context) (*storage.LocalState, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	state := &storage.LocalState{
		Domain:  make(map[string]*models.DomainEntity),
		Pending: []models.Operation{},
	}

	err := s.db.View(func(tx *bbolt.Tx) error {
		meta, err := bucket(tx, bucketMeta)
		if err != nil {
			return err
		}
		baselines, err := bucket(tx, bucketBaseline)
		if err != nil {
			return err
		}

		baseline := &models.Baseline{Snapshot: models.NewSnapshot()}
		if data := baselines.Get(keyBaseline); data != nil {
			if err := json.Unmarshal(data, baseline); err != nil {
				return fmt.Errorf("failed to unmarshal baseline: %w", err)
			}
			if baseline.Snapshot == nil {
				baseline.Snapshot = models.NewSnapshot()
			}
		}

		c := readCounter(meta)
		baseline.LastOpID = c.lastOpID
		baseline.LastTimestampMs = c.lastTimestampMs
		baseline.DeviceID = string(meta.Get([]byte(keyDeviceID)))
		state.Baseline = baseline

		if state.Pending, err = readPending(tx); err != nil {
			return err
		}

		domain, err := bucket(tx, bucketDomain)
		if err != nil {
			return err
		}
		return domain.ForEach(func(k, v []byte) error {
			entity := &models.DomainEntity{}
			if err := json.Unmarshal(v, entity); err != nil {
				return fmt.Errorf("failed to unmarshal entity %s: %w", k, err)
			}
			state.Domain[string(k)] = entity
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load local state: %w", err)
	}

	return state, nil
}

// RecordEdit сохраняет локальную правку в одной транзакции с счетчиком
// opId и оптимистичным обновлением доменного состояния.
func (s *Storage) RecordEdit(ctx context.Context, op models.Operation) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if err := op.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("failed to marshal operation: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		meta, err := bucket(tx, bucketMeta)
		if err != nil {
			return err
		}
		pending, err := bucket(tx, bucketPending)
		if err != nil {
			return err
		}

		c := readCounter(meta)
		if op.WriteKey.OpID <= c.lastOpID {
			return fmt.Errorf("op id %d is not above counter %d", op.WriteKey.OpID, c.lastOpID)
		}
		c.lastOpID = op.WriteKey.OpID
		c.lastTimestampMs = max(c.lastTimestampMs, op.WriteKey.TimestampEpochMs)
		if err := writeCounter(meta, c); err != nil {
			return err
		}

		if err := pending.Put(itob(op.WriteKey.OpID), data); err != nil {
			return fmt.Errorf("failed to save pending operation: %w", err)
		}

		return applyToDomain(tx, op)
	})
	if err != nil {
		return fmt.Errorf("failed to record edit: %w", err)
	}

	return nil
}

// CommitCycle заменяет базис, удаляет учтенные циклом правки и
// пересобирает доменное состояние из сошедшегося состояния и оставшихся
// правок.
func (s *Storage) CommitCycle(ctx context.Context, commit *storage.CycleCommit) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if commit == nil || commit.Baseline == nil || commit.Baseline.Snapshot == nil {
		return fmt.Errorf("commit without baseline")
	}

	baseline := commit.Baseline.Clone()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		meta, err := bucket(tx, bucketMeta)
		if err != nil {
			return err
		}

		// Правки после начала цикла могли продвинуть счетчик
		c := readCounter(meta)
		c.lastOpID = max(c.lastOpID, baseline.LastOpID)
		c.lastTimestampMs = max(c.lastTimestampMs, baseline.LastTimestampMs)
		if err := writeCounter(meta, c); err != nil {
			return err
		}
		baseline.LastOpID = c.lastOpID
		baseline.LastTimestampMs = c.lastTimestampMs

		if err := putBaseline(tx, baseline); err != nil {
			return err
		}

		if err := deletePendingThrough(tx, commit.ConsumedThroughOpID); err != nil {
			return err
		}
		remaining, err := readPending(tx)
		if err != nil {
			return err
		}

		return rebuildDomain(tx, models.Project(baseline.Snapshot.Entities), remaining)
	})
	if err != nil {
		return fmt.Errorf("failed to commit sync cycle: %w", err)
	}

	return nil
}

// ResetLocal заменяет очередь правок и базис после сброса корня.
// Доменное состояние не меняется: republish построен из него.
func (s *Storage) ResetLocal(ctx context.Context, baseline *models.Baseline, republish []models.Operation) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if baseline == nil {
		return fmt.Errorf("reset without baseline")
	}

	next := baseline.Clone()
	if next.Snapshot == nil {
		next.Snapshot = models.NewSnapshot()
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		meta, err := bucket(tx, bucketMeta)
		if err != nil {
			return err
		}

		// opId начинается заново: счетчик не сравнивается со старым
		if err := writeCounter(meta, counter{lastOpID: next.LastOpID, lastTimestampMs: next.LastTimestampMs}); err != nil {
			return err
		}
		if err := putBaseline(tx, next); err != nil {
			return err
		}

		if err := tx.DeleteBucket(bucketPending); err != nil {
			return fmt.Errorf("failed to clear pending operations: %w", err)
		}
		pending, err := tx.CreateBucket(bucketPending)
		if err != nil {
			return fmt.Errorf("failed to create pending bucket: %w", err)
		}
		for _, op := range republish {
			data, err := json.Marshal(op)
			if err != nil {
				return fmt.Errorf("failed to marshal operation: %w", err)
			}
			if err := pending.Put(itob(op.WriteKey.OpID), data); err != nil {
				return fmt.Errorf("failed to save pending operation: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reset local state: %w", err)
	}

	return nil
}

func putBaseline(tx *bbolt.Tx, baseline *models.Baseline) error {
	baselines, err := bucket(tx, bucketBaseline)
	if err != nil {
		return err
	}
	data, err := json.Marshal(baseline)
	if err != nil {
		return fmt.Errorf("failed to marshal baseline: %w", err)
	}
	if err := baselines.Put(keyBaseline, data); err != nil {
		return fmt.Errorf("failed to save baseline: %w", err)
	}
	return nil
}

// readPending возвращает очередь правок по возрастанию opId
func readPending(tx *bbolt.Tx) ([]models.Operation, error) {
	pending, err := bucket(tx, bucketPending)
	if err != nil {
		return nil, err
	}

	ops := []models.Operation{}
	err = pending.ForEach(func(k, v []byte) error {
		var op models.Operation
		if err := json.Unmarshal(v, &op); err != nil {
			return fmt.Errorf("failed to unmarshal pending operation %d: %w", btoi(k), err)
		}
		ops = append(ops, op)
		return nil
	})
	return ops, err
}

func deletePendingThrough(tx *bbolt.Tx, throughOpID int64) error {
	pending, err := bucket(tx, bucketPending)
	if err != nil {
		return err
	}

	var keys [][]byte
	c := pending.Cursor()
	for k, _ := c.First(); k != nil && btoi(k) <= throughOpID; k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}
	for _, k := range keys {
		if err := pending.Delete(k); err != nil {
			return fmt.Errorf("failed to delete pending operation %d: %w", btoi(k), err)
		}
	}
	return nil
}

func applyToDomain(tx *bbolt.Tx, op models.Operation) error {
	domain, err := bucket(tx, bucketDomain)
	if err != nil {
		return err
	}

	entities := make(map[string]*models.DomainEntity, 1)
	if data := domain.Get([]byte(op.EntityID)); data != nil {
		entity := &models.DomainEntity{}
		if err := json.Unmarshal(data, entity); err != nil {
			return fmt.Errorf("failed to unmarshal entity %s: %w", op.EntityID, err)
		}
		entities[op.EntityID] = entity
	}

	models.ApplyToDomain(entities, op)

	entity, ok := entities[op.EntityID]
	if !ok {
		return domain.Delete([]byte(op.EntityID))
	}
	return putEntity(domain, entity)
}

func rebuildDomain(tx *bbolt.Tx, entities map[string]*models.DomainEntity, pending []models.Operation) error {
	for _, op := range pending {
		models.ApplyToDomain(entities, op)
	}

	if err := tx.DeleteBucket(bucketDomain); err != nil {
		return fmt.Errorf("failed to clear domain state: %w", err)
	}
	domain, err := tx.CreateBucket(bucketDomain)
	if err != nil {
		return fmt.Errorf("failed to create domain bucket: %w", err)
	}

	for _, entity := range entities {
		if err := putEntity(domain, entity); err != nil {
			return err
		}
	}
	return nil
}

func putEntity(domain *bbolt.Bucket, entity *models.DomainEntity) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}
	if err := domain.Put([]byte(entity.EntityID), data); err != nil {
		return fmt.Errorf("failed to save entity %s: %w", entity.EntityID, err)
	}
	return nil
}
