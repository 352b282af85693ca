package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/confsync/internal/client/storage"
)

var authKey = []byte("relay")

// SaveCredentials stores the relay token
func (s *Storage) SaveCredentials(ctx context.Context, creds *storage.Credentials) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketAuth)
		if err != nil {
			return err
		}

		data, err := json.Marshal(creds)
		if err != nil {
			return fmt.Errorf("failed to marshal credentials: %w", err)
		}

		if err := b.Put(authKey, data); err != nil {
			return fmt.Errorf("failed to save credentials: %w", err)
		}
		return nil
	})
}

// GetCredentials retrieves the stored relay token
func (s *Storage) GetCredentials(ctx context.Context) (*storage.Credentials, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var creds *storage.Credentials
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketAuth)
		if err != nil {
			return err
		}

		data := b.Get(authKey)
		if data == nil {
			return storage.ErrCredentialsNotFound
		}

		creds = &storage.Credentials{}
		if err := json.Unmarshal(data, creds); err != nil {
			return fmt.Errorf("failed to unmarshal credentials: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return creds, nil
}

// DeleteCredentials removes the stored relay token (logout)
func (s *Storage) DeleteCredentials(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketAuth)
		if err != nil {
			return err
		}

		if b.Get(authKey) == nil {
			return storage.ErrCredentialsNotFound
		}

		if err := b.Delete(authKey); err != nil {
			return fmt.Errorf("failed to delete credentials: %w", err)
		}
		return nil
	})
}
