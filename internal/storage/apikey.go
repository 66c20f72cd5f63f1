package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"github.com/abiibaabi/grr/internal/core/domain"
	"github.com/abiibaabi/grr/internal/core/service"
)

var apiKeyPrefix = []byte("apikey/")

func apiKeyKey(id string) []byte {
	return append(append([]byte{}, apiKeyPrefix...), id...)
}

// apiKeyRecord is the persisted form of an APIKey. The domain type hides
// the secret hash from JSON, so storage carries it explicitly.
type apiKeyRecord struct {
	*domain.APIKey
	SecretHash string `json:"secret_hash"`
}

func encodeAPIKey(k *domain.APIKey) ([]byte, error) {
	return json.Marshal(apiKeyRecord{APIKey: k, SecretHash: k.SecretHash})
}

func decodeAPIKey(val []byte) (*domain.APIKey, error) {
	rec := apiKeyRecord{APIKey: &domain.APIKey{}}
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, err
	}
	rec.APIKey.SecretHash = rec.SecretHash
	return rec.APIKey, nil
}

// APIKeyStore implements service.APIKeyRepository on Badger.
type APIKeyStore struct {
	db *DB
}

var _ service.APIKeyRepository = (*APIKeyStore)(nil)

// NewAPIKeyStore returns an API key repository backed by db.
func NewAPIKeyStore(db *DB) *APIKeyStore {
	return &APIKeyStore{db: db}
}

// Create inserts a new key.
func (s *APIKeyStore) Create(_ context.Context, key *domain.APIKey) error {
	data, err := encodeAPIKey(key)
	if err != nil {
		return fmt.Errorf("encode api key: %w", err)
	}
	return s.db.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(apiKeyKey(key.KeyID)); err == nil {
			return domain.ErrAPIKeyConflict
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(apiKeyKey(key.KeyID), data)
	})
}

// Get retrieves a key by id.
func (s *APIKeyStore) Get(_ context.Context, keyID string) (*domain.APIKey, error) {
	var key *domain.APIKey
	err := s.db.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(apiKeyKey(keyID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrAPIKeyNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			key, err = decodeAPIKey(val)
			return err
		})
	})
	return key, err
}

// Update overwrites an existing key.
func (s *APIKeyStore) Update(_ context.Context, key *domain.APIKey) error {
	data, err := encodeAPIKey(key)
	if err != nil {
		return fmt.Errorf("encode api key: %w", err)
	}
	return s.db.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(apiKeyKey(key.KeyID)); errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrAPIKeyNotFound
		} else if err != nil {
			return err
		}
		return txn.Set(apiKeyKey(key.KeyID), data)
	})
}

// List scans keys in id order and returns the requested window.
func (s *APIKeyStore) List(_ context.Context, filter *service.APIKeyFilter) ([]*domain.APIKey, int, error) {
	if filter == nil {
		filter = &service.APIKeyFilter{}
	}
	var (
		items []*domain.APIKey
		total int
	)
	err := s.db.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = apiKeyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var key *domain.APIKey
			err := it.Item().Value(func(val []byte) error {
				var err error
				key, err = decodeAPIKey(val)
				return err
			})
			if err != nil {
				return fmt.Errorf("decode api key %s: %w", it.Item().Key(), err)
			}
			if filter.Role != "" && key.Role != filter.Role {
				continue
			}
			if total >= filter.Offset && (filter.Limit == 0 || len(items) < filter.Limit) {
				items = append(items, key)
			}
			total++
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
