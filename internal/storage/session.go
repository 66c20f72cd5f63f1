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

var (
	sessionPrefix      = []byte("session/")
	sessionUserPrefix  = []byte("session_user/")
	sessionTokenPrefix = []byte("session_token/")
)

func sessionKey(id string) []byte {
	return append(append([]byte{}, sessionPrefix...), id...)
}

func sessionUserKey(userID, id string) []byte {
	k := append(append([]byte{}, sessionUserPrefix...), userID...)
	k = append(k, 0)
	return append(k, id...)
}

func sessionUserScanPrefix(userID string) []byte {
	k := append(append([]byte{}, sessionUserPrefix...), userID...)
	return append(k, 0)
}

func sessionTokenKey(hash string) []byte {
	return append(append([]byte{}, sessionTokenPrefix...), hash...)
}

// SessionStore implements service.SessionRepository on Badger.
//
// Besides the primary record each session owns a user index entry and a
// token hash index entry; all three are written in one transaction.
type SessionStore struct {
	db *DB
}

var _ service.SessionRepository = (*SessionStore)(nil)

// NewSessionStore returns a session repository backed by db.
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Create inserts a new session.
func (s *SessionStore) Create(_ context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.update(func(txn *badger.Txn) error {
		if _, err := txn.Get(sessionKey(session.ID)); err == nil {
			return domain.ErrSessionConflict
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(sessionKey(session.ID), data); err != nil {
			return err
		}
		if err := txn.Set(sessionUserKey(session.UserID, session.ID), nil); err != nil {
			return err
		}
		return txn.Set(sessionTokenKey(session.TokenHash), []byte(session.ID))
	})
}

// Get retrieves a session by id.
func (s *SessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	var session *domain.Session
	err := s.db.db.View(func(txn *badger.Txn) error {
		var err error
		session, err = getSession(txn, id)
		return err
	})
	return session, err
}

// GetByTokenHash resolves a session through the token index.
func (s *SessionStore) GetByTokenHash(_ context.Context, hash string) (*domain.Session, error) {
	var session *domain.Session
	err := s.db.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionTokenKey(hash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		session, err = getSession(txn, string(id))
		return err
	})
	return session, err
}

// Update replaces a session if its stored version equals expectedVersion.
func (s *SessionStore) Update(_ context.Context, session *domain.Session, expectedVersion uint64) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.update(func(txn *badger.Txn) error {
		cur, err := getSession(txn, session.ID)
		if err != nil {
			return err
		}
		if cur.Version != expectedVersion {
			return domain.ErrSessionVersionConflict.WithDetails(
				fmt.Sprintf("stored version %d, expected %d", cur.Version, expectedVersion),
			)
		}
		return txn.Set(sessionKey(session.ID), data)
	})
}

// Delete removes a session and its index entries.
func (s *SessionStore) Delete(_ context.Context, id string) error {
	return s.update(func(txn *badger.Txn) error {
		cur, err := getSession(txn, id)
		if err != nil {
			return err
		}
		return deleteSession(txn, cur)
	})
}

// List scans sessions in id order and returns the requested window.
func (s *SessionStore) List(_ context.Context, filter *service.SessionFilter) ([]*domain.Session, int, error) {
	if filter == nil {
		filter = &service.SessionFilter{}
	}
	var (
		items []*domain.Session
		total int
	)
	err := s.db.db.View(func(txn *badger.Txn) error {
		return scanSessions(txn, func(session *domain.Session) error {
			if !filter.Matches(session) {
				return nil
			}
			if total >= filter.Offset && (filter.Limit == 0 || len(items) < filter.Limit) {
				items = append(items, session)
			}
			total++
			return nil
		})
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// CountByUserID counts the sessions a user owns, expired or not.
func (s *SessionStore) CountByUserID(_ context.Context, userID string) (int, error) {
	n := 0
	err := s.db.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = sessionUserScanPrefix(userID)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// DeleteByUserID removes every session of a user.
func (s *SessionStore) DeleteByUserID(_ context.Context, userID string) (int, error) {
	n := 0
	err := s.update(func(txn *badger.Txn) error {
		n = 0
		prefix := sessionUserScanPrefix(userID)
		var ids []string
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		for it.Rewind(); it.Valid(); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}
		it.Close()

		for _, id := range ids {
			cur, err := getSession(txn, id)
			if err != nil {
				return err
			}
			if err := deleteSession(txn, cur); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

// DeleteExpired removes every expired session.
func (s *SessionStore) DeleteExpired(_ context.Context) (int, error) {
	var expired []*domain.Session
	err := s.db.db.View(func(txn *badger.Txn) error {
		return scanSessions(txn, func(session *domain.Session) error {
			if session.IsExpired() {
				expired = append(expired, session)
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	n := 0
	for _, session := range expired {
		err := s.update(func(txn *badger.Txn) error {
			return deleteSession(txn, session)
		})
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// update runs fn in a read-write transaction, mapping Badger conflicts.
func (s *SessionStore) update(fn func(txn *badger.Txn) error) error {
	err := s.db.db.Update(fn)
	if errors.Is(err, badger.ErrConflict) {
		return domain.ErrSessionVersionConflict.WithCause(err)
	}
	return err
}

func getSession(txn *badger.Txn, id string) (*domain.Session, error) {
	item, err := txn.Get(sessionKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var session domain.Session
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &session)
	})
	if err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

func deleteSession(txn *badger.Txn, session *domain.Session) error {
	if err := txn.Delete(sessionKey(session.ID)); err != nil {
		return err
	}
	if err := txn.Delete(sessionUserKey(session.UserID, session.ID)); err != nil {
		return err
	}
	return txn.Delete(sessionTokenKey(session.TokenHash))
}

func scanSessions(txn *badger.Txn, fn func(*domain.Session) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = sessionPrefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		var session domain.Session
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
		if err != nil {
			return fmt.Errorf("decode session %s: %w", it.Item().Key(), err)
		}
		if err := fn(&session); err != nil {
			return err
		}
	}
	return nil
}
