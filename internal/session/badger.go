package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const sessionKeyPrefix = "session:"

// BadgerStore persists sessions in BadgerDB so logins survive restarts.
// Entries carry a badger TTL matching the session expiry; SweepExpired
// removes whatever badger has not dropped yet.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
	now func() time.Time
}

// OpenBadgerStore opens (or creates) a badger database at path.
// An empty path opens an in-memory database.
func OpenBadgerStore(path string, ttl time.Duration) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger session store: %w", err)
	}

	return &BadgerStore{db: db, ttl: ttl, now: time.Now}, nil
}

func (s *BadgerStore) Create(ctx context.Context) (*Session, error) {
	sess, err := newSession(s.now(), s.ttl)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(sessionKeyPrefix+sess.Token), data).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return nil, fmt.Errorf("set session: %w", err)
	}

	return sess, nil
}

func (s *BadgerStore) Validate(ctx context.Context, token string) (*Session, error) {
	var sess Session

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionKeyPrefix + token))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		})
	})
	if err != nil {
		return nil, err
	}

	if !sess.Authenticated {
		return nil, ErrSessionNotFound
	}
	if sess.IsExpiredAt(s.now()) {
		_ = s.Invalidate(ctx, token)
		return nil, ErrSessionExpired
	}
	return &sess, nil
}

func (s *BadgerStore) Invalidate(ctx context.Context, token string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(sessionKeyPrefix + token))
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *BadgerStore) SweepExpired(ctx context.Context) (int, error) {
	now := s.now()
	var expired [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(sessionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			var sess Session
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &sess)
			})
			if err != nil || sess.IsExpiredAt(now) {
				// Undecodable entries are swept too
				expired = append(expired, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan sessions: %w", err)
	}

	count := 0
	for _, key := range expired {
		if ctx.Err() != nil {
			break
		}
		err := s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key)
		})
		if err != nil {
			continue
		}
		count++
	}

	return count, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
