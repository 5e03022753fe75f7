// Package telestate is the default opt-in persisted-state plugin point from
// spec.md §6 ({get(key), set(key, value), delete(key)}), backed by bbolt.
// Grounded on internal/infra/telegram/peersmgr/manager.go's bucket-per-
// namespace bbolt usage (single bucket, []byte keys, db.Update/db.View).
package telestate

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"
	"go.etcd.io/bbolt"
)

const (
	bucketName     = "telecore_state"
	dbOpenTimeout  = time.Second
	dbFileMode     os.FileMode = 0o600
)

var bucketBytes = []byte(bucketName)

// Store persists arbitrary byte values under string keys, for components
// that want state to survive a process restart — the core dispatcher and
// waiter machine never use this themselves (spec.md's Non-goals exclude
// cross-restart waiter persistence); it exists for handlers that choose to
// opt in.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if absent) a bbolt file at path with one bucket.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("telestate: db path is empty")
	}
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, errors.Wrapf(err, "telestate: ensure dir %q", dir)
		}
	}

	db, err := bbolt.Open(path, dbFileMode, &bbolt.Options{Timeout: dbOpenTimeout})
	if err != nil {
		return nil, errors.Wrap(err, "telestate: open db")
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketBytes)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "telestate: create bucket")
	}

	return &Store{db: db}, nil
}

// Get returns the value stored under key, or ok=false if absent.
func (s *Store) Get(key string) (value []byte, ok bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketBytes).Get([]byte(key))
		if v != nil {
			value = append([]byte(nil), v...)
			ok = true
		}
		return nil
	})
	return value, ok, err
}

// Set stores value under key, overwriting any previous value.
func (s *Store) Set(key string, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBytes).Put([]byte(key), value)
	})
}

// Delete removes key, a no-op if absent.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBytes).Delete([]byte(key))
	})
}

// Close releases the underlying bbolt file.
func (s *Store) Close() error {
	return s.db.Close()
}
