package kev

import (
	"errors"
	"os"
	"time"

	"github.com/secscore-io/secscore/pkg/jsonutil"
	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("kev")
var snapshotKey = []byte("compact")

// Store persists a compactFile snapshot to a bbolt database. A bolt
// transaction makes the write atomic under a crash mid-write, with no
// separate temp-file-and-rename dance.
type Store struct {
	db *bolt.DB
}

// OpenStore opens (creating if necessary) the bbolt database at path and
// ensures its bucket exists.
func OpenStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads the persisted compact snapshot. ok is false if none has been
// written yet.
func (s *Store) Load() (compactFile, bool, error) {
	var cf compactFile
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		data := b.Get(snapshotKey)
		if data == nil {
			return nil
		}
		found = true
		return jsonutil.Unmarshal(data, &cf)
	})
	return cf, found, err
}

// Save writes cf as the new persisted snapshot, replacing any prior one
// within a single bbolt write transaction.
func (s *Store) Save(cf compactFile) error {
	data, err := jsonutil.Marshal(cf)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		return b.Put(snapshotKey, data)
	})
}

// loadFallbackFile reads the bundled fallback KEV JSON (plain file, not
// bbolt) shipped with the service, used only when no compact store snapshot
// exists yet.
func loadFallbackFile(path string) (compactFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return compactFile{}, err
	}
	var cf compactFile
	if err := jsonutil.Unmarshal(data, &cf); err != nil {
		return compactFile{}, err
	}
	return cf, nil
}

// ErrNoFallback describes the case where neither a persisted snapshot nor a
// bundled fallback file could be read. Nothing in the package returns it:
// EnsureBootstrapped logs bootstrap_missing and hydrates an empty catalog.
var ErrNoFallback = errors.New("kev: no cache snapshot or bundled fallback available")
