package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const lookupBucketName = "lookups"

// ErrLookupNotFound is returned when no pending lookup has the requested ID
var ErrLookupNotFound = errors.New("lookup not found")

// DB defines the interface for database operations
type DB interface {
	// SaveLookup saves a lookup to the database
	SaveLookup(lookup *Lookup) error

	// GetLookup retrieves a lookup by ID
	GetLookup(id string) (*Lookup, error)

	// DeleteLookup removes a lookup from the database
	DeleteLookup(id string) error

	// DeleteLookupsBefore removes lookups created before t and returns how many were removed
	DeleteLookupsBefore(t time.Time) (int, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(lookupBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveLookup saves a lookup to the database
func (b *BoltDB) SaveLookup(lookup *Lookup) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(lookupBucketName))
		data, err := json.Marshal(lookup)
		if err != nil {
			return fmt.Errorf("marshaling lookup: %w", err)
		}
		return bucket.Put([]byte(lookup.ID), data)
	})
}

// GetLookup retrieves a lookup by ID
func (b *BoltDB) GetLookup(id string) (*Lookup, error) {
	var lookup *Lookup
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(lookupBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrLookupNotFound, id)
		}
		return json.Unmarshal(data, &lookup)
	})
	if err != nil {
		return nil, err
	}
	return lookup, nil
}

// DeleteLookup removes a lookup from the database
func (b *BoltDB) DeleteLookup(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(lookupBucketName))
		return bucket.Delete([]byte(id))
	})
}

// DeleteLookupsBefore removes lookups that were never exported
func (b *BoltDB) DeleteLookupsBefore(t time.Time) (int, error) {
	deleted := 0
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(lookupBucketName))

		var stale [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			var lookup Lookup
			if err := json.Unmarshal(v, &lookup); err != nil {
				return fmt.Errorf("unmarshaling lookup: %w", err)
			}
			if lookup.CreatedAt.Before(t) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		// keys are deleted after iteration; bbolt cursors break on delete
		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		deleted = len(stale)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
