package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// DefaultCollection is the bucket used when none is configured.
const DefaultCollection = "computers"

// BoltStore keeps one JSON document per key in a single bbolt bucket.
type BoltStore struct {
	db     *bbolt.DB
	bucket []byte
	logger *zap.Logger
}

// OpenBolt opens (or creates) the database file at path and ensures the
// collection bucket exists. bbolt holds an exclusive lock on the file, so
// only one process may open it at a time.
func OpenBolt(path, collection string, logger *zap.Logger) (*BoltStore, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0640, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", path, err)
	}

	bucket := []byte(collection)
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket %q: %w", collection, err)
	}

	logger.Info("Opened document store",
		zap.String("path", path),
		zap.String("collection", collection))

	return &BoltStore{db: db, bucket: bucket, logger: logger}, nil
}

// Get returns the document stored under id.
func (s *BoltStore) Get(_ context.Context, id string) (Document, error) {
	var doc Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(s.bucket).Get([]byte(id))
		if raw == nil {
			return ErrNotFound
		}
		return json.Unmarshal(raw, &doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Merge overlays fields onto the document under id, creating it if needed.
// Fields not named in the call keep their stored value. The read and the
// write happen in one transaction.
func (s *BoltStore) Merge(_ context.Context, id string, fields Document) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		key := []byte(id)

		doc := Document{}
		if raw := b.Get(key); raw != nil {
			if err := json.Unmarshal(raw, &doc); err != nil {
				// A corrupt document would block every later push for this
				// machine; start over from the incoming fields.
				s.logger.Warn("Discarding unreadable document",
					zap.String("id", id),
					zap.Error(err))
				doc = Document{}
			}
		}
		for k, v := range fields {
			doc[k] = v
		}

		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encoding document %s: %w", id, err)
		}
		return b.Put(key, data)
	})
}

// Delete removes the document under id. Deleting a missing key is not an error.
func (s *BoltStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(id))
	})
}

// List returns every document in key order. Unreadable documents are
// skipped and logged.
func (s *BoltStore) List(_ context.Context) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, v []byte) error {
			var doc Document
			if err := json.Unmarshal(v, &doc); err != nil {
				s.logger.Warn("Skipping unreadable document",
					zap.String("id", string(k)),
					zap.Error(err))
				return nil
			}
			entries = append(entries, Entry{ID: string(k), Doc: doc})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Close releases the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
