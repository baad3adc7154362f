// Copyright 2025 Ian Lewis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package indexer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/boltdb/bolt"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ianlewis/go-ldoce5/extract"
)

var itemsBucket = []byte("items")

// scanStore holds the items found while scanning the archives until the
// indexes are built from them. Items are kept in insertion order.
type scanStore struct {
	path string
	db   *bolt.DB
}

func openScanStore(path string) (*scanStore, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("removing scan store: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening scan store: %w", err)
	}
	// The store is discarded after the build.
	db.NoSync = true

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(itemsBucket)
		return err //nolint:wrapcheck // Wrapped below.
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating scan store: %w", err)
	}
	return &scanStore{path: path, db: db}, nil
}

// append stores items after the items already stored.
func (s *scanStore) append(items []*extract.Item) error {
	if len(items) == 0 {
		return nil
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(itemsBucket)
		for _, it := range items {
			seq, err := b.NextSequence()
			if err != nil {
				return err //nolint:wrapcheck // Wrapped below.
			}
			v, err := msgpack.Marshal(it)
			if err != nil {
				return err //nolint:wrapcheck // Wrapped below.
			}
			var k [8]byte
			binary.BigEndian.PutUint64(k[:], seq)
			if err := b.Put(k[:], v); err != nil {
				return err //nolint:wrapcheck // Wrapped below.
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing scan store: %w", err)
	}
	return nil
}

// forEach calls fn for each stored item in insertion order. It is safe to
// call forEach concurrently.
func (s *scanStore) forEach(fn func(*extract.Item) error) error {
	return s.db.View(func(tx *bolt.Tx) error { //nolint:wrapcheck // Errors come from fn or are wrapped.
		return tx.Bucket(itemsBucket).ForEach(func(_, v []byte) error {
			var it extract.Item
			if err := msgpack.Unmarshal(v, &it); err != nil {
				return fmt.Errorf("reading scan store: %w", err)
			}
			return fn(&it)
		})
	})
}

// remove closes and deletes the store.
func (s *scanStore) remove() error {
	err := s.db.Close()
	if rerr := os.Remove(s.path); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
		err = errors.Join(err, rerr)
	}
	if err != nil {
		return fmt.Errorf("removing scan store: %w", err)
	}
	return nil
}
