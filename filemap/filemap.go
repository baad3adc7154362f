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

// Package filemap implements the file map of an LDOCE5 index: a constant
// hash store mapping an archive file's lookup name to its location.
//
// Keys are the first 10 bytes of the MD5 digest of "archive:name". Values
// are [idm.Location] values in their binary form.
package filemap

import (
	"crypto/md5"
	"errors"
	"fmt"
	"strings"

	"github.com/ianlewis/go-ldoce5/cdb"
	"github.com/ianlewis/go-ldoce5/idm"
)

const keySize = 10

var (
	// ErrNotFound indicates that a file is not in the file map.
	ErrNotFound = errors.New("file not found")

	// ErrUnavailable indicates that the file map could not be read.
	ErrUnavailable = errors.New("file map unavailable")
)

// Key returns the file map key of the named file in an archive.
func Key(archive, name string) []byte {
	//nolint:gosec // md5 is the key function of the file format.
	sum := md5.Sum([]byte(archive + ":" + name))
	return sum[:keySize]
}

// ShortenID returns the short form of an entry id. Ids with four dot
// separated parts are shortened to the last two parts. Other ids are
// returned as is.
func ShortenID(id string) string {
	parts := strings.Split(id, ".")
	if len(parts) == 4 {
		return strings.Join(parts[2:4], ".")
	}
	return id
}

// Writer builds a file map.
type Writer struct {
	b *cdb.Builder
}

// Create starts building a file map at path.
func Create(path string) (*Writer, error) {
	b, err := cdb.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file map: %w", err)
	}
	return &Writer{b: b}, nil
}

// Add adds the location of a file.
func (w *Writer) Add(archive, name string, loc idm.Location) error {
	v, err := loc.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encoding location: %w", err)
	}
	if err := w.b.Add(Key(archive, name), v); err != nil {
		return fmt.Errorf("adding %s:%s: %w", archive, name, err)
	}
	return nil
}

// Commit writes the file map.
func (w *Writer) Commit() error {
	if err := w.b.Commit(); err != nil {
		return fmt.Errorf("committing file map: %w", err)
	}
	return nil
}

// Abort discards the file map.
func (w *Writer) Abort() error {
	if err := w.b.Abort(); err != nil {
		return fmt.Errorf("aborting file map: %w", err)
	}
	return nil
}

// Reader looks up file locations. A Reader is safe for concurrent use.
type Reader struct {
	r *cdb.Reader
}

// Open opens the file map at path.
func Open(path string) (*Reader, error) {
	r, err := cdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return &Reader{r: r}, nil
}

// Lookup returns the location of the named file in an archive.
func (r *Reader) Lookup(archive, name string) (idm.Location, error) {
	var loc idm.Location
	v, err := r.r.Get(Key(archive, name))
	if err != nil {
		if errors.Is(err, cdb.ErrNotFound) {
			return loc, fmt.Errorf("%w: %s:%s", ErrNotFound, archive, name)
		}
		return loc, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err := loc.UnmarshalBinary(v); err != nil {
		return loc, fmt.Errorf("%w: %s:%s: %w", ErrUnavailable, archive, name, err)
	}
	return loc, nil
}

// Close closes the file map.
func (r *Reader) Close() error {
	if err := r.r.Close(); err != nil {
		return fmt.Errorf("closing file map: %w", err)
	}
	return nil
}
