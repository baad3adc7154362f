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

package cdb

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// TempSuffix is appended to the path of a database while it is being built.
const TempSuffix = ".tmp"

var errFinalized = errors.New("writer already finalized")

type slot struct {
	hash uint32
	pos  uint32
}

// Writer writes a constant database. A Writer is not safe for concurrent
// use.
type Writer struct {
	ws  io.WriteSeeker
	w   *bufio.Writer
	pos uint64

	buckets   [tableCount][]slot
	finalized bool
}

// NewWriter returns a new Writer that writes the database to ws. The database
// is written starting at the current beginning of ws.
func NewWriter(ws io.WriteSeeker) (*Writer, error) {
	if _, err := ws.Seek(HeaderSize, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking past header: %w", err)
	}
	return &Writer{
		ws:  ws,
		w:   bufio.NewWriter(ws),
		pos: HeaderSize,
	}, nil
}

// Add adds a record to the database. Keys should be unique.
func (w *Writer) Add(key, value []byte) error {
	if w.finalized {
		return errFinalized
	}

	size := uint64(2*4 + len(key) + len(value))
	if w.pos+size > math.MaxUint32 {
		return fmt.Errorf("%w: adding key %q", ErrTooLarge, key)
	}

	var hdr [8]byte
	//nolint:gosec // lengths are bounds checked above.
	binary.LittleEndian.PutUint32(hdr[:4], uint32(len(key)))
	//nolint:gosec // lengths are bounds checked above.
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(value)))
	for _, b := range [][]byte{hdr[:], key, value} {
		if _, err := w.w.Write(b); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}

	h := Hash(key)
	w.buckets[h&0xff] = append(w.buckets[h&0xff], slot{
		hash: h,
		pos:  uint32(w.pos),
	})
	w.pos += size

	return nil
}

// Finalize writes the hash tables and the header. No records can be added
// after Finalize is called.
func (w *Writer) Finalize() error {
	if w.finalized {
		return errFinalized
	}
	w.finalized = true

	var header [HeaderSize]byte
	for i, bucket := range w.buckets {
		n := uint32(2 * len(bucket))
		if w.pos+uint64(n)*slotSize > math.MaxUint32 {
			return fmt.Errorf("%w: writing hash tables", ErrTooLarge)
		}

		table := make([]slot, n)
		for _, s := range bucket {
			j := (s.hash >> 8) % n
			for table[j].pos != 0 {
				j = (j + 1) % n
			}
			table[j] = s
		}

		binary.LittleEndian.PutUint32(header[i*slotSize:], uint32(w.pos))
		binary.LittleEndian.PutUint32(header[i*slotSize+4:], n)

		buf := make([]byte, int(n)*slotSize)
		for j, s := range table {
			binary.LittleEndian.PutUint32(buf[j*slotSize:], s.hash)
			binary.LittleEndian.PutUint32(buf[j*slotSize+4:], s.pos)
		}
		if _, err := w.w.Write(buf); err != nil {
			return fmt.Errorf("writing hash table: %w", err)
		}
		w.pos += uint64(len(buf))
	}

	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("writing hash tables: %w", err)
	}
	if _, err := w.ws.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to header: %w", err)
	}
	if _, err := w.ws.Write(header[:]); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	return nil
}

// Builder builds a database file. The database is written to a temporary
// file next to the destination and moved into place by Commit so that
// readers never observe a partial file.
type Builder struct {
	w *Writer
	f *os.File

	path    string
	tmpPath string
}

// Create starts building a new database that will be stored at path.
func Create(path string) (*Builder, error) {
	tmpPath := path + TempSuffix
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}
	w, err := NewWriter(f)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return nil, err
	}
	return &Builder{
		w:       w,
		f:       f,
		path:    path,
		tmpPath: tmpPath,
	}, nil
}

// Add adds a record to the database.
func (b *Builder) Add(key, value []byte) error {
	return b.w.Add(key, value)
}

// Commit finalizes the database and moves it to its destination. The
// temporary file is removed if Commit fails.
func (b *Builder) Commit() error {
	if b.f == nil {
		return errFinalized
	}
	err := b.w.Finalize()
	if err == nil {
		err = b.f.Sync()
	}
	if closeErr := b.f.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	b.f = nil
	if err == nil {
		err = os.Rename(b.tmpPath, b.path)
	}
	if err != nil {
		_ = os.Remove(b.tmpPath)
		return fmt.Errorf("committing %q: %w", b.path, err)
	}
	return nil
}

// Abort discards the database. It is safe to call Abort after Commit.
func (b *Builder) Abort() error {
	if b.f == nil {
		return nil
	}
	_ = b.f.Close()
	b.f = nil
	if err := os.Remove(b.tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %q: %w", b.tmpPath, err)
	}
	return nil
}
