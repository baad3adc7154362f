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
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

type table struct {
	off uint32
	n   uint32
}

// Reader reads a constant database. A Reader is safe for concurrent use.
type Reader struct {
	data []byte

	// m and f are set when the database is memory mapped from a file.
	m mmap.MMap
	f *os.File

	tables  [tableCount]table
	records int
}

// Open opens the database at path. The file is memory mapped read-only and
// must not be modified while the Reader is open.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if fi.Size() < HeaderSize {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %q: file too small", ErrCorrupt, path)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mapping %q: %w", path, err)
	}

	r, err := NewReader(m)
	if err != nil {
		_ = m.Unmap()
		_ = f.Close()
		return nil, fmt.Errorf("%q: %w", path, err)
	}
	r.m = m
	r.f = f

	return r, nil
}

// NewReader returns a Reader for a database held in memory.
func NewReader(b []byte) (*Reader, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("%w: too small", ErrCorrupt)
	}

	r := &Reader{data: b}
	slots := uint64(0)
	for i := range r.tables {
		t := table{
			off: binary.LittleEndian.Uint32(b[i*slotSize:]),
			n:   binary.LittleEndian.Uint32(b[i*slotSize+4:]),
		}
		if t.off < HeaderSize {
			return nil, fmt.Errorf("%w: table %d offset %d inside header", ErrCorrupt, i, t.off)
		}
		if uint64(t.off)+uint64(t.n)*slotSize > uint64(len(b)) {
			return nil, fmt.Errorf("%w: table %d past end of file", ErrCorrupt, i)
		}
		r.tables[i] = t
		slots += uint64(t.n)
	}
	r.records = int(slots / 2)

	return r, nil
}

// Len returns the number of records in the database.
func (r *Reader) Len() int {
	return r.records
}

// Get returns the value for key. The returned slice is only valid until the
// Reader is closed. Get returns ErrNotFound if the key is not present.
func (r *Reader) Get(key []byte) ([]byte, error) {
	h := Hash(key)
	t := r.tables[h&0xff]
	if t.n == 0 {
		return nil, ErrNotFound
	}

	start := (h >> 8) % t.n
	for i := range t.n {
		p := uint64(t.off) + uint64((start+i)%t.n)*slotSize
		hash := binary.LittleEndian.Uint32(r.data[p:])
		pos := binary.LittleEndian.Uint32(r.data[p+4:])
		if pos == 0 {
			break
		}
		if hash != h {
			continue
		}
		k, v, _, err := r.record(uint64(pos))
		if err != nil {
			return nil, err
		}
		if bytes.Equal(k, key) {
			return v, nil
		}
	}

	return nil, ErrNotFound
}

// ForEach calls fn for each record in the order the records were added. If
// fn returns an error iteration stops and the error is returned.
func (r *Reader) ForEach(fn func(key, value []byte) error) error {
	pos := uint64(HeaderSize)
	for range r.records {
		k, v, next, err := r.record(pos)
		if err != nil {
			return err
		}
		if err := fn(k, v); err != nil {
			return err
		}
		pos = next
	}
	return nil
}

// record returns the key and value of the record at pos and the position of
// the following record.
func (r *Reader) record(pos uint64) ([]byte, []byte, uint64, error) {
	size := uint64(len(r.data))
	if pos+8 > size {
		return nil, nil, 0, fmt.Errorf("%w: record at %d past end of file", ErrCorrupt, pos)
	}
	klen := uint64(binary.LittleEndian.Uint32(r.data[pos:]))
	vlen := uint64(binary.LittleEndian.Uint32(r.data[pos+4:]))
	start := pos + 8
	end := start + klen + vlen
	if end > size {
		return nil, nil, 0, fmt.Errorf("%w: record at %d past end of file", ErrCorrupt, pos)
	}
	return r.data[start : start+klen], r.data[start+klen : end], end, nil
}

// Close releases the memory map.
func (r *Reader) Close() error {
	if r.m == nil {
		return nil
	}
	err := r.m.Unmap()
	r.m = nil
	r.data = nil
	if closeErr := r.f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}
