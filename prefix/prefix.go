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

package prefix

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/ianlewis/go-ldoce5/internal/folding"
	"github.com/ianlewis/go-ldoce5/internal/index"
)

const (
	// Magic is the magic number at the start of an index file.
	Magic uint32 = 0x28061691

	// Version is the supported index format version.
	Version uint32 = 1

	headerSize       = 16
	recordHeaderSize = 8
)

// ErrCorruptIndex indicates that the index file is malformed.
var ErrCorruptIndex = errors.New("corrupt prefix index")

// Result is a search result.
type Result struct {
	// Label is the display markup for the item.
	Label string

	// Path is the content path of the item.
	Path string

	// SortKey is the folded key of the item.
	SortKey string

	// TypeCode is the item type code.
	TypeCode string

	// Priority orders items with equal keys. Lower is more prominent.
	Priority int
}

// Index is an open prefix index. An Index is safe for concurrent use.
type Index struct {
	data  []byte
	num   int
	first uint32

	m mmap.MMap
	f *os.File
}

// Open opens the index at path. The file is memory mapped read-only.
func Open(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening prefix index: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("opening prefix index: %w", err)
	}
	if fi.Size() < headerSize {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %q: file too small", ErrCorruptIndex, path)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mapping %q: %w", path, err)
	}

	idx, err := New(m)
	if err != nil {
		_ = m.Unmap()
		_ = f.Close()
		return nil, fmt.Errorf("%q: %w", path, err)
	}
	idx.m = m
	idx.f = f

	return idx, nil
}

// New returns an Index over index data held in memory.
func New(b []byte) (*Index, error) {
	if len(b) < headerSize {
		return nil, fmt.Errorf("%w: file too small", ErrCorruptIndex)
	}
	if m := binary.LittleEndian.Uint32(b); m != Magic {
		return nil, fmt.Errorf("%w: bad magic %#x", ErrCorruptIndex, m)
	}
	if v := binary.LittleEndian.Uint32(b[4:]); v != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptIndex, v)
	}
	num := binary.LittleEndian.Uint32(b[8:])
	first := binary.LittleEndian.Uint32(b[12:])
	if num == 0 || first == 0 {
		return nil, fmt.Errorf("%w: no records", ErrCorruptIndex)
	}
	if uint64(len(b)) != uint64(first)+uint64(num)*4 {
		return nil, fmt.Errorf("%w: size mismatch", ErrCorruptIndex)
	}

	return &Index{
		data:  b,
		num:   int(num),
		first: first,
	}, nil
}

// Len returns the number of records in the index.
func (idx *Index) Len() int {
	return idx.num
}

// Search returns the records whose key starts with the folded text, ordered
// by key and priority. At most limit records are returned. A limit of zero or
// less returns all matching records.
func (idx *Index) Search(text string, limit int) ([]*Result, error) {
	key := folding.Key(text)
	if key == "" {
		return nil, nil
	}

	start, end, err := index.PrefixRange(keys{idx}, key)
	if err != nil {
		return nil, err
	}
	if limit > 0 && end-start > limit {
		end = start + limit
	}

	var results []*Result
	for i := start; i < end; i++ {
		r, err := idx.record(i)
		if err != nil {
			return nil, err
		}
		results = append(results, r.result())
	}
	return results, nil
}

// Close releases the memory map.
func (idx *Index) Close() error {
	if idx.m == nil {
		return nil
	}
	err := idx.m.Unmap()
	idx.m = nil
	idx.data = nil
	if closeErr := idx.f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("closing prefix index: %w", err)
	}
	return nil
}

type rawRecord struct {
	plain    []byte
	typeCode []byte
	label    []byte
	path     []byte
	priority uint8
}

func (r *rawRecord) result() *Result {
	return &Result{
		Label:    string(r.label),
		Path:     string(r.path),
		SortKey:  string(r.plain),
		TypeCode: string(r.typeCode),
		Priority: int(r.priority),
	}
}

// record returns the i-th record in key order.
func (idx *Index) record(i int) (*rawRecord, error) {
	p := uint64(idx.first) + uint64(i)*4
	pos := uint64(binary.LittleEndian.Uint32(idx.data[p:]))
	return decodeRecord(idx.data, pos)
}

func decodeRecord(b []byte, pos uint64) (*rawRecord, error) {
	if pos+recordHeaderSize > uint64(len(b)) {
		return nil, fmt.Errorf("%w: record offset %d out of range", ErrCorruptIndex, pos)
	}
	h := b[pos : pos+recordHeaderSize]
	lenPlain := uint64(binary.LittleEndian.Uint16(h))
	lenType := uint64(h[2])
	lenLabel := uint64(binary.LittleEndian.Uint16(h[3:]))
	lenPath := uint64(binary.LittleEndian.Uint16(h[5:]))

	start := pos + recordHeaderSize
	end := start + lenPlain + lenType + lenLabel + lenPath
	if end > uint64(len(b)) {
		return nil, fmt.Errorf("%w: record at %d out of range", ErrCorruptIndex, pos)
	}

	r := &rawRecord{priority: h[7]}
	p := start
	r.plain, p = b[p:p+lenPlain], p+lenPlain
	r.typeCode, p = b[p:p+lenType], p+lenType
	r.label, p = b[p:p+lenLabel], p+lenLabel
	r.path = b[p : p+lenPath]
	return r, nil
}

// keys exposes the record keys in offset array order.
type keys struct {
	idx *Index
}

func (k keys) Len() int {
	return k.idx.num
}

func (k keys) Key(i int) (string, error) {
	r, err := k.idx.record(i)
	if err != nil {
		return "", err
	}
	return string(r.plain), nil
}
