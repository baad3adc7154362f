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
	"bufio"
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"github.com/ianlewis/go-ldoce5/internal/folding"
)

const (
	// TempSuffix is appended to the index path for the file being
	// generated.
	TempSuffix = ".tmp"

	// ScratchSuffix is appended to the index path for the unsorted record
	// file.
	ScratchSuffix = ".scratch.tmp"
)

var (
	// ErrFieldTooLarge indicates that a record field does not fit in the
	// index format.
	ErrFieldTooLarge = errors.New("field too large")

	errCommitted = errors.New("index already committed")
)

type entry struct {
	pos      uint32
	key      string
	priority uint8
}

// Writer builds a prefix index. Records are appended to a scratch file in any
// order and sorted when the index is committed. A Writer is not safe for
// concurrent use.
type Writer struct {
	path        string
	tmpPath     string
	scratchPath string

	f       *os.File
	w       *bufio.Writer
	pos     uint64
	entries []entry
}

// Create starts building an index that will be stored at path.
func Create(path string) (*Writer, error) {
	scratchPath := path + ScratchSuffix
	f, err := os.Create(scratchPath)
	if err != nil {
		return nil, fmt.Errorf("creating prefix index: %w", err)
	}
	return &Writer{
		path:        path,
		tmpPath:     path + TempSuffix,
		scratchPath: scratchPath,
		f:           f,
		w:           bufio.NewWriter(f),
	}, nil
}

// Add adds a record. plain is folded into the record's key.
func (w *Writer) Add(plain, typeCode, label, path string, priority int) error {
	if w.f == nil {
		return errCommitted
	}

	key := folding.Key(plain)
	switch {
	case len(key) > math.MaxUint16:
		return fmt.Errorf("%w: key %q", ErrFieldTooLarge, key)
	case len(typeCode) > math.MaxUint8:
		return fmt.Errorf("%w: type code %q", ErrFieldTooLarge, typeCode)
	case len(label) > math.MaxUint16:
		return fmt.Errorf("%w: label for %q", ErrFieldTooLarge, key)
	case len(path) > math.MaxUint16:
		return fmt.Errorf("%w: path for %q", ErrFieldTooLarge, key)
	case priority < 0 || priority > math.MaxUint8:
		return fmt.Errorf("%w: priority %d", ErrFieldTooLarge, priority)
	}

	size := uint64(recordHeaderSize + len(key) + len(typeCode) + len(label) + len(path))
	if headerSize+w.pos+size+4*uint64(len(w.entries)+1) > math.MaxUint32 {
		return fmt.Errorf("%w: index exceeds 4GiB", ErrFieldTooLarge)
	}

	var h [recordHeaderSize]byte
	//nolint:gosec // lengths are bounds checked above.
	{
		binary.LittleEndian.PutUint16(h[0:], uint16(len(key)))
		h[2] = uint8(len(typeCode))
		binary.LittleEndian.PutUint16(h[3:], uint16(len(label)))
		binary.LittleEndian.PutUint16(h[5:], uint16(len(path)))
		h[7] = uint8(priority)
	}
	if _, err := w.w.Write(h[:]); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	for _, s := range []string{key, typeCode, label, path} {
		if _, err := w.w.WriteString(s); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}

	w.entries = append(w.entries, entry{
		pos:      uint32(w.pos),
		key:      key,
		priority: uint8(priority),
	})
	w.pos += size

	return nil
}

// Commit sorts the records and writes the index file. The scratch file is
// removed whether or not Commit succeeds.
func (w *Writer) Commit() error {
	if w.f == nil {
		return errCommitted
	}
	defer func() {
		_ = os.Remove(w.scratchPath)
	}()

	err := w.commit()
	if closeErr := w.f.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	w.f = nil
	if err != nil {
		_ = os.Remove(w.tmpPath)
		return fmt.Errorf("committing %q: %w", w.path, err)
	}
	return nil
}

func (w *Writer) commit() error {
	first := w.pos
	slices.SortStableFunc(w.entries, func(a, b entry) int {
		if c := cmp.Compare(a.key, b.key); c != 0 {
			return c
		}
		return cmp.Compare(a.priority, b.priority)
	})

	// The sorted offsets trail the records in the scratch file.
	var b [4]byte
	for _, e := range w.entries {
		binary.LittleEndian.PutUint32(b[:], e.pos)
		if _, err := w.w.Write(b[:]); err != nil {
			return fmt.Errorf("writing offsets: %w", err)
		}
	}
	num := len(w.entries)
	w.entries = nil
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("writing offsets: %w", err)
	}

	if err := w.generate(num, first); err != nil {
		return err
	}
	return os.Rename(w.tmpPath, w.path)
}

// generate writes the final index file from the scratch file, relocating
// the records so that they are stored in key order.
func (w *Writer) generate(num int, first uint64) error {
	fi, err := w.f.Stat()
	if err != nil {
		return fmt.Errorf("reading scratch file: %w", err)
	}
	if uint64(fi.Size()) != first+uint64(num)*4 {
		return fmt.Errorf("%w: scratch file size mismatch", ErrCorruptIndex)
	}

	dst, err := os.Create(w.tmpPath)
	if err != nil {
		return fmt.Errorf("creating prefix index: %w", err)
	}
	out := bufio.NewWriter(dst)

	var header [headerSize]byte
	binary.LittleEndian.PutUint32(header[0:], Magic)
	binary.LittleEndian.PutUint32(header[4:], Version)
	//nolint:gosec // sizes are bounds checked by Add.
	{
		binary.LittleEndian.PutUint32(header[8:], uint32(num))
		binary.LittleEndian.PutUint32(header[12:], uint32(first+headerSize))
	}
	if _, err := out.Write(header[:]); err != nil {
		_ = dst.Close()
		return fmt.Errorf("writing header: %w", err)
	}

	offsets := make([]byte, 4*num)
	if _, err := w.f.ReadAt(offsets, int64(first)); err != nil {
		_ = dst.Close()
		return fmt.Errorf("reading offsets: %w", err)
	}

	newOffsets := make([]byte, 4*num)
	next := uint32(headerSize)
	var h [recordHeaderSize]byte
	for i := range num {
		pos := int64(binary.LittleEndian.Uint32(offsets[4*i:]))
		if _, err := w.f.ReadAt(h[:], pos); err != nil {
			_ = dst.Close()
			return fmt.Errorf("reading record: %w", err)
		}
		size := int64(binary.LittleEndian.Uint16(h[0:])) +
			int64(h[2]) +
			int64(binary.LittleEndian.Uint16(h[3:])) +
			int64(binary.LittleEndian.Uint16(h[5:]))

		binary.LittleEndian.PutUint32(newOffsets[4*i:], next)
		if _, err := out.Write(h[:]); err != nil {
			_ = dst.Close()
			return fmt.Errorf("writing record: %w", err)
		}
		if _, err := io.Copy(out, io.NewSectionReader(w.f, pos+recordHeaderSize, size)); err != nil {
			_ = dst.Close()
			return fmt.Errorf("writing record: %w", err)
		}
		//nolint:gosec // sizes are bounds checked by Add.
		next += uint32(recordHeaderSize + size)
	}

	if _, err := out.Write(newOffsets); err != nil {
		_ = dst.Close()
		return fmt.Errorf("writing offsets: %w", err)
	}
	if err := out.Flush(); err != nil {
		_ = dst.Close()
		return fmt.Errorf("writing prefix index: %w", err)
	}
	if err := dst.Sync(); err != nil {
		_ = dst.Close()
		return fmt.Errorf("writing prefix index: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("writing prefix index: %w", err)
	}
	return nil
}

// Abort discards the index. It is safe to call Abort after Commit.
func (w *Writer) Abort() error {
	if w.f == nil {
		return nil
	}
	_ = w.f.Close()
	w.f = nil
	if err := os.Remove(w.scratchPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %q: %w", w.scratchPath, err)
	}
	return nil
}
