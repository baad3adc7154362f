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

package idm

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ReaderOptions are options for a Reader.
type ReaderOptions struct {
	// CacheSize is the number of decompressed blocks kept in memory.
	CacheSize int
}

// DefaultReaderOptions are the default options for a Reader.
var DefaultReaderOptions = &ReaderOptions{
	CacheSize: 1,
}

type blockKey struct {
	offset uint32
	size   uint32
}

// Reader reads files from an archive's content. A Reader is safe for
// concurrent use.
type Reader struct {
	r     io.ReaderAt
	cache *lru.Cache[blockKey, []byte]

	// mu serializes block decompression.
	mu sync.Mutex
}

// NewReader returns a Reader for content read from r. A nil opts uses
// [DefaultReaderOptions].
func NewReader(r io.ReaderAt, opts *ReaderOptions) (*Reader, error) {
	if opts == nil {
		opts = DefaultReaderOptions
	}
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultReaderOptions.CacheSize
	}
	cache, err := lru.New[blockKey, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("creating block cache: %w", err)
	}
	return &Reader{
		r:     r,
		cache: cache,
	}, nil
}

// OpenReader opens the content of the named archive in the data directory.
// The returned Reader must be closed.
func OpenReader(dataDir, archive string, opts *ReaderOptions) (*Reader, error) {
	dir, err := ArchiveDir(archive)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(dataDir, dir, "files.skn", "CONTENT.tda"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	r, err := NewReader(f, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

// Read returns the content of the file at loc. The returned slice is owned by
// the caller.
func (r *Reader) Read(loc Location) ([]byte, error) {
	block, err := r.block(blockKey{offset: loc.BlockOffset, size: loc.BlockSize})
	if err != nil {
		return nil, err
	}

	end := uint64(loc.Offset) + uint64(loc.Size)
	if end > uint64(len(block)) {
		return nil, fmt.Errorf("%w: file at %d+%d past end of block of %d bytes",
			ErrCorrupt, loc.Offset, loc.Size, len(block))
	}
	return bytes.Clone(block[loc.Offset:end]), nil
}

func (r *Reader) block(k blockKey) ([]byte, error) {
	if b, ok := r.cache.Get(k); ok {
		return b, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.cache.Get(k); ok {
		return b, nil
	}

	// The block size comes from the file map and is not trusted for
	// allocation. Only the bytes actually present are read.
	z, err := io.ReadAll(io.NewSectionReader(r.r, int64(k.offset), int64(k.size)))
	if err != nil {
		return nil, fmt.Errorf("%w: reading block at %d: %w", ErrUnavailable, k.offset, err)
	}
	if uint64(len(z)) != uint64(k.size) {
		return nil, fmt.Errorf("%w: block at %d+%d past end of content", ErrUnavailable, k.offset, k.size)
	}
	zr, err := zlib.NewReader(bytes.NewReader(z))
	if err != nil {
		return nil, fmt.Errorf("%w: block at %d: %w", ErrCorrupt, k.offset, err)
	}
	b, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: block at %d: %w", ErrCorrupt, k.offset, err)
	}
	if err := zr.Close(); err != nil {
		return nil, fmt.Errorf("%w: block at %d: %w", ErrCorrupt, k.offset, err)
	}

	r.cache.Add(k, b)
	return b, nil
}

// Close closes the underlying content file if it implements io.Closer.
func (r *Reader) Close() error {
	r.cache.Purge()
	if c, ok := r.r.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("closing archive: %w", err)
		}
	}
	return nil
}
