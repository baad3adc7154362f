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

package fulltext

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"

	"github.com/ianlewis/go-ldoce5/extract"
	"github.com/ianlewis/go-ldoce5/internal/folding"
)

// TempSuffix is appended to the index directory while it is being built.
const TempSuffix = ".tmp"

var errClosed = errors.New("writer closed")

// WriterOptions are options for building a full-text index.
type WriterOptions struct {
	// BatchSize is the number of documents indexed per batch.
	BatchSize int
}

// DefaultWriterOptions is the default options for a [Writer].
var DefaultWriterOptions = &WriterOptions{
	BatchSize: 1000,
}

// Writer builds a full-text index. The index is built in a temporary
// directory that replaces dir on Commit.
type Writer struct {
	dir    string
	tmpDir string
	idx    bleve.Index
	batch  *bleve.Batch
	size   int
	n      uint64
}

// Create starts building a full-text index at dir. If opts is nil,
// [DefaultWriterOptions] is used.
func Create(dir string, opts *WriterOptions) (*Writer, error) {
	if opts == nil {
		opts = DefaultWriterOptions
	}
	size := opts.BatchSize
	if size <= 0 {
		size = DefaultWriterOptions.BatchSize
	}

	tmpDir := dir + TempSuffix
	if err := os.RemoveAll(tmpDir); err != nil {
		return nil, fmt.Errorf("removing stale index: %w", err)
	}

	m, err := NewIndexMapping()
	if err != nil {
		return nil, fmt.Errorf("creating index mapping: %w", err)
	}

	idx, err := bleve.New(tmpDir, m)
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}

	return &Writer{
		dir:    dir,
		tmpDir: tmpDir,
		idx:    idx,
		batch:  idx.NewBatch(),
		size:   size,
	}, nil
}

// Add adds an item to the index.
func (w *Writer) Add(item *extract.Item) error {
	if w.idx == nil {
		return errClosed
	}
	code := item.Type.Code()
	if code == "" {
		return fmt.Errorf("%w: %v", extract.ErrUnknownItemType, item.Type)
	}

	doc := document{
		Content:  item.Content,
		Label:    item.Label,
		Path:     item.Path,
		Priority: item.Priority,
		SortKey:  folding.Key(item.SortKey),
		ItemType: code,
		AsFilter: strings.Fields(item.AsFilter),
	}
	id := strconv.FormatUint(w.n, 16)
	w.n++
	if err := w.batch.Index(id, doc); err != nil {
		return fmt.Errorf("indexing %q: %w", item.Path, err)
	}
	if w.batch.Size() >= w.size {
		return w.flush()
	}
	return nil
}

func (w *Writer) flush() error {
	if w.batch.Size() == 0 {
		return nil
	}
	if err := w.idx.Batch(w.batch); err != nil {
		return fmt.Errorf("writing batch: %w", err)
	}
	w.batch.Reset()
	return nil
}

// Commit flushes pending documents and moves the index into place.
func (w *Writer) Commit() error {
	if w.idx == nil {
		return errClosed
	}
	err := w.flush()
	if cerr := w.idx.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing index: %w", cerr)
	}
	w.idx = nil
	if err == nil {
		err = os.RemoveAll(w.dir)
	}
	if err == nil {
		err = os.Rename(w.tmpDir, w.dir)
	}
	if err != nil {
		_ = os.RemoveAll(w.tmpDir)
		return err
	}
	return nil
}

// Abort discards the index being built.
func (w *Writer) Abort() error {
	if w.idx != nil {
		_ = w.idx.Close()
		w.idx = nil
	}
	if err := os.RemoveAll(w.tmpDir); err != nil {
		return fmt.Errorf("removing index: %w", err)
	}
	return nil
}
