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

// Package variations implements the word variation store. The store maps a
// word to the other inflected forms of the same headword so that a full-text
// query for one form also matches the others.
//
// The store is a constant hash store. Values are the variants joined with
// NUL bytes.
package variations

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/ianlewis/go-ldoce5/cdb"
)

// ErrUnavailable indicates that the store could not be opened.
var ErrUnavailable = errors.New("variation store unavailable")

const sep = "\x00"

// Reader reads a variation store. A Reader is safe for concurrent use.
type Reader struct {
	r *cdb.Reader
}

// Open opens the variation store at path.
func Open(path string) (*Reader, error) {
	r, err := cdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return &Reader{r: r}, nil
}

// Get returns word followed by its stored variants. Calling Get on a nil
// Reader, or for a word with no variants, returns just the word.
func (r *Reader) Get(word string) []string {
	words := []string{word}
	if r == nil || r.r == nil {
		return words
	}
	v, err := r.r.Get([]byte(word))
	if err != nil {
		return words
	}
	for _, w := range bytes.Split(v, []byte(sep)) {
		s := string(w)
		if s == "" || slices.Contains(words, s) {
			continue
		}
		words = append(words, s)
	}
	return words
}

// Close closes the store.
func (r *Reader) Close() error {
	if r == nil || r.r == nil {
		return nil
	}
	if err := r.r.Close(); err != nil {
		return fmt.Errorf("closing variation store: %w", err)
	}
	return nil
}

// Writer builds a variation store.
type Writer struct {
	b *cdb.Builder
}

// Create starts building a variation store at path.
func Create(path string) (*Writer, error) {
	b, err := cdb.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating variation store: %w", err)
	}
	return &Writer{b: b}, nil
}

// Add stores the variants of word.
func (w *Writer) Add(word string, variants []string) error {
	if err := w.b.Add([]byte(word), []byte(strings.Join(variants, sep))); err != nil {
		return fmt.Errorf("adding %q: %w", word, err)
	}
	return nil
}

// Commit writes the store.
func (w *Writer) Commit() error {
	if err := w.b.Commit(); err != nil {
		return fmt.Errorf("committing variation store: %w", err)
	}
	return nil
}

// Abort discards the store.
func (w *Writer) Abort() error {
	if err := w.b.Abort(); err != nil {
		return fmt.Errorf("aborting variation store: %w", err)
	}
	return nil
}

// Make returns the variation graph of a headword and its inflections. Every
// lower cased form maps to all of the other forms. Headwords of more than one
// word have no variations. A headword without distinct inflections maps to
// nothing.
func Make(base string, inflections []string) map[string][]string {
	if len(strings.Fields(base)) > 1 {
		return map[string][]string{}
	}

	set := map[string]struct{}{
		strings.ToLower(base): {},
	}
	for _, inflx := range inflections {
		set[strings.ToLower(inflx)] = struct{}{}
	}
	if len(set) <= 1 {
		return map[string][]string{base: nil}
	}

	forms := slices.Sorted(maps.Keys(set))
	m := make(map[string][]string, len(forms))
	for i, f := range forms {
		others := make([]string, 0, len(forms)-1)
		others = append(others, forms[:i]...)
		others = append(others, forms[i+1:]...)
		m[f] = others
	}
	return m
}

// Table accumulates variation graphs.
type Table struct {
	m map[string]map[string]struct{}
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{m: map[string]map[string]struct{}{}}
}

// Merge adds the variation graph m to the table. Words with no variants are
// skipped.
func (t *Table) Merge(m map[string][]string) {
	for word, variants := range m {
		if len(variants) == 0 {
			continue
		}
		set, ok := t.m[word]
		if !ok {
			set = map[string]struct{}{}
			t.m[word] = set
		}
		for _, v := range variants {
			set[v] = struct{}{}
		}
	}
}

// Len returns the number of words in the table.
func (t *Table) Len() int {
	return len(t.m)
}

// Variants returns the sorted variants of word.
func (t *Table) Variants(word string) []string {
	return slices.Sorted(maps.Keys(t.m[word]))
}

// Store adds every word in the table to w in sorted order.
func (t *Table) Store(w *Writer) error {
	for _, word := range slices.Sorted(maps.Keys(t.m)) {
		if err := w.Add(word, t.Variants(word)); err != nil {
			return err
		}
	}
	return nil
}
