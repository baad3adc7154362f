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

package prefix_test

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ianlewis/go-ldoce5/prefix"
)

type record struct {
	plain    string
	typeCode string
	label    string
	path     string
	priority int
}

func build(t *testing.T, records []record) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "incremental.db")
	w, err := prefix.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, r := range records {
		if err := w.Add(r.plain, r.typeCode, r.label, r.path, r.priority); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, err := os.Stat(path + prefix.ScratchSuffix); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("scratch file left behind: %v", err)
	}
	return path
}

func open(t *testing.T, path string) *prefix.Index {
	t.Helper()

	idx, err := prefix.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := idx.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return idx
}

func sortKeys(results []*prefix.Result) []string {
	var keys []string
	for _, r := range results {
		keys = append(keys, r.SortKey)
	}
	return keys
}

func TestIndex_Search(t *testing.T) {
	t.Parallel()

	records := []record{
		{"apply", "hm", "<h>apply</h>", "/fs/u1", 2},
		{"application", "hm", "<h>application</h>", "/fs/u2", 1},
		{"apple", "hm", "<h>apple</h>", "/fs/u3", 1},
		{"banana", "hm", "<h>banana</h>", "/fs/u4", 1},
		{"Apple Pie", "p", "<c>apple pie</c>", "/fs/u5", 10},
		{"ap", "hm", "<h>ap</h>", "/fs/u6", 1},
	}

	tests := []struct {
		name  string
		text  string
		limit int

		expected []string
	}{
		{
			name:     "prefix",
			text:     "appl",
			limit:    10,
			expected: []string{"apple", "applepie", "application", "apply"},
		},
		{
			name:     "narrow prefix",
			text:     "applic",
			limit:    10,
			expected: []string{"application"},
		},
		{
			name:     "exact key",
			text:     "ap",
			limit:    10,
			expected: []string{"ap", "apple", "applepie", "application", "apply"},
		},
		{
			name:     "folded query",
			text:     "APPLE pie",
			limit:    10,
			expected: []string{"applepie"},
		},
		{
			name:     "limit",
			text:     "appl",
			limit:    2,
			expected: []string{"apple", "applepie"},
		},
		{
			name:     "unbounded",
			text:     "a",
			limit:    0,
			expected: []string{"ap", "apple", "applepie", "application", "apply"},
		},
		{
			name:     "no match",
			text:     "cherry",
			limit:    10,
			expected: nil,
		},
		{
			name:     "past last key",
			text:     "zzz",
			limit:    10,
			expected: nil,
		},
		{
			name:     "empty key",
			text:     " - ",
			limit:    10,
			expected: nil,
		},
	}

	idx := open(t, build(t, records))
	if got, want := idx.Len(), len(records); got != want {
		t.Errorf("Len: got %d, want %d", got, want)
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			results, err := idx.Search(tc.text, tc.limit)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if diff := cmp.Diff(tc.expected, sortKeys(results)); diff != "" {
				t.Errorf("Search (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestIndex_Search_records(t *testing.T) {
	t.Parallel()

	idx := open(t, build(t, []record{
		{"apply", "hm", "<h>apply</h>", "/fs/u1", 2},
		{"application", "hm", "<h>application</h>", "/fs/u2", 1},
		{"apple", "hm", "<h>apple</h>", "/fs/u3", 1},
	}))

	results, err := idx.Search("appl", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []*prefix.Result{
		{Label: "<h>apple</h>", Path: "/fs/u3", SortKey: "apple", TypeCode: "hm", Priority: 1},
		{Label: "<h>application</h>", Path: "/fs/u2", SortKey: "application", TypeCode: "hm", Priority: 1},
		{Label: "<h>apply</h>", Path: "/fs/u1", SortKey: "apply", TypeCode: "hm", Priority: 2},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Errorf("Search (-want, +got):\n%s", diff)
	}
}

func TestIndex_Search_priority(t *testing.T) {
	t.Parallel()

	idx := open(t, build(t, []record{
		{"run", "e", "example", "/fs/e", 20},
		{"run", "hv", "second variant", "/fs/v2", 2},
		{"run", "hm", "headword", "/fs/h", 1},
		{"run", "hv", "first variant", "/fs/v1", 2},
	}))

	results, err := idx.Search("run", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	var labels []string
	for _, r := range results {
		labels = append(labels, r.Label)
	}
	// Equal keys and priorities keep insertion order.
	want := []string{"headword", "second variant", "first variant", "example"}
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Errorf("Search (-want, +got):\n%s", diff)
	}
}

func TestIndex_Search_monotonic(t *testing.T) {
	t.Parallel()

	var records []record
	for _, w := range strings.Fields("the quick brown fox jumps over the lazy dog then thaw theory") {
		records = append(records, record{w, "hm", w, "/fs/" + w, 1})
	}
	idx := open(t, build(t, records))

	results, err := idx.Search("t", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	keys := sortKeys(results)
	want := []string{"thaw", "the", "the", "then", "theory"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("Search (-want, +got):\n%s", diff)
	}
}

func TestWriter_Add_tooLarge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		record record
	}{
		{
			name:   "key",
			record: record{strings.Repeat("a", 1<<16), "hm", "", "", 1},
		},
		{
			name:   "type code",
			record: record{"a", strings.Repeat("h", 256), "", "", 1},
		},
		{
			name:   "label",
			record: record{"a", "hm", strings.Repeat("l", 1<<16), "", 1},
		},
		{
			name:   "path",
			record: record{"a", "hm", "", strings.Repeat("p", 1<<16), 1},
		},
		{
			name:   "priority",
			record: record{"a", "hm", "", "", 256},
		},
		{
			name:   "negative priority",
			record: record{"a", "hm", "", "", -1},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			w, err := prefix.Create(filepath.Join(t.TempDir(), "incremental.db"))
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			defer func() {
				_ = w.Abort()
			}()

			r := tc.record
			err = w.Add(r.plain, r.typeCode, r.label, r.path, r.priority)
			if !errors.Is(err, prefix.ErrFieldTooLarge) {
				t.Errorf("Add: got %v, want %v", err, prefix.ErrFieldTooLarge)
			}
		})
	}
}

func TestWriter_Abort(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "incremental.db")
	w, err := prefix.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := w.Add("apple", "hm", "apple", "/fs/a", 1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := w.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}

	for _, p := range []string{path, path + prefix.TempSuffix, path + prefix.ScratchSuffix} {
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s: got %v, want %v", p, err, os.ErrNotExist)
		}
	}
}

func TestOpen_corrupt(t *testing.T) {
	t.Parallel()

	valid, err := os.ReadFile(build(t, []record{
		{"apple", "hm", "<h>apple</h>", "/fs/a", 1},
		{"banana", "hm", "<h>banana</h>", "/fs/b", 1},
	}))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	patch := func(off int, v uint32) []byte {
		b := append([]byte(nil), valid...)
		binary.LittleEndian.PutUint32(b[off:], v)
		return b
	}

	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "empty",
			data: nil,
		},
		{
			name: "truncated header",
			data: valid[:10],
		},
		{
			name: "truncated offsets",
			data: valid[:len(valid)-2],
		},
		{
			name: "bad magic",
			data: patch(0, 0xdeadbeef),
		},
		{
			name: "bad version",
			data: patch(4, 2),
		},
		{
			name: "no records",
			data: patch(8, 0),
		},
		{
			name: "zero first",
			data: patch(12, 0),
		},
		{
			name: "size mismatch",
			data: patch(8, 3),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "incremental.db")
			if err := os.WriteFile(path, tc.data, 0o600); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			idx, err := prefix.Open(path)
			if !errors.Is(err, prefix.ErrCorruptIndex) {
				if idx != nil {
					_ = idx.Close()
				}
				t.Errorf("Open: got %v, want %v", err, prefix.ErrCorruptIndex)
			}
		})
	}
}

func TestOpen_empty(t *testing.T) {
	t.Parallel()

	// An index with no records is written but cannot be opened.
	path := build(t, nil)
	if _, err := prefix.Open(path); !errors.Is(err, prefix.ErrCorruptIndex) {
		t.Errorf("Open: got %v, want %v", err, prefix.ErrCorruptIndex)
	}
}
