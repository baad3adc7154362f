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

package variations_test

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ianlewis/go-ldoce5/variations"
)

func TestReader_Get(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "variations.cdb")
	w, err := variations.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := w.Add("cat", []string{"cats", "kitten"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := w.Add("run", []string{"ran", "run", "running"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	r, err := variations.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		_ = r.Close()
	})

	tests := []struct {
		word     string
		expected []string
	}{
		{"cat", []string{"cat", "cats", "kitten"}},
		{"run", []string{"run", "ran", "running"}},
		{"dog", []string{"dog"}},
	}

	for _, tc := range tests {
		if diff := cmp.Diff(tc.expected, r.Get(tc.word)); diff != "" {
			t.Errorf("Get(%q) (-want, +got):\n%s", tc.word, diff)
		}
	}
}

func TestReader_Get_nil(t *testing.T) {
	t.Parallel()

	var r *variations.Reader
	if diff := cmp.Diff([]string{"cat"}, r.Get("cat")); diff != "" {
		t.Errorf("Get (-want, +got):\n%s", diff)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestMake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		base        string
		inflections []string

		expected map[string][]string
	}{
		{
			name:        "multi word",
			base:        "look up",
			inflections: []string{"looked up"},
			expected:    map[string][]string{},
		},
		{
			name:        "no inflections",
			base:        "Apple",
			inflections: nil,
			expected:    map[string][]string{"Apple": nil},
		},
		{
			name:        "case only",
			base:        "Apple",
			inflections: []string{"APPLE"},
			expected:    map[string][]string{"Apple": nil},
		},
		{
			name:        "graph",
			base:        "Run",
			inflections: []string{"ran", "running", "run"},
			expected: map[string][]string{
				"ran":     {"run", "running"},
				"run":     {"ran", "running"},
				"running": {"ran", "run"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := variations.Make(tc.base, tc.inflections)
			if diff := cmp.Diff(tc.expected, got); diff != "" {
				t.Errorf("Make (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestTable(t *testing.T) {
	t.Parallel()

	table := variations.NewTable()
	table.Merge(variations.Make("lie", []string{"lay", "lain"}))
	table.Merge(variations.Make("lay", []string{"laid"}))
	table.Merge(variations.Make("apple", nil))

	if got, want := table.Len(), 4; got != want {
		t.Errorf("Len: got %d, want %d", got, want)
	}

	path := filepath.Join(t.TempDir(), "variations.cdb")
	w, err := variations.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := table.Store(w); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	r, err := variations.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		_ = r.Close()
	})

	tests := []struct {
		word     string
		expected []string
	}{
		{"lay", []string{"lay", "laid", "lain", "lie"}},
		{"lie", []string{"lie", "lain", "lay"}},
		{"laid", []string{"laid", "lay"}},
		{"apple", []string{"apple"}},
	}
	for _, tc := range tests {
		if diff := cmp.Diff(tc.expected, r.Get(tc.word)); diff != "" {
			t.Errorf("Get(%q) (-want, +got):\n%s", tc.word, diff)
		}
	}
}
