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

package filemap_test

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ianlewis/go-ldoce5/filemap"
	"github.com/ianlewis/go-ldoce5/idm"
	"github.com/ianlewis/go-ldoce5/internal/testutil"
)

func TestKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		archive  string
		name     string
		expected string
	}{
		{"", "", "853ae90f0351324bd73e"},
		{"fs", "apple", "ad766232baceb4513e96"},
	}

	for _, tc := range tests {
		if got := hex.EncodeToString(filemap.Key(tc.archive, tc.name)); got != tc.expected {
			t.Errorf("Key(%q, %q): got %s, want %s", tc.archive, tc.name, got, tc.expected)
		}
	}
}

func TestShortenID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id       string
		expected string
	}{
		{"cpwe.cpwe.u2fc0a1e4.cc0e", "u2fc0a1e4.cc0e"},
		{"u2fc0a1e4", "u2fc0a1e4"},
		{"a.b.c", "a.b.c"},
		{"a.b.c.d.e", "a.b.c.d.e"},
		{"", ""},
	}

	for _, tc := range tests {
		if got := filemap.ShortenID(tc.id); got != tc.expected {
			t.Errorf("ShortenID(%q): got %q, want %q", tc.id, got, tc.expected)
		}
	}
}

func TestReader_Lookup(t *testing.T) {
	t.Parallel()

	locs := map[string]idm.Location{
		"narrow": {BlockOffset: 100, BlockSize: 200, Offset: 300, Size: 400},
		"wide":   {BlockOffset: 100, BlockSize: 1 << 20, Offset: 300, Size: 400},
	}

	path := filepath.Join(t.TempDir(), "filemap.cdb")
	w, err := filemap.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for name, loc := range locs {
		if err := w.Add("fs", name, loc); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	r, err := filemap.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		_ = r.Close()
	})

	for name, want := range locs {
		got, err := r.Lookup("fs", name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Lookup(%q) (-want, +got):\n%s", name, diff)
		}
	}

	if _, err := r.Lookup("picture", "narrow"); !errors.Is(err, filemap.ErrNotFound) {
		t.Errorf("Lookup: got %v, want %v", err, filemap.ErrNotFound)
	}
}

func TestOpen_unavailable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := filemap.Open(filepath.Join(dir, "missing.cdb")); !errors.Is(err, filemap.ErrUnavailable) {
		t.Errorf("Open(missing): got %v, want %v", err, filemap.ErrUnavailable)
	}

	path := filepath.Join(dir, "short.cdb")
	if err := os.WriteFile(path, []byte("short"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := filemap.Open(path); !errors.Is(err, filemap.ErrUnavailable) {
		t.Errorf("Open(short): got %v, want %v", err, filemap.ErrUnavailable)
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	dataDir := testutil.MakeDataDir(t, map[string][]testutil.ArchiveFile{
		"fs": {
			{Name: "apple.xml", Data: []byte(`<Entry id="cpwe.cpwe.u2fc0a1e4.cc0e"/>`)},
			{Name: "pear.xml", Data: []byte(`<Entry id="u2fc0a1e5"/>`)},
		},
		"picture": {
			{Dir: "thumbnails", Name: "apple.jpg", Data: []byte("JPEG")},
		},
		"examples": {
			{Name: "e1.xml", Data: []byte(`<Example id="ex1"/>`)},
			{Name: "e2.xml", Data: []byte(`<Example idm_id="idm2"/>`)},
		},
		"sfx": {
			{Name: "bell.mp3", Data: []byte("MP3")},
		},
	}, nil)

	tests := []struct {
		archive  string
		expected []string
	}{
		{"fs", []string{"u2fc0a1e4.cc0e", "u2fc0a1e5"}},
		{"picture", []string{"thumbnails/apple.jpg"}},
		{"examples", []string{"ex1", "idm2"}},
		{"sfx", []string{"bell.mp3"}},
		{"menus", nil},
	}

	for _, tc := range tests {
		t.Run(tc.archive, func(t *testing.T) {
			t.Parallel()

			entries, err := filemap.List(dataDir, tc.archive)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			var names []string
			for _, e := range entries {
				names = append(names, e.Name)
			}
			if diff := cmp.Diff(tc.expected, names); diff != "" {
				t.Errorf("List (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestList_noID(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	testutil.MakeArchive(t, dataDir, "fs", []testutil.ArchiveFile{
		{Name: "apple.xml", Data: []byte(`<Entry/>`)},
	}, nil)

	if _, err := filemap.List(dataDir, "fs"); !errors.Is(err, idm.ErrCorrupt) {
		t.Errorf("List: got %v, want %v", err, idm.ErrCorrupt)
	}
}
