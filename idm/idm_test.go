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

package idm_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ianlewis/go-ldoce5/idm"
	"github.com/ianlewis/go-ldoce5/internal/testutil"
)

func TestParseConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config string

		fields     map[string]idm.Field
		recordSize int
		err        error
	}{
		{
			name: "fields",
			config: `[GENERAL]
$ignored = ULONG

[DAT]
; comment
$content, x = ULONG
$A_Dirs = USHORT
name = STRING
small: UBYTE
mid = U24
`,
			fields: map[string]idm.Field{
				"$content": {Offset: 0, Size: 4},
				"$a_dirs":  {Offset: 4, Size: 2},
				"small":    {Offset: 6, Size: 1},
				"mid":      {Offset: 7, Size: 3},
			},
			recordSize: 10,
		},
		{
			name:       "no dat section",
			config:     "[GENERAL]\nversion = 1\n",
			fields:     map[string]idm.Field{},
			recordSize: 0,
		},
		{
			name:   "bad section",
			config: "[DAT\n",
			err:    idm.ErrCorrupt,
		},
		{
			name:   "missing value",
			config: "[DAT]\n$content\n",
			err:    idm.ErrCorrupt,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, err := idm.ParseConfig(strings.NewReader(tc.config))
			if !errors.Is(err, tc.err) {
				t.Fatalf("ParseConfig: got %v, want %v", err, tc.err)
			}
			if err != nil {
				return
			}

			if got, want := c.RecordSize, tc.recordSize; got != want {
				t.Errorf("RecordSize: got %d, want %d", got, want)
			}
			for name, want := range tc.fields {
				got, ok := c.Field(name)
				if !ok {
					t.Errorf("Field(%q): not found", name)
					continue
				}
				if diff := cmp.Diff(want, got); diff != "" {
					t.Errorf("Field(%q) (-want, +got):\n%s", name, diff)
				}
			}
			if _, ok := c.Field("name"); ok {
				t.Errorf("Field(%q): got field for non-integer type", "name")
			}
		})
	}
}

func TestField_Uint(t *testing.T) {
	t.Parallel()

	rec := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	tests := []struct {
		field    idm.Field
		expected uint32
	}{
		{idm.Field{Offset: 0, Size: 1}, 0x01},
		{idm.Field{Offset: 0, Size: 2}, 0x0201},
		{idm.Field{Offset: 1, Size: 3}, 0x040302},
		{idm.Field{Offset: 1, Size: 4}, 0x05040302},
	}

	for _, tc := range tests {
		if got := tc.field.Uint(rec); got != tc.expected {
			t.Errorf("%+v: got %#x, want %#x", tc.field, got, tc.expected)
		}
	}
}

func TestLocation_MarshalBinary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		loc  idm.Location
		size int
	}{
		{
			name: "narrow",
			loc:  idm.Location{BlockOffset: 1 << 30, BlockSize: 65535, Offset: 12, Size: 34},
			size: 10,
		},
		{
			name: "wide block size",
			loc:  idm.Location{BlockOffset: 1, BlockSize: 65536, Offset: 12, Size: 34},
			size: 16,
		},
		{
			name: "wide offset",
			loc:  idm.Location{BlockOffset: 1, BlockSize: 2, Offset: 70000, Size: 34},
			size: 16,
		},
		{
			name: "wide size",
			loc:  idm.Location{BlockOffset: 1, BlockSize: 2, Offset: 3, Size: 1 << 20},
			size: 16,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b, err := tc.loc.MarshalBinary()
			if err != nil {
				t.Fatalf("MarshalBinary: %v", err)
			}
			if got, want := len(b), tc.size; got != want {
				t.Errorf("len: got %d, want %d", got, want)
			}

			var got idm.Location
			if err := got.UnmarshalBinary(b); err != nil {
				t.Fatalf("UnmarshalBinary: %v", err)
			}
			if diff := cmp.Diff(tc.loc, got); diff != "" {
				t.Errorf("UnmarshalBinary (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestLocation_UnmarshalBinary_badLength(t *testing.T) {
	t.Parallel()

	var loc idm.Location
	if err := loc.UnmarshalBinary(make([]byte, 12)); !errors.Is(err, idm.ErrCorrupt) {
		t.Errorf("UnmarshalBinary: got %v, want %v", err, idm.ErrCorrupt)
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	files := []testutil.ArchiveFile{
		{Dir: "thumbnails", Name: "apple.jpg", Data: []byte("APPLE")},
		{Dir: "thumbnails", Name: "pear.jpg", Data: []byte("PEAR!")},
		{Dir: "fullsize", Name: "apple.jpg", Data: []byte("BIG APPLE")},
		{Dir: "", Name: "readme", Data: []byte("")},
		{Dir: "fullsize", Name: "plum.jpg", Data: []byte("PLUM")},
	}

	for _, perBlock := range []int{0, 1, 2} {
		dataDir := t.TempDir()
		testutil.MakeArchive(t, dataDir, "picture", files, &testutil.ArchiveOptions{
			FilesPerBlock: perBlock,
		})

		listed, err := idm.List(dataDir, "picture")
		if err != nil {
			t.Fatalf("List: %v", err)
		}

		r, err := idm.OpenReader(dataDir, "picture", nil)
		if err != nil {
			t.Fatalf("OpenReader: %v", err)
		}

		type file struct {
			Dirs []string
			Name string
			Data string
		}
		var got []file
		for _, f := range listed {
			data, err := r.Read(f.Location)
			if err != nil {
				t.Fatalf("Read(%q): %v", f.Name, err)
			}
			got = append(got, file{Dirs: f.Dirs, Name: f.Name, Data: string(data)})
		}
		if err := r.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}

		want := []file{
			{Dirs: []string{"thumbnails"}, Name: "apple.jpg", Data: "APPLE"},
			{Dirs: []string{"thumbnails"}, Name: "pear.jpg", Data: "PEAR!"},
			{Dirs: []string{"fullsize"}, Name: "apple.jpg", Data: "BIG APPLE"},
			{Dirs: []string{""}, Name: "readme", Data: ""},
			{Dirs: []string{"fullsize"}, Name: "plum.jpg", Data: "PLUM"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("FilesPerBlock=%d (-want, +got):\n%s", perBlock, diff)
		}
	}
}

func TestList_errors(t *testing.T) {
	t.Parallel()

	t.Run("unknown archive", func(t *testing.T) {
		t.Parallel()

		if _, err := idm.List(t.TempDir(), "bogus"); !errors.Is(err, idm.ErrUnknownArchive) {
			t.Errorf("List: got %v, want %v", err, idm.ErrUnknownArchive)
		}
	})

	t.Run("missing archive", func(t *testing.T) {
		t.Parallel()

		if _, err := idm.List(t.TempDir(), "fs"); !errors.Is(err, idm.ErrUnavailable) {
			t.Errorf("List: got %v, want %v", err, idm.ErrUnavailable)
		}
	})

	t.Run("missing catalog", func(t *testing.T) {
		t.Parallel()

		dataDir := t.TempDir()
		testutil.MakeArchive(t, dataDir, "fs", []testutil.ArchiveFile{
			{Name: "a.xml", Data: []byte("<a/>")},
		}, nil)
		path := filepath.Join(dataDir, "fs.skn", "files.skn", "CONTENT.tda.tdz")
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		if _, err := idm.List(dataDir, "fs"); !errors.Is(err, idm.ErrCorrupt) {
			t.Errorf("List: got %v, want %v", err, idm.ErrCorrupt)
		}
	})
}

func TestList_sharedOffset(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	testutil.MakeArchive(t, dataDir, "fs", []testutil.ArchiveFile{
		{Name: "a.xml", Data: []byte("<a/>")},
		{Name: "b.xml", Data: []byte("<b/>")},
	}, nil)

	// Give the second file the offset of the first.
	path := filepath.Join(dataDir, "fs.skn", "files.skn", "files.dat")
	dat, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	copy(dat[6:10], dat[0:4])
	if err := os.WriteFile(path, dat, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	files, err := idm.List(dataDir, "fs")
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	type span struct {
		Offset uint32
		Size   uint32
	}
	var got []span
	for _, f := range files {
		got = append(got, span{Offset: f.Location.Offset, Size: f.Location.Size})
	}
	// Both files run to the end of the block.
	want := []span{
		{Offset: 0, Size: 9},
		{Offset: 0, Size: 9},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("List (-want, +got):\n%s", diff)
	}
}

func TestReader_Read_errors(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	testutil.MakeArchive(t, dataDir, "fs", []testutil.ArchiveFile{
		{Name: "a.xml", Data: []byte("<a/>")},
	}, nil)
	files, err := idm.List(dataDir, "fs")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	loc := files[0].Location

	r, err := idm.OpenReader(dataDir, "fs", &idm.ReaderOptions{CacheSize: 4})
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	t.Cleanup(func() {
		_ = r.Close()
	})

	tests := []struct {
		name string
		loc  idm.Location
		err  error
	}{
		{
			name: "past end of block",
			loc:  idm.Location{BlockOffset: loc.BlockOffset, BlockSize: loc.BlockSize, Offset: 3, Size: 100},
			err:  idm.ErrCorrupt,
		},
		{
			name: "not a zlib stream",
			loc:  idm.Location{BlockOffset: 1, BlockSize: loc.BlockSize - 1, Offset: 0, Size: 1},
			err:  idm.ErrCorrupt,
		},
		{
			name: "past end of file",
			loc:  idm.Location{BlockOffset: 1 << 20, BlockSize: 10, Offset: 0, Size: 1},
			err:  idm.ErrUnavailable,
		},
		{
			name: "huge block size",
			loc:  idm.Location{BlockOffset: loc.BlockOffset, BlockSize: 1<<32 - 1, Offset: 0, Size: 1},
			err:  idm.ErrUnavailable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := r.Read(tc.loc); !errors.Is(err, tc.err) {
				t.Errorf("Read: got %v, want %v", err, tc.err)
			}
		})
	}
}

func TestReader_Read_copy(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	testutil.MakeArchive(t, dataDir, "fs", []testutil.ArchiveFile{
		{Name: "a.xml", Data: []byte("<a/>")},
	}, nil)
	files, err := idm.List(dataDir, "fs")
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	r, err := idm.OpenReader(dataDir, "fs", nil)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()

	b1, err := r.Read(files[0].Location)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	b1[0] = 'X'
	b2, err := r.Read(files[0].Location)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(b2, []byte("<a/>")) {
		t.Errorf("Read: got %q, want %q", b2, "<a/>")
	}
}

func TestIsDataDir(t *testing.T) {
	t.Parallel()

	dataDir := testutil.MakeDataDir(t, nil, nil)
	if !idm.IsDataDir(dataDir) {
		t.Errorf("IsDataDir(%q): got false, want true", dataDir)
	}

	if err := os.Remove(filepath.Join(dataDir, "menus.skn", "dirs.skn", "dirs.dat")); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if idm.IsDataDir(dataDir) {
		t.Errorf("IsDataDir(%q): got true, want false", dataDir)
	}

	if idm.IsDataDir(t.TempDir()) {
		t.Errorf("IsDataDir(empty): got true, want false")
	}
}

func TestNames(t *testing.T) {
	t.Parallel()

	names := idm.Names()
	if got, want := len(names), 22; got != want {
		t.Errorf("len(Names()): got %d, want %d", got, want)
	}
	for _, name := range names {
		if _, err := idm.ArchiveDir(name); err != nil {
			t.Errorf("ArchiveDir(%q): %v", name, err)
		}
	}
	dir, err := idm.ArchiveDir("activator_concept")
	if err != nil {
		t.Fatalf("ArchiveDir: %v", err)
	}
	if want := filepath.Join("activator.skn", "activator_concept.skn"); dir != want {
		t.Errorf("ArchiveDir: got %q, want %q", dir, want)
	}
}
