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

package testutil

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/ianlewis/go-ldoce5/idm"
)

const (
	filesConfig = `; files table
[GENERAL]
version = 1

[DAT]
$content, first byte = ULONG
$a_dirs, owner = USHORT
comment = STRING
`

	dirsConfig = `[DAT]
$parent = U24
`
)

// ArchiveFile is a file stored by MakeArchive.
type ArchiveFile struct {
	// Dir is the directory of the file. The empty string is the archive
	// root.
	Dir string

	// Name is the file name.
	Name string

	// Data is the file content.
	Data []byte
}

// ArchiveOptions are options for MakeArchive.
type ArchiveOptions struct {
	// FilesPerBlock is the number of files compressed together. Zero puts
	// every file in one block.
	FilesPerBlock int
}

// MakeArchive writes an IDM archive holding files into the data directory.
func MakeArchive(t testing.TB, dataDir, archive string, files []ArchiveFile, opts *ArchiveOptions) {
	t.Helper()

	if opts == nil {
		opts = &ArchiveOptions{}
	}
	perBlock := opts.FilesPerBlock
	if perBlock <= 0 {
		perBlock = max(len(files), 1)
	}

	dir, err := idm.ArchiveDir(archive)
	if err != nil {
		t.Fatalf("ArchiveDir: %v", err)
	}
	filesBase := filepath.Join(dataDir, dir, "files.skn")
	dirsBase := filepath.Join(dataDir, dir, "dirs.skn")
	for _, d := range []string{filesBase, dirsBase} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
	}

	// Directory 0 is the archive root.
	dirIndex := map[string]int{"": 0}
	var dirNames, dirsDat []byte
	addDir := func(name string) {
		dirIndex[name] = len(dirIndex)
		dirNames = append(dirNames, name...)
		dirNames = append(dirNames, 0)
		dirsDat = append(dirsDat, 0, 0, 0)
	}
	dirNames = append(dirNames, 0)
	dirsDat = append(dirsDat, 0, 0, 0)

	var fileNames, filesDat, content, catalog []byte
	var block bytes.Buffer
	var offset uint32
	flush := func() {
		if block.Len() == 0 {
			return
		}
		var z bytes.Buffer
		zw := zlib.NewWriter(&z)
		if _, err := zw.Write(block.Bytes()); err != nil {
			t.Fatalf("compressing block: %v", err)
		}
		if err := zw.Close(); err != nil {
			t.Fatalf("compressing block: %v", err)
		}
		//nolint:gosec // test data is small.
		{
			catalog = binary.LittleEndian.AppendUint32(catalog, uint32(block.Len()))
			catalog = binary.LittleEndian.AppendUint32(catalog, uint32(z.Len()))
		}
		content = append(content, z.Bytes()...)
		block.Reset()
	}

	for i, f := range files {
		if i > 0 && i%perBlock == 0 {
			flush()
		}
		if _, ok := dirIndex[f.Dir]; !ok {
			addDir(f.Dir)
		}

		fileNames = append(fileNames, f.Name...)
		fileNames = append(fileNames, 0)
		filesDat = binary.LittleEndian.AppendUint32(filesDat, offset)
		//nolint:gosec // test data is small.
		filesDat = binary.LittleEndian.AppendUint16(filesDat, uint16(dirIndex[f.Dir]))

		block.Write(f.Data)
		block.WriteByte(0)
		//nolint:gosec // test data is small.
		offset += uint32(len(f.Data) + 1)
	}
	flush()

	for name, data := range map[string][]byte{
		filepath.Join(filesBase, "config.cft"):      []byte(filesConfig),
		filepath.Join(filesBase, "NAME.tda"):        fileNames,
		filepath.Join(filesBase, "files.dat"):       filesDat,
		filepath.Join(filesBase, "CONTENT.tda"):     content,
		filepath.Join(filesBase, "CONTENT.tda.tdz"): catalog,
		filepath.Join(dirsBase, "config.cft"):       []byte(dirsConfig),
		filepath.Join(dirsBase, "NAME.tda"):         dirNames,
		filepath.Join(dirsBase, "dirs.dat"):         dirsDat,
	} {
		if err := os.WriteFile(name, data, 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
}

// MakeDataDir creates a data directory holding every archive. Archives not
// present in archives are created empty.
func MakeDataDir(t testing.TB, archives map[string][]ArchiveFile, opts *ArchiveOptions) string {
	t.Helper()

	dataDir := filepath.Join(t.TempDir(), "ldoce5.data")
	for _, name := range idm.Names() {
		MakeArchive(t, dataDir, name, archives[name], opts)
	}
	return dataDir
}
