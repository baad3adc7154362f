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
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

const catalogRecordSize = 8

// File is a file listed in an archive.
type File struct {
	// Dirs is the directory path of the file from the archive root.
	Dirs []string

	// Name is the file name.
	Name string

	// Location is the position of the file content.
	Location Location
}

type dirRecord struct {
	name   string
	parent uint32
}

type catalog struct {
	origOffsets []uint64
	origSizes   []uint64
	cmpOffsets  []uint64
	cmpSizes    []uint64
}

// List returns the files of the named archive in the data directory, in the
// order they are stored.
func List(dataDir, archive string) ([]*File, error) {
	dir, err := ArchiveDir(archive)
	if err != nil {
		return nil, err
	}
	base := filepath.Join(dataDir, dir)
	filesBase := filepath.Join(base, "files.skn")
	dirsBase := filepath.Join(base, "dirs.skn")

	fcfg, err := parseConfigFile(filepath.Join(filesBase, "config.cft"))
	if err != nil {
		return nil, err
	}
	contentField, err := fcfg.requireField("$content")
	if err != nil {
		return nil, err
	}
	fileDirField, err := fcfg.requireField("$a_dirs")
	if err != nil {
		return nil, err
	}
	dcfg, err := parseConfigFile(filepath.Join(dirsBase, "config.cft"))
	if err != nil {
		return nil, err
	}
	parentField, err := dcfg.requireField("$parent")
	if err != nil {
		return nil, err
	}

	cat, err := readCatalog(filepath.Join(filesBase, "CONTENT.tda.tdz"))
	if err != nil {
		return nil, err
	}

	dirNames, err := readNames(filepath.Join(dirsBase, "NAME.tda"))
	if err != nil {
		return nil, err
	}
	var dirs []dirRecord
	err = readRecords(filepath.Join(dirsBase, "dirs.dat"), dcfg.RecordSize, func(i int, rec []byte) {
		if i < len(dirNames) {
			dirs = append(dirs, dirRecord{
				name:   dirNames[i],
				parent: parentField.Uint(rec),
			})
		}
	})
	if err != nil {
		return nil, err
	}

	fileNames, err := readNames(filepath.Join(filesBase, "NAME.tda"))
	if err != nil {
		return nil, err
	}
	var offsets, parents []uint32
	err = readRecords(filepath.Join(filesBase, "files.dat"), fcfg.RecordSize, func(_ int, rec []byte) {
		offsets = append(offsets, contentField.Uint(rec))
		parents = append(parents, fileDirField.Uint(rec))
	})
	if err != nil {
		return nil, err
	}

	n := min(len(fileNames), len(offsets))
	if n > 0 && len(cat.origSizes) == 0 {
		return nil, fmt.Errorf("%w: %s: empty catalog", ErrCorrupt, archive)
	}

	files := make([]*File, 0, n)
	ci := 0
	for i := range n {
		off := uint64(offsets[i])
		for ci < len(cat.origOffsets)-1 && off >= cat.origOffsets[ci+1] {
			ci++
		}
		if off < cat.origOffsets[ci] {
			return nil, fmt.Errorf("%w: %s: file %q out of order", ErrCorrupt, archive, fileNames[i])
		}
		rel := off - cat.origOffsets[ci]

		size := int64(-1)
		if i < len(offsets)-1 {
			size = int64(offsets[i+1]) - int64(offsets[i]) - 1
		}
		if size < 0 {
			// The last file, or one sharing its offset with the next, runs
			// to the end of its block.
			//nolint:gosec // catalog sizes are read from uint32 values.
			size = int64(cat.origSizes[ci]) - int64(rel) - 1
		}
		if size < 0 {
			return nil, fmt.Errorf("%w: %s: file %q has negative size", ErrCorrupt, archive, fileNames[i])
		}
		if cat.cmpOffsets[ci] > 1<<32-1 || rel > 1<<32-1 || size > 1<<32-1 {
			return nil, fmt.Errorf("%w: %s: file %q location too large", ErrCorrupt, archive, fileNames[i])
		}

		files = append(files, &File{
			Dirs: dirPath(dirs, parents[i]),
			Name: fileNames[i],
			//nolint:gosec // bounds checked above.
			Location: Location{
				BlockOffset: uint32(cat.cmpOffsets[ci]),
				BlockSize:   uint32(cat.cmpSizes[ci]),
				Offset:      uint32(rel),
				Size:        uint32(size),
			},
		})
	}

	return files, nil
}

// dirPath returns the path of directory i following parent links. A parent
// of zero ends the path. An index out of range yields an empty component.
func dirPath(dirs []dirRecord, i uint32) []string {
	var path []string
	for range len(dirs) + 1 {
		if int64(i) >= int64(len(dirs)) {
			path = append(path, "")
			break
		}
		d := dirs[i]
		path = append(path, d.name)
		if d.parent == 0 {
			break
		}
		i = d.parent
	}
	slices.Reverse(path)
	return path
}

func readCatalog(path string) (*catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	c := &catalog{}
	var origOffset, cmpOffset uint64
	for len(b) >= catalogRecordSize {
		origSize := uint64(binary.LittleEndian.Uint32(b[0:]))
		cmpSize := uint64(binary.LittleEndian.Uint32(b[4:]))
		c.origOffsets = append(c.origOffsets, origOffset)
		c.origSizes = append(c.origSizes, origSize)
		c.cmpOffsets = append(c.cmpOffsets, cmpOffset)
		c.cmpSizes = append(c.cmpSizes, cmpSize)
		origOffset += origSize
		cmpOffset += cmpSize
		b = b[catalogRecordSize:]
	}
	return c, nil
}

// readNames reads a NAME.tda file. Each name is terminated by a NUL byte.
func readNames(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	parts := bytes.Split(b, []byte{0})
	names := make([]string, 0, len(parts)-1)
	for _, p := range parts[:len(parts)-1] {
		names = append(names, string(p))
	}
	return names, nil
}

// readRecords calls fn for every complete fixed-size record in a dat file.
func readRecords(path string, size int, fn func(int, []byte)) error {
	if size <= 0 {
		return fmt.Errorf("%w: %s: empty record", ErrCorrupt, path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	for i := 0; len(b) >= size; i++ {
		fn(i, b[:size])
		b = b[size:]
	}
	return nil
}
