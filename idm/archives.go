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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

var (
	// ErrUnknownArchive indicates that an archive name is not known.
	ErrUnknownArchive = errors.New("unknown archive")

	// ErrCorrupt indicates that archive data is malformed.
	ErrCorrupt = errors.New("corrupt archive")

	// ErrUnavailable indicates that archive files could not be read.
	ErrUnavailable = errors.New("archive unavailable")
)

var archiveDirs = map[string]string{
	"etymologies":       "etymologies.skn",
	"word_families":     "word_families.skn",
	"examples":          "examples.skn",
	"sound":             "sound.skn",
	"fs":                "fs.skn",
	"us_hwd_pron":       "us_hwd_pron.skn",
	"gb_hwd_pron":       "gb_hwd_pron.skn",
	"picture":           "picture.skn",
	"phrases":           "phrases.skn",
	"sfx":               "sfx.skn",
	"thesaurus":         "thesaurus.skn",
	"gram":              "gram.skn",
	"collocations":      "collocations.skn",
	"exa_pron":          "exa_pron.skn",
	"common_errors":     "common_errors.skn",
	"word_sets":         "word_sets.skn",
	"menus":             "menus.skn",
	"word_lists":        "word_lists.skn",
	"verb_forms":        "verb_forms.skn",
	"activator":         "activator.skn",
	"activator_section": filepath.Join("activator.skn", "activator_section.skn"),
	"activator_concept": filepath.Join("activator.skn", "activator_concept.skn"),
}

// Names returns the names of all archives in sorted order.
func Names() []string {
	names := make([]string, 0, len(archiveDirs))
	for name := range archiveDirs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ArchiveDir returns the directory of the archive relative to the data
// directory.
func ArchiveDir(name string) (string, error) {
	dir, ok := archiveDirs[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownArchive, name)
	}
	return dir, nil
}

var (
	dirsFiles  = []string{"config.cft", "NAME.tda", "dirs.dat"}
	filesFiles = []string{"config.cft", "NAME.tda", "files.dat", "CONTENT.tda", "CONTENT.tda.tdz"}
)

// IsDataDir reports whether path looks like an LDOCE5 data directory, that
// is every archive has its table files.
func IsDataDir(path string) bool {
	for _, dir := range archiveDirs {
		base := filepath.Join(path, dir)
		for _, name := range dirsFiles {
			if !isFile(filepath.Join(base, "dirs.skn", name)) {
				return false
			}
		}
		for _, name := range filesFiles {
			if !isFile(filepath.Join(base, "files.skn", name)) {
				return false
			}
		}
	}
	return true
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
