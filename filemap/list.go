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

package filemap

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/ianlewis/go-ldoce5/idm"
)

// Entry is a file listed under its lookup name.
type Entry struct {
	// Name is the lookup name of the file.
	Name string

	// Location is the position of the file content.
	Location idm.Location
}

// List returns the files of an archive under their lookup names.
//
// Pictures are named by their first directory and file name. Entries in the
// fs archive are named by their shortened root id. Other XML documents are
// named by their root id, or idm_id when there is no id. Everything else
// keeps its file name.
func List(dataDir, archive string) ([]*Entry, error) {
	files, err := idm.List(dataDir, archive)
	if err != nil {
		return nil, err
	}

	var r *idm.Reader
	defer func() {
		if r != nil {
			_ = r.Close()
		}
	}()
	openReader := func() (*idm.Reader, error) {
		if r == nil {
			var err error
			r, err = idm.OpenReader(dataDir, archive, nil)
			if err != nil {
				return nil, err
			}
		}
		return r, nil
	}

	entries := make([]*Entry, 0, len(files))
	for _, f := range files {
		name := f.Name
		switch {
		case archive == "picture":
			name = f.Dirs[0] + "/" + f.Name
		case archive == "fs", strings.HasSuffix(f.Name, ".xml"):
			r, err := openReader()
			if err != nil {
				return nil, err
			}
			root, err := readRoot(r, f.Location)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", archive, f.Name, err)
			}
			if archive == "fs" {
				id := root.SelectAttr("id")
				if id == nil {
					return nil, fmt.Errorf("%w: %s/%s: entry has no id", idm.ErrCorrupt, archive, f.Name)
				}
				name = ShortenID(id.Value)
			} else if id := root.SelectAttr("id"); id != nil {
				name = id.Value
			} else {
				name = root.SelectAttrValue("idm_id", "")
			}
		}
		entries = append(entries, &Entry{
			Name:     name,
			Location: f.Location,
		})
	}
	return entries, nil
}

func readRoot(r *idm.Reader, loc idm.Location) (*etree.Element, error) {
	b, err := r.Read(loc)
	if err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(b); err != nil {
		return nil, fmt.Errorf("%w: %w", idm.ErrCorrupt, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", idm.ErrCorrupt)
	}
	return root, nil
}
