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

package indexer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ianlewis/go-ldoce5/extract"
	"github.com/ianlewis/go-ldoce5/idm"
)

// alphaIndexLabels is the label table of the activator's alphabetical index,
// relative to the data directory.
var alphaIndexLabels = filepath.Join("activator.skn", "alpha_index.skn", "LABEL.tda")

// readArchive calls fn with the contents of each file in archive.
func (b *builder) readArchive(ctx context.Context, archive string, fn func(name string, data []byte) error) error {
	files, err := idm.List(b.src, archive)
	if err != nil {
		return fmt.Errorf("listing %s: %w", archive, err)
	}
	r, err := idm.OpenReader(b.src, archive, &b.readers)
	if err != nil {
		return fmt.Errorf("opening %s: %w", archive, err)
	}
	defer r.Close()

	for _, f := range files {
		if err := check(ctx); err != nil {
			return err
		}
		data, err := r.Read(f.Location)
		if err != nil {
			return fmt.Errorf("reading %s/%s: %w", archive, f.Name, err)
		}
		if err := fn(f.Name, data); err != nil {
			return fmt.Errorf("%s/%s: %w", archive, f.Name, err)
		}
	}
	return nil
}

func (b *builder) scanActivator(ctx context.Context) error {
	b.progress("Scanning language-activator files...")

	if n, err := countLabels(filepath.Join(b.src, alphaIndexLabels)); err == nil {
		b.progress("%d activator index labels", n)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading activator index labels: %w", err)
	}

	sections := map[string]*extract.Section{}
	err := b.readArchive(ctx, "activator_section", func(_ string, data []byte) error {
		s, err := extract.ParseActivatorSection(data)
		if err != nil {
			return err //nolint:wrapcheck // Wrapped by readArchive.
		}
		sections[s.ID] = s
		return nil
	})
	if err != nil {
		return err
	}

	var concepts []*extract.Concept
	err = b.readArchive(ctx, "activator_concept", func(_ string, data []byte) error {
		c, err := extract.ParseActivatorConcept(data)
		if err != nil {
			return err //nolint:wrapcheck // Wrapped by readArchive.
		}
		concepts = append(concepts, c)
		return b.store.append(extract.ConceptItems(c))
	})
	if err != nil {
		return err
	}

	// Exponents follow every concept.
	for _, c := range concepts {
		if err := check(ctx); err != nil {
			return err
		}
		if err := b.store.append(extract.ExponentItems(c, sections)); err != nil {
			return err
		}
	}

	b.progress("Done.")
	return nil
}

// countLabels returns the number of NUL terminated labels in the file at
// path.
func countLabels(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err //nolint:wrapcheck // Checked for os.ErrNotExist.
	}
	return bytes.Count(data, []byte{0}), nil
}
