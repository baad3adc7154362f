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

// Package indexer builds the index artifacts of an LDOCE5 data directory.
//
// A build removes any existing artifacts, then writes the file map, scans
// the dictionary entries and the language activator for searchable items,
// writes the word variation store and finally builds the prefix index and
// the two full-text indexes concurrently. A failed or canceled build removes
// everything it wrote.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"sigs.k8s.io/release-utils/version"

	"github.com/ianlewis/go-ldoce5/config"
	"github.com/ianlewis/go-ldoce5/extract"
	"github.com/ianlewis/go-ldoce5/filemap"
	"github.com/ianlewis/go-ldoce5/fulltext"
	"github.com/ianlewis/go-ldoce5/idm"
	"github.com/ianlewis/go-ldoce5/prefix"
	"github.com/ianlewis/go-ldoce5/variations"
)

var (
	// ErrAborted indicates that a build was canceled.
	ErrAborted = errors.New("indexing aborted")

	// ErrBuild indicates that a build failed.
	ErrBuild = errors.New("indexing failed")
)

// Options are options for [Build].
type Options struct {
	// Progress receives progress messages. It may be called from several
	// goroutines at once but calls are serialized.
	Progress func(string)

	// BatchSize is the number of documents per full-text index batch.
	BatchSize int

	// ProgressInterval is the number of items between progress messages.
	ProgressInterval int
}

// DefaultOptions is the default options for [Build].
var DefaultOptions = &Options{
	BatchSize:        1000,
	ProgressInterval: 10000,
}

type builder struct {
	cfg     *config.Config
	src     string
	opts    Options
	mu      sync.Mutex
	store   *scanStore
	readers idm.ReaderOptions
}

// Build builds the index of the data directory sourceDir into
// cfg.IndexDir. On success cfg.DataDir and cfg.Indexed are updated for the
// caller to save. If ctx is canceled the build stops and the returned error
// matches [ErrAborted]. Other failures match [ErrBuild].
func Build(ctx context.Context, cfg *config.Config, sourceDir string, opts *Options) error {
	if opts == nil {
		opts = DefaultOptions
	}
	b := &builder{
		cfg:  cfg,
		src:  sourceDir,
		opts: *opts,
		readers: idm.ReaderOptions{
			CacheSize: cfg.Archive.BlockCacheSize,
		},
	}
	if b.opts.BatchSize <= 0 {
		b.opts.BatchSize = DefaultOptions.BatchSize
	}
	if b.opts.ProgressInterval <= 0 {
		b.opts.ProgressInterval = DefaultOptions.ProgressInterval
	}

	if !idm.IsDataDir(sourceDir) {
		return fmt.Errorf("%w: %s: not an LDOCE5 data directory", ErrBuild, sourceDir)
	}
	if err := os.MkdirAll(cfg.IndexDir, 0o750); err != nil {
		return fmt.Errorf("%w: creating index directory: %w", ErrBuild, err)
	}
	if err := RemoveAll(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrBuild, err)
	}

	if err := b.run(ctx); err != nil {
		if errors.Is(err, ErrAborted) {
			b.progress("Aborted!")
		}
		b.progress("Removing files...")
		_ = RemoveAll(cfg)
		if errors.Is(err, ErrAborted) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrBuild, err)
	}

	cfg.DataDir = sourceDir
	cfg.Indexed = config.IndexedConfig{
		DataDir: sourceDir,
		Version: version.GetVersionInfo().GitVersion,
	}
	b.progress("Completed!")
	return nil
}

// RemoveAll removes the index artifacts and any temporary files left in the
// index directory.
func RemoveAll(cfg *config.Config) error {
	var errs []error
	for _, p := range cfg.ArtifactPaths() {
		if err := os.RemoveAll(p); err != nil {
			errs = append(errs, err)
		}
	}
	tmp, err := filepath.Glob(filepath.Join(cfg.IndexDir, "*.tmp"))
	if err != nil {
		errs = append(errs, err)
	}
	for _, p := range tmp {
		if err := os.RemoveAll(p); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("removing index files: %w", err)
	}
	return nil
}

func (b *builder) progress(format string, args ...any) {
	if b.opts.Progress == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opts.Progress(fmt.Sprintf(format, args...))
}

// check returns an error matching [ErrAborted] if ctx is done.
func check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrAborted, err)
	}
	return nil
}

func (b *builder) run(ctx context.Context) error {
	if err := b.makeFilemap(ctx); err != nil {
		return err
	}

	store, err := openScanStore(b.cfg.ScanTempPath())
	if err != nil {
		return err
	}
	b.store = store
	defer func() {
		_ = store.remove()
	}()

	if err := b.scanEntries(ctx); err != nil {
		return err
	}
	if err := b.scanActivator(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.makeIncremental(gctx)
	})
	g.Go(func() error {
		b.progress("Building the full text search index for headwords and phrases...")
		return b.makeFullText(gctx, b.cfg.FullTextHeadwordPath(), extract.GroupHeadword)
	})
	g.Go(func() error {
		b.progress("Building the full text search index for examples and definitions...")
		return b.makeFullText(gctx, b.cfg.FullTextProsePath(), extract.GroupProse)
	})
	// The first error is returned. Builders canceled because of it
	// report aborts that are dropped.
	return g.Wait() //nolint:wrapcheck // Errors are wrapped by the builders.
}

func (b *builder) makeFilemap(ctx context.Context) error {
	b.progress("Building the file-location lookup table...")
	w, err := filemap.Create(b.cfg.FilemapPath())
	if err != nil {
		return fmt.Errorf("creating file map: %w", err)
	}

	for _, name := range idm.Names() {
		b.progress("Analyzing '%s'...", name)
		entries, err := filemap.List(b.src, name)
		if err != nil {
			_ = w.Abort()
			return fmt.Errorf("listing %s: %w", name, err)
		}
		for _, e := range entries {
			if err := check(ctx); err != nil {
				_ = w.Abort()
				return err
			}
			if err := w.Add(name, e.Name, e.Location); err != nil {
				_ = w.Abort()
				return fmt.Errorf("adding %s/%s: %w", name, e.Name, err)
			}
		}
	}

	b.progress("Finalizing...")
	if err := w.Commit(); err != nil {
		return fmt.Errorf("writing file map: %w", err)
	}
	return nil
}

// dehyphenate appends the hyphenated words of content without their
// hyphens so that "well-known" is also found as "wellknown".
func dehyphenate(content string) string {
	for _, w := range strings.Fields(content) {
		if strings.Contains(w, "-") {
			content += " " + strings.ReplaceAll(w, "-", "")
		}
	}
	return content
}

func (b *builder) scanEntries(ctx context.Context) error {
	b.progress("Scanning entry files...")
	files, err := idm.List(b.src, "fs")
	if err != nil {
		return fmt.Errorf("listing entries: %w", err)
	}
	r, err := idm.OpenReader(b.src, "fs", &b.readers)
	if err != nil {
		return fmt.Errorf("opening entries: %w", err)
	}
	defer r.Close()

	vars := variations.NewTable()
	count := 0
	for _, f := range files {
		if err := check(ctx); err != nil {
			return err
		}
		data, err := r.Read(f.Location)
		if err != nil {
			return fmt.Errorf("reading entry %s: %w", f.Name, err)
		}
		res, err := extract.Entry(data)
		if err != nil {
			return fmt.Errorf("entry %s: %w", f.Name, err)
		}
		vars.Merge(res.Variations)

		for _, it := range res.Items {
			count++
			if count%b.opts.ProgressInterval == 0 {
				b.progress("%d items found", count)
			}
			if it.Type == extract.Headword {
				it.Content = dehyphenate(it.Content)
			}
		}
		if err := b.store.append(res.Items); err != nil {
			return err
		}
	}
	b.progress("%d items were found.", count)

	b.progress("Making the word variation database...")
	w, err := variations.Create(b.cfg.VariationsPath())
	if err != nil {
		return fmt.Errorf("creating variation store: %w", err)
	}
	if err := vars.Store(w); err != nil {
		_ = w.Abort()
		return fmt.Errorf("writing variation store: %w", err)
	}
	b.progress("Finalizing...")
	if err := w.Commit(); err != nil {
		return fmt.Errorf("writing variation store: %w", err)
	}
	b.progress("Done.")
	return nil
}

func (b *builder) makeIncremental(ctx context.Context) error {
	b.progress("Building the incremental search index...")
	w, err := prefix.Create(b.cfg.IncrementalPath())
	if err != nil {
		return fmt.Errorf("creating prefix index: %w", err)
	}

	n := 0
	err = b.store.forEach(func(it *extract.Item) error {
		if err := check(ctx); err != nil {
			return err
		}
		if it.Type.Group() != extract.GroupHeadword {
			return nil
		}
		n++
		if n%b.opts.ProgressInterval == 0 {
			b.progress("%d items added", n)
		}
		if err := w.Add(it.Content, it.Type.Code(), it.Label, it.Path, it.Priority); err != nil {
			return fmt.Errorf("adding %s: %w", it.Path, err)
		}
		return nil
	})
	if err != nil {
		_ = w.Abort()
		return err
	}

	b.progress("%d items were added to the incremental search index.", n)
	if err := w.Commit(); err != nil {
		return fmt.Errorf("writing prefix index: %w", err)
	}
	return nil
}

func (b *builder) makeFullText(ctx context.Context, dir string, group extract.Group) error {
	w, err := fulltext.Create(dir, &fulltext.WriterOptions{BatchSize: b.opts.BatchSize})
	if err != nil {
		return fmt.Errorf("creating full-text index: %w", err)
	}

	n := 0
	err = b.store.forEach(func(it *extract.Item) error {
		if err := check(ctx); err != nil {
			return err
		}
		if it.Type.Group() != group {
			return nil
		}
		n++
		if n%b.opts.ProgressInterval == 0 {
			b.progress("%d items added to %s", n, filepath.Base(dir))
		}
		return w.Add(it) //nolint:wrapcheck // Add errors name the item.
	})
	if err != nil {
		_ = w.Abort()
		return err
	}

	b.progress("%d items were added to %s.", n, filepath.Base(dir))
	b.progress("Finalizing %s...", filepath.Base(dir))
	if err := w.Commit(); err != nil {
		return fmt.Errorf("writing full-text index: %w", err)
	}
	return nil
}
