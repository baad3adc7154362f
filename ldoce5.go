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

package ldoce5

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ianlewis/go-ldoce5/config"
	"github.com/ianlewis/go-ldoce5/filemap"
	"github.com/ianlewis/go-ldoce5/fulltext"
	"github.com/ianlewis/go-ldoce5/idm"
	"github.com/ianlewis/go-ldoce5/prefix"
)

var (
	// ErrNotFound indicates that a path does not name any content.
	ErrNotFound = errors.New("content not found")

	// ErrFilemapUnavailable indicates that the file map could not be read.
	ErrFilemapUnavailable = errors.New("file map unavailable")

	// ErrArchiveUnavailable indicates that archive content could not be read.
	ErrArchiveUnavailable = errors.New("archive unavailable")

	// ErrIndexUnavailable indicates that a search index has not been built or
	// could not be opened.
	ErrIndexUnavailable = errors.New("index unavailable")
)

// MIME types of content.
const (
	MIMETypeXML  = "application/xml;charset=utf-8"
	MIMETypeJPEG = "image/jpeg"
	MIMETypeMPEG = "audio/mpeg"
)

// Content is the data of a file in the dictionary.
type Content struct {
	Data     []byte
	MIMEType string
}

// Dictionary is an indexed LDOCE5 data set. Artifacts are opened on first
// use and kept open until Close is called. A Dictionary is safe for
// concurrent use.
type Dictionary struct {
	cfg *config.Config

	mu       sync.Mutex
	fm       *filemap.Reader
	archives map[string]*idm.Reader
	prefix   *prefix.Index
	hp       *fulltext.Searcher
	de       *fulltext.Searcher
}

// Open returns the dictionary described by cfg. Missing artifacts are not
// an error. They are reported by the methods that need them.
func Open(cfg *config.Config) (*Dictionary, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}
	if cfg.IndexDir == "" {
		return nil, fmt.Errorf("%w: no index directory", config.ErrInvalidConfig)
	}
	return &Dictionary{
		cfg:      cfg,
		archives: map[string]*idm.Reader{},
	}, nil
}

// Config returns the dictionary's configuration.
func (d *Dictionary) Config() *config.Config {
	return d.cfg
}

// Content returns the content at path. Paths have the form
// "/archive/name" with an optional "#fragment" which is ignored.
//
// Activator paths name a concept and a section as "/activator/cid/sid" and
// thesaurus and word set paths may name several files joined by "_". Their
// documents are returned wrapped in a single root element.
func (d *Dictionary) Content(path string) (*Content, error) {
	p, _, _ := strings.Cut(path, "#")
	archive, name, ok := strings.Cut(strings.TrimLeft(p, "/"), "/")
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: invalid path %q", ErrNotFound, path)
	}

	switch archive {
	case "fs", "collocations", "examples", "word_families", "etymologies", "phrases":
		data, err := d.load(archive, name)
		if err != nil {
			return nil, err
		}
		return &Content{Data: data, MIMEType: MIMETypeXML}, nil

	case "activator":
		cid, sid, ok := strings.Cut(name, "/")
		if !ok || cid == "" || sid == "" {
			return nil, fmt.Errorf("%w: invalid path %q", ErrNotFound, path)
		}
		c, err := d.load("activator_concept", cid)
		if err != nil {
			return nil, err
		}
		s, err := d.load("activator_section", sid)
		if err != nil {
			return nil, err
		}
		return &Content{Data: wrap("Activator", c, s), MIMEType: MIMETypeXML}, nil

	case "thesaurus", "word_sets":
		var docs [][]byte
		for _, n := range strings.Split(name, "_") {
			data, err := d.load(archive, n)
			if err != nil {
				return nil, err
			}
			docs = append(docs, data)
		}
		return &Content{Data: wrap(archive, docs...), MIMEType: MIMETypeXML}, nil

	case "picture":
		data, err := d.load(archive, name)
		if err != nil {
			return nil, err
		}
		return &Content{Data: data, MIMEType: MIMETypeJPEG}, nil

	case "us_hwd_pron", "gb_hwd_pron", "exa_pron", "sfx":
		data, err := d.load(archive, name)
		if err != nil {
			return nil, err
		}
		return &Content{Data: data, MIMEType: MIMETypeMPEG}, nil
	}

	return nil, fmt.Errorf("%w: unknown archive %q", ErrNotFound, archive)
}

// load reads the named file of an archive.
func (d *Dictionary) load(archive, name string) ([]byte, error) {
	fm, err := d.filemap()
	if err != nil {
		return nil, err
	}
	loc, err := fm.Lookup(archive, name)
	if err != nil {
		if errors.Is(err, filemap.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrFilemapUnavailable, err)
	}

	r, err := d.archive(archive)
	if err != nil {
		return nil, err
	}
	data, err := r.Read(loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %w", ErrArchiveUnavailable, archive, name, err)
	}
	return data, nil
}

func (d *Dictionary) filemap() (*filemap.Reader, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.fm == nil {
		fm, err := filemap.Open(d.cfg.FilemapPath())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFilemapUnavailable, err)
		}
		d.fm = fm
	}
	return d.fm, nil
}

func (d *Dictionary) archive(name string) (*idm.Reader, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if r, ok := d.archives[name]; ok {
		return r, nil
	}
	r, err := idm.OpenReader(d.cfg.DataDir, name, &idm.ReaderOptions{
		CacheSize: d.cfg.Archive.BlockCacheSize,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArchiveUnavailable, err)
	}
	d.archives[name] = r
	return r, nil
}

// Prefix returns the prefix index used for incremental search.
func (d *Dictionary) Prefix() (*prefix.Index, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.prefix == nil {
		idx, err := prefix.Open(d.cfg.IncrementalPath())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
		}
		d.prefix = idx
	}
	return d.prefix, nil
}

// HeadwordSearcher returns the full-text searcher over headwords, phrases
// and activator items.
func (d *Dictionary) HeadwordSearcher() (*fulltext.Searcher, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.searcher(&d.hp, d.cfg.FullTextHeadwordPath())
}

// ProseSearcher returns the full-text searcher over definitions and
// examples.
func (d *Dictionary) ProseSearcher() (*fulltext.Searcher, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.searcher(&d.de, d.cfg.FullTextProsePath())
}

func (d *Dictionary) searcher(s **fulltext.Searcher, dir string) (*fulltext.Searcher, error) {
	if *s == nil {
		fs, err := fulltext.Open(dir, d.cfg.VariationsPath())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
		}
		*s = fs
	}
	return *s, nil
}

// Close closes every open artifact.
func (d *Dictionary) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	if d.fm != nil {
		errs = append(errs, d.fm.Close())
		d.fm = nil
	}
	for name, r := range d.archives {
		errs = append(errs, r.Close())
		delete(d.archives, name)
	}
	if d.prefix != nil {
		errs = append(errs, d.prefix.Close())
		d.prefix = nil
	}
	if d.hp != nil {
		errs = append(errs, d.hp.Close())
		d.hp = nil
	}
	if d.de != nil {
		errs = append(errs, d.de.Close())
		d.de = nil
	}
	return errors.Join(errs...)
}

// wrap joins XML documents under a root element named tag. XML declarations
// are dropped.
func wrap(tag string, docs ...[]byte) []byte {
	var b bytes.Buffer
	b.WriteString("<" + tag + ">")
	for _, doc := range docs {
		b.Write(stripDecl(doc))
	}
	b.WriteString("</" + tag + ">")
	return b.Bytes()
}

func stripDecl(doc []byte) []byte {
	doc = bytes.TrimLeft(doc, " \t\r\n\ufeff")
	if !bytes.HasPrefix(doc, []byte("<?xml")) {
		return doc
	}
	if i := bytes.Index(doc, []byte("?>")); i >= 0 {
		return bytes.TrimLeft(doc[i+2:], " \t\r\n")
	}
	return doc
}
