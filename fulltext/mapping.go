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

// Package fulltext implements the full-text indexes of an LDOCE5 index.
//
// Indexes are bleve indexes with a static document mapping. The content
// field is analyzed with the "ldoce5" analyzer: unicode word segmentation,
// lower casing, removal of the stop words "a" and "an" and of single rune
// tokens, and accent folding. Queries expand each word to its stored word
// variations. Results are not scored. They are ordered by sort key and
// priority.
package fulltext

import (
	"errors"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"

	"github.com/ianlewis/go-ldoce5/internal/folding"
)

const (
	// AnalyzerName is the name of the content analyzer.
	AnalyzerName = "ldoce5"

	foldFilterName = "ldoce5_fold"
	minTokenRunes  = 2
)

const (
	fieldContent  = "content"
	fieldLabel    = "label"
	fieldPath     = "path"
	fieldPriority = "priority"
	fieldSortKey  = "sort_key"
	fieldItemType = "item_type"
	fieldAsFilter = "as_filter"
)

// ErrCorruptIndex indicates that an index could not be opened.
var ErrCorruptIndex = errors.New("corrupt full-text index")

var stopWords = map[string]bool{
	"a":  true,
	"an": true,
}

func init() {
	err := registry.RegisterTokenFilter(foldFilterName, func(map[string]any, *registry.Cache) (analysis.TokenFilter, error) {
		return foldFilter{}, nil
	})
	if err != nil {
		panic(err)
	}
}

// foldFilter drops stop words and short tokens and folds accents. Positions
// are renumbered so that phrases match across removed tokens.
type foldFilter struct{}

func (foldFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	out := input[:0]
	for _, t := range input {
		if utf8.RuneCount(t.Term) < minTokenRunes || stopWords[string(t.Term)] {
			continue
		}
		t.Term = []byte(folding.TokenString(string(t.Term)))
		t.Position = len(out) + 1
		out = append(out, t)
	}
	return out
}

// document is the indexed form of an item.
type document struct {
	Content  string   `json:"content"`
	Label    string   `json:"label"`
	Path     string   `json:"path"`
	Priority int      `json:"priority"`
	SortKey  string   `json:"sort_key"`
	ItemType string   `json:"item_type"`
	AsFilter []string `json:"as_filter"`
}

// NewIndexMapping returns the mapping of a full-text index.
func NewIndexMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	err := im.AddCustomAnalyzer(AnalyzerName, map[string]any{
		"type":      custom.Name,
		"tokenizer": unicode.Name,
		"token_filters": []string{
			lowercase.Name,
			foldFilterName,
		},
	})
	if err != nil {
		return nil, err
	}
	im.DefaultAnalyzer = AnalyzerName

	content := bleve.NewTextFieldMapping()
	content.Analyzer = AnalyzerName
	content.Store = true
	content.IncludeTermVectors = true
	content.IncludeInAll = false

	stored := func() *mapping.FieldMapping {
		m := bleve.NewTextFieldMapping()
		m.Index = false
		m.Store = true
		m.IncludeTermVectors = false
		m.IncludeInAll = false
		m.DocValues = false
		return m
	}

	priority := bleve.NewNumericFieldMapping()
	priority.Store = true
	priority.IncludeInAll = false

	sortKey := bleve.NewKeywordFieldMapping()
	sortKey.Store = true
	sortKey.IncludeInAll = false

	keyword := func() *mapping.FieldMapping {
		m := bleve.NewKeywordFieldMapping()
		m.Store = false
		m.IncludeTermVectors = false
		m.IncludeInAll = false
		return m
	}

	doc := bleve.NewDocumentStaticMapping()
	doc.AddFieldMappingsAt(fieldContent, content)
	doc.AddFieldMappingsAt(fieldLabel, stored())
	doc.AddFieldMappingsAt(fieldPath, stored())
	doc.AddFieldMappingsAt(fieldPriority, priority)
	doc.AddFieldMappingsAt(fieldSortKey, sortKey)
	doc.AddFieldMappingsAt(fieldItemType, keyword())
	doc.AddFieldMappingsAt(fieldAsFilter, keyword())

	im.DefaultMapping = doc
	im.StoreDynamic = false
	im.IndexDynamic = false
	return im, nil
}
