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

package fulltext

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/gobwas/glob"

	"github.com/ianlewis/go-ldoce5/extract"
	"github.com/ianlewis/go-ldoce5/internal/folding"
	"github.com/ianlewis/go-ldoce5/variations"
)

// Request is a full-text query.
type Request struct {
	// Phrase is the query text matched against item content.
	Phrase string

	// Filter is a boolean expression over as-filter codes.
	Filter string

	// ItemTypes restricts the result to the given item types. An empty
	// slice matches every type.
	ItemTypes []extract.ItemType

	// Highlight requests highlighted snippets.
	Highlight bool
}

// Result is a matched item.
type Result struct {
	Label    string
	Path     string
	SortKey  string
	Priority int

	// Snippet is the highlighted content. It is set if HasSnippet is true.
	Snippet    string
	HasSnippet bool
}

// Searcher searches a full-text index. A Searcher is safe for concurrent
// use.
type Searcher struct {
	idx      bleve.Index
	analyzer analysis.Analyzer
	vars     *variations.Reader
}

// Open opens the full-text index at dir. If variationsPath is not empty the
// word variation store at that path is used to expand query words. A
// missing variation store is not an error.
func Open(dir, variationsPath string) (*Searcher, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptIndex, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s: not a directory", ErrCorruptIndex, dir)
	}

	idx, err := bleve.OpenUsing(dir, map[string]any{
		"read_only": true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptIndex, err)
	}
	an := idx.Mapping().AnalyzerNamed(AnalyzerName)
	if an == nil {
		_ = idx.Close()
		return nil, fmt.Errorf("%w: %s: missing analyzer %q", ErrCorruptIndex, dir, AnalyzerName)
	}

	s := &Searcher{
		idx:      idx,
		analyzer: an,
	}
	if variationsPath != "" {
		if vars, err := variations.Open(variationsPath); err == nil {
			s.vars = vars
		}
	}
	return s, nil
}

// DocCount returns the number of indexed items.
func (s *Searcher) DocCount() (uint64, error) {
	n, err := s.idx.DocCount()
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// Close closes the index and the variation store.
func (s *Searcher) Close() error {
	return errors.Join(s.idx.Close(), s.vars.Close())
}

// Search runs req. It returns at most c.Limit() results sorted by sort key
// and priority. Queries that fail to parse and searches that are aborted
// return no results and no error.
func (s *Searcher) Search(c *Collector, req *Request) ([]*Result, error) {
	if wildcardOnly(req.Phrase) || c.Aborted() {
		return nil, nil
	}
	wildcard := strings.ContainsAny(req.Phrase, "*?")

	var clauses []query.Query
	if strings.TrimSpace(req.Phrase) != "" {
		q, ok, err := s.compile(req.Phrase, phraseSyntax, wildcard)
		if err != nil || !ok {
			return nil, err
		}
		clauses = append(clauses, q)
	}
	if strings.TrimSpace(req.Filter) != "" {
		q, ok, err := s.compile(req.Filter, filterSyntax, false)
		if err != nil || !ok {
			return nil, err
		}
		clauses = append(clauses, q)
	}
	if len(req.ItemTypes) > 0 {
		var types []query.Query
		for _, t := range req.ItemTypes {
			types = append(types, termQuery(fieldItemType, t.Code()))
		}
		clauses = append(clauses, disjunction(types))
	}
	if len(clauses) == 0 {
		return nil, nil
	}

	var match glob.Glob
	if wildcard {
		g, err := wildcardFilter(req.Phrase)
		if err != nil {
			return nil, nil //nolint:nilerr // Bad patterns match nothing.
		}
		match = g
	}

	size := c.Limit()
	if size == 0 {
		n, err := s.DocCount()
		if err != nil {
			return nil, err
		}
		size = int(n) //nolint:gosec // Document counts fit in an int.
	}
	if size == 0 {
		return nil, nil
	}

	highlighting := req.Highlight && strings.TrimSpace(req.Phrase) != ""
	sr := bleve.NewSearchRequestOptions(conjunction(clauses), size, 0, false)
	sr.Score = "none"
	sr.SortBy([]string{fieldSortKey, fieldPriority, "_id"})
	sr.Fields = []string{fieldLabel, fieldPath, fieldPriority, fieldSortKey}
	if req.Highlight {
		sr.Fields = append(sr.Fields, fieldContent)
	}
	sr.IncludeLocations = highlighting

	res, err := s.idx.SearchInContext(c.ctx, sr)
	if c.Aborted() {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}

	results := make([]*Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if !c.collect() {
			return nil, nil
		}
		r := &Result{
			Label:    stringField(hit.Fields, fieldLabel),
			Path:     stringField(hit.Fields, fieldPath),
			SortKey:  stringField(hit.Fields, fieldSortKey),
			Priority: intField(hit.Fields, fieldPriority),
		}
		if match != nil && !match.Match(r.SortKey) {
			continue
		}
		if req.Highlight {
			content := stringField(hit.Fields, fieldContent)
			if highlighting {
				content = highlight(content, hit.Locations[fieldContent])
			}
			r.Snippet = content
			r.HasSnippet = true
		}
		results = append(results, r)
	}

	slices.SortStableFunc(results, func(a, b *Result) int {
		if n := cmp.Compare(a.SortKey, b.SortKey); n != 0 {
			return n
		}
		return cmp.Compare(a.Priority, b.Priority)
	})
	return results, nil
}

// compile parses and compiles q. ok is false if the query does not parse or
// matches no terms.
func (s *Searcher) compile(q string, syn *syntax, wildcard bool) (query.Query, bool, error) {
	n, err := parse(q, syn)
	if err != nil || n == nil {
		return nil, false, nil //nolint:nilerr // Bad queries match nothing.
	}
	c := &compiler{s: s, wildcard: wildcard}
	bq, err := c.compile(n)
	if err != nil {
		if errors.Is(err, errSyntax) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return bq, bq != nil, nil
}

// analyze returns the terms of text as indexed in the content field.
func (s *Searcher) analyze(text string) []string {
	var terms []string
	for _, t := range s.analyzer.Analyze([]byte(text)) {
		terms = append(terms, string(t.Term))
	}
	return terms
}

// variationQuery matches term or any of its variations present in the index.
func (s *Searcher) variationQuery(term string) (query.Query, error) {
	if s.vars == nil {
		return termQuery(fieldContent, term), nil
	}
	var qs []query.Query
	seen := map[string]bool{}
	for _, v := range s.vars.Get(term) {
		w := folding.TokenString(strings.ToLower(v))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		ok, err := s.hasTerm(fieldContent, w)
		if err != nil {
			return nil, err
		}
		if ok {
			qs = append(qs, termQuery(fieldContent, w))
		}
	}
	if len(qs) == 0 {
		return bleve.NewMatchNoneQuery(), nil
	}
	return disjunction(qs), nil
}

// hasTerm reports whether term is in the term dictionary of field.
func (s *Searcher) hasTerm(field, term string) (bool, error) {
	d, err := s.idx.FieldDictPrefix(field, []byte(term))
	if err != nil {
		return false, fmt.Errorf("reading term dictionary: %w", err)
	}
	defer d.Close()

	// Terms are in byte order so an exact match comes first.
	e, err := d.Next()
	if err != nil {
		return false, fmt.Errorf("reading term dictionary: %w", err)
	}
	return e != nil && e.Term == term, nil
}

var globEscaper = strings.NewReplacer(
	`\`, `\\`,
	"{", `\{`,
	"}", `\}`,
)

// wildcardFilter returns the pattern that sort keys of wildcard query results
// must match.
func wildcardFilter(phrase string) (glob.Glob, error) {
	p := strings.NewReplacer("-", "", " ", "").Replace(phrase)
	p = globEscaper.Replace(strings.ToLower(p))
	g, err := glob.Compile(p)
	if err != nil {
		return nil, fmt.Errorf("compiling pattern %q: %w", p, err)
	}
	return g, nil
}

func stringField(fields map[string]any, name string) string {
	s, _ := fields[name].(string)
	return s
}

func intField(fields map[string]any, name string) int {
	switch v := fields[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
