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

package fulltext_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ianlewis/go-ldoce5/extract"
	"github.com/ianlewis/go-ldoce5/fulltext"
	"github.com/ianlewis/go-ldoce5/variations"
)

func item(typ extract.ItemType, label, content, asFilter string) *extract.Item {
	prio := extract.PriorityHeadword
	switch typ {
	case extract.HeadwordVariant:
		prio = extract.PriorityHeadwordVariant
	case extract.Definition:
		prio = extract.PriorityDefinition
	case extract.Example:
		prio = extract.PriorityExample
	case extract.Invalid, extract.Headword, extract.PhrasalVerb, extract.Phrase,
		extract.LexUnit, extract.ActivatorConcept, extract.ActivatorExponent:
	}
	return &extract.Item{
		Type:     typ,
		Label:    "<h>" + label + "</h>",
		Path:     "/fs/" + label,
		Content:  content,
		SortKey:  label,
		AsFilter: asFilter,
		Priority: prio,
	}
}

func buildIndex(t *testing.T, items []*extract.Item) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "fulltext_hp")
	w, err := fulltext.Create(dir, &fulltext.WriterOptions{BatchSize: 2})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, it := range items {
		if err := w.Add(it); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, err := os.Stat(dir + fulltext.TempSuffix); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp index left behind: %v", err)
	}
	return dir
}

func buildVariations(t *testing.T, forms ...[]string) string {
	t.Helper()

	tbl := variations.NewTable()
	for _, f := range forms {
		tbl.Merge(variations.Make(f[0], f[1:]))
	}
	path := filepath.Join(t.TempDir(), "variations.cdb")
	w, err := variations.Create(path)
	if err != nil {
		t.Fatalf("variations.Create: %v", err)
	}
	if err := tbl.Store(w); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := w.Commit(); err != nil {
		t.Fatalf("variations Commit: %v", err)
	}
	return path
}

func open(t *testing.T, dir, varsPath string) *fulltext.Searcher {
	t.Helper()

	s, err := fulltext.Open(dir, varsPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func sortKeys(results []*fulltext.Result) []string {
	var keys []string
	for _, r := range results {
		keys = append(keys, r.SortKey)
	}
	return keys
}

var headwords = []extract.ItemType{extract.Headword}

func TestSearcher_Search(t *testing.T) {
	t.Parallel()

	dir := buildIndex(t, []*extract.Item{
		item(extract.Headword, "run", "run", "verb"),
		item(extract.Headword, "running", "running", "noun"),
		item(extract.Headword, "run in", "run in running", "verb informal"),
		item(extract.Headword, "run up", "run up", "noun informal"),
		item(extract.Headword, "rerun", "rerun", "verb"),
		item(extract.Definition, "run", "to run fast", "verb"),
		item(extract.Headword, "cat", "cat", "noun"),
		item(extract.Headword, "cot", "cot", "noun"),
		item(extract.Headword, "cart", "cart", "noun"),
		item(extract.Headword, "cat flap", "cat flap", "noun"),
		item(extract.HeadwordVariant, "cut", "cut", "verb"),
		item(extract.Headword, "café", "café", "noun"),
	})
	s := open(t, dir, "")

	tests := []struct {
		name     string
		req      *fulltext.Request
		limit    int
		expected []string
	}{
		{
			name:     "and not",
			req:      &fulltext.Request{Phrase: "run AND NOT running", ItemTypes: headwords},
			expected: []string{"run", "runup"},
		},
		{
			name:     "minus",
			req:      &fulltext.Request{Phrase: "run -running", ItemTypes: headwords},
			expected: []string{"run", "runup"},
		},
		{
			name:     "leading minus is a word",
			req:      &fulltext.Request{Phrase: "-running run", ItemTypes: headwords},
			expected: []string{"runin"},
		},
		{
			name:     "minus after paren is a word",
			req:      &fulltext.Request{Phrase: "run (-running)", ItemTypes: headwords},
			expected: []string{"runin"},
		},
		{
			name:     "not only",
			req:      &fulltext.Request{Phrase: "NOT cat", ItemTypes: []extract.ItemType{extract.HeadwordVariant}},
			expected: []string{"cut"},
		},
		{
			name:     "juxtaposition",
			req:      &fulltext.Request{Phrase: "run running"},
			expected: []string{"runin"},
		},
		{
			name:     "ampersand",
			req:      &fulltext.Request{Phrase: "run&in"},
			expected: []string{"runin"},
		},
		{
			name:     "all types",
			req:      &fulltext.Request{Phrase: "run"},
			expected: []string{"run", "run", "runin", "runup"},
		},
		{
			name:     "limit",
			req:      &fulltext.Request{Phrase: "run"},
			limit:    2,
			expected: []string{"run", "run"},
		},
		{
			name:     "quoted phrase",
			req:      &fulltext.Request{Phrase: `"in running"`},
			expected: []string{"runin"},
		},
		{
			name:     "group",
			req:      &fulltext.Request{Phrase: "run NOT (in running)", ItemTypes: headwords},
			expected: []string{"run", "runup"},
		},
		{
			name: "or is a word",
			req:  &fulltext.Request{Phrase: "run OR cat"},
		},
		{
			name:     "wildcard",
			req:      &fulltext.Request{Phrase: "c?t", ItemTypes: headwords},
			expected: []string{"cat", "cot"},
		},
		{
			name:     "wildcard star",
			req:      &fulltext.Request{Phrase: "ca*", ItemTypes: headwords},
			expected: []string{"cafe", "cart", "cat", "catflap"},
		},
		{
			name:     "accent folded",
			req:      &fulltext.Request{Phrase: "CAFE"},
			expected: []string{"cafe"},
		},
		{
			name:     "filter",
			req:      &fulltext.Request{Filter: "verb AND informal"},
			expected: []string{"runin"},
		},
		{
			name:     "filter or",
			req:      &fulltext.Request{Filter: "informal OR asfilter:verb", ItemTypes: headwords},
			expected: []string{"rerun", "run", "runin", "runup"},
		},
		{
			name:     "phrase and filter",
			req:      &fulltext.Request{Phrase: "run", Filter: "noun"},
			expected: []string{"runup"},
		},
		{
			name:     "field",
			req:      &fulltext.Request{Phrase: "run itemtype:d"},
			expected: []string{"run"},
		},
		{
			name: "wildcard only",
			req:  &fulltext.Request{Phrase: "run *"},
		},
		{
			name: "stop word only",
			req:  &fulltext.Request{Phrase: "a"},
		},
		{
			name: "unterminated quote",
			req:  &fulltext.Request{Phrase: `"run`},
		},
		{
			name: "empty group",
			req:  &fulltext.Request{Phrase: "run ()"},
		},
		{
			name: "no clause",
			req:  &fulltext.Request{},
		},
		{
			name: "literal wildcard outside wildcard mode",
			req:  &fulltext.Request{Filter: "c?t"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := fulltext.NewCollector(context.Background(), tc.limit)
			results, err := s.Search(c, tc.req)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if diff := cmp.Diff(tc.expected, sortKeys(results)); diff != "" {
				t.Errorf("Search (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestSearcher_Search_result(t *testing.T) {
	t.Parallel()

	dir := buildIndex(t, []*extract.Item{
		item(extract.Headword, "run", "run", "verb"),
		item(extract.HeadwordVariant, "run", "run", "verb"),
	})
	s := open(t, dir, "")

	results, err := s.Search(fulltext.NewCollector(context.Background(), 0), &fulltext.Request{Phrase: "run"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	expected := []*fulltext.Result{
		{Label: "<h>run</h>", Path: "/fs/run", SortKey: "run", Priority: extract.PriorityHeadword},
		{Label: "<h>run</h>", Path: "/fs/run", SortKey: "run", Priority: extract.PriorityHeadwordVariant},
	}
	if diff := cmp.Diff(expected, results); diff != "" {
		t.Errorf("Search (-want, +got):\n%s", diff)
	}
}

func TestSearcher_Search_variations(t *testing.T) {
	t.Parallel()

	dir := buildIndex(t, []*extract.Item{
		item(extract.Headword, "run", "run", ""),
		item(extract.Headword, "ran", "ran", ""),
		item(extract.Headword, "running", "running", ""),
		item(extract.Headword, "runner", "runner", ""),
	})
	vars := buildVariations(t, []string{"run", "ran", "running", "runs"})
	s := open(t, dir, vars)

	tests := []struct {
		phrase   string
		expected []string
	}{
		{"ran", []string{"ran", "run", "running"}},
		{"RUNS", []string{"ran", "run", "running"}},
		{"runner", []string{"runner"}},
		{"ran NOT running", nil},
		{"walk", nil},
	}

	for _, tc := range tests {
		t.Run(tc.phrase, func(t *testing.T) {
			t.Parallel()

			results, err := s.Search(fulltext.NewCollector(context.Background(), 0), &fulltext.Request{Phrase: tc.phrase})
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if diff := cmp.Diff(tc.expected, sortKeys(results)); diff != "" {
				t.Errorf("Search(%q) (-want, +got):\n%s", tc.phrase, diff)
			}
		})
	}
}

func TestSearcher_Search_highlight(t *testing.T) {
	t.Parallel()

	dir := buildIndex(t, []*extract.Item{
		item(extract.Example, "cat", "The cat sat on the cat mat & rug", ""),
	})
	s := open(t, dir, "")

	tests := []struct {
		name     string
		req      *fulltext.Request
		expected string
	}{
		{
			name:     "terms",
			req:      &fulltext.Request{Phrase: "cat sat", Highlight: true},
			expected: `The <span class="s_match s_term0">cat</span> <span class="s_match s_term1">sat</span> on the <span class="s_match s_term0">cat</span> mat &amp; rug`,
		},
		{
			name:     "filter only",
			req:      &fulltext.Request{ItemTypes: []extract.ItemType{extract.Example}, Highlight: true},
			expected: "The cat sat on the cat mat & rug",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			results, err := s.Search(fulltext.NewCollector(context.Background(), 0), tc.req)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(results) != 1 {
				t.Fatalf("Search: got %d results, want 1", len(results))
			}
			if !results[0].HasSnippet {
				t.Errorf("HasSnippet: got false, want true")
			}
			if diff := cmp.Diff(tc.expected, results[0].Snippet); diff != "" {
				t.Errorf("Snippet (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestSearcher_Search_aborted(t *testing.T) {
	t.Parallel()

	dir := buildIndex(t, []*extract.Item{
		item(extract.Headword, "run", "run", ""),
	})
	s := open(t, dir, "")

	c := fulltext.NewCollector(context.Background(), 0)
	c.Abort()
	if !c.Aborted() {
		t.Fatalf("Aborted: got false, want true")
	}
	results, err := s.Search(c, &fulltext.Request{Phrase: "run"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results != nil {
		t.Errorf("Search: got %v, want nil", results)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err = s.Search(fulltext.NewCollector(ctx, 10), &fulltext.Request{Phrase: "run"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results != nil {
		t.Errorf("Search: got %v, want nil", results)
	}
}

func TestSearcher_Search_abortedDuringCollection(t *testing.T) {
	t.Parallel()

	var items []*extract.Item
	for _, l := range []string{"run a", "run b", "run c", "run d", "run e"} {
		items = append(items, item(extract.Headword, l, "run", ""))
	}
	s := open(t, buildIndex(t, items), "")

	tests := []struct {
		name    string
		phrase  string
		abortAt int
		cancel  bool

		// expected is the number of results. Aborted searches return none.
		expected  int
		collected int
	}{
		{
			name:      "not aborted",
			phrase:    "run",
			expected:  5,
			collected: 5,
		},
		{
			name:      "aborted",
			phrase:    "run",
			abortAt:   2,
			collected: 2,
		},
		{
			name:      "aborted in wildcard post-filter",
			phrase:    "ru*",
			abortAt:   3,
			collected: 3,
		},
		{
			name:      "context canceled",
			phrase:    "run",
			abortAt:   1,
			cancel:    true,
			collected: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			c := fulltext.NewCollector(ctx, 0)

			var collected int
			fulltext.SetOnCollect(c, func(n int) {
				collected = n
				if n != tc.abortAt {
					return
				}
				if tc.cancel {
					cancel()
				} else {
					c.Abort()
				}
			})

			results, err := s.Search(c, &fulltext.Request{Phrase: tc.phrase})
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if got, want := len(results), tc.expected; got != want {
				t.Errorf("Search: got %d results, want %d", got, want)
			}
			if tc.expected == 0 && results != nil {
				t.Errorf("Search: got %v, want nil", results)
			}
			if got, want := collected, tc.collected; got != want {
				t.Errorf("collected: got %d, want %d", got, want)
			}
		})
	}
}

func TestSearcher_Correct(t *testing.T) {
	t.Parallel()

	dir := buildIndex(t, []*extract.Item{
		item(extract.Headword, "apple", "apple", ""),
		item(extract.Headword, "apple pie", "apple pie", ""),
		item(extract.Headword, "apple tree", "apple tree", ""),
		item(extract.Headword, "apply", "apply", ""),
		item(extract.Headword, "ample", "ample", ""),
		item(extract.Headword, "zebra", "zebra", ""),
	})
	s := open(t, dir, "")

	tests := []struct {
		word     string
		limit    int
		expected []string
	}{
		{"appla", 0, []string{"apple", "ample", "apply"}},
		{"appla", 2, []string{"apple", "apply"}},
		{"APPLE", 0, []string{"ample", "apply"}},
		{"qqqqq", 0, nil},
		{" ", 0, nil},
	}

	for _, tc := range tests {
		t.Run(tc.word, func(t *testing.T) {
			t.Parallel()

			got, err := s.Correct(tc.word, tc.limit)
			if err != nil {
				t.Fatalf("Correct: %v", err)
			}
			if diff := cmp.Diff(tc.expected, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Correct(%q, %d) (-want, +got):\n%s", tc.word, tc.limit, diff)
			}
		})
	}
}

func TestSearcher_DocCount(t *testing.T) {
	t.Parallel()

	dir := buildIndex(t, []*extract.Item{
		item(extract.Headword, "run", "run", ""),
		item(extract.Headword, "ran", "ran", ""),
		item(extract.Definition, "run", "to move fast", ""),
	})
	s := open(t, dir, "")

	n, err := s.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	if n != 3 {
		t.Errorf("DocCount: got %d, want 3", n)
	}
}

func TestOpen_errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("not an index"), 0o600); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "empty")
	if err := os.Mkdir(empty, 0o700); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{filepath.Join(dir, "missing"), file, empty} {
		if _, err := fulltext.Open(path, ""); !errors.Is(err, fulltext.ErrCorruptIndex) {
			t.Errorf("Open(%q): got %v, want %v", path, err, fulltext.ErrCorruptIndex)
		}
	}
}

func TestWriter_Abort(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "fulltext_de")
	w, err := fulltext.Create(dir, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := w.Add(item(extract.Definition, "run", "to move fast", "")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := w.Add(&extract.Item{Path: "/fs/x"}); !errors.Is(err, extract.ErrUnknownItemType) {
		t.Errorf("Add(invalid): got %v, want %v", err, extract.ErrUnknownItemType)
	}
	if err := w.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	for _, p := range []string{dir, dir + fulltext.TempSuffix} {
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Stat(%q): got %v, want %v", p, err, os.ErrNotExist)
		}
	}
}
