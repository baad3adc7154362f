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
	"slices"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2/search"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

type span struct {
	start, end int
	term       string
}

// highlight wraps every matched term location of text in a span element.
// Each distinct term gets its own class in order of first appearance. Text
// outside the matches is escaped.
func highlight(text string, locs search.TermLocationMap) string {
	var spans []span
	for term, ls := range locs {
		for _, l := range ls {
			start, end := int(l.Start), int(l.End) //nolint:gosec // Offsets are within text.
			if start < 0 || end > len(text) || start >= end {
				continue
			}
			spans = append(spans, span{start: start, end: end, term: term})
		}
	}
	slices.SortFunc(spans, func(a, b span) int {
		if c := cmp.Compare(a.start, b.start); c != 0 {
			return c
		}
		return cmp.Compare(b.end, a.end)
	})

	classes := map[string]int{}
	var b strings.Builder
	pos := 0
	for _, s := range spans {
		if s.start < pos {
			// Overlaps the previous match.
			continue
		}
		n, ok := classes[s.term]
		if !ok {
			n = len(classes)
			classes[s.term] = n
		}
		b.WriteString(htmlEscaper.Replace(text[pos:s.start]))
		b.WriteString(`<span class="s_match s_term`)
		b.WriteString(strconv.Itoa(n))
		b.WriteString(`">`)
		b.WriteString(htmlEscaper.Replace(text[s.start:s.end]))
		b.WriteString("</span>")
		pos = s.end
	}
	b.WriteString(htmlEscaper.Replace(text[pos:]))
	return b.String()
}
