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
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/xrash/smetrics"

	"github.com/ianlewis/go-ldoce5/internal/folding"
)

// DefaultCorrectionLimit is the number of suggestions returned by Correct
// when no limit is given.
const DefaultCorrectionLimit = 5

const maxEditDistance = 2

type suggestion struct {
	term  string
	dist  int
	count uint64
}

// Correct returns indexed words within two edits of word. Closer words are
// preferred and the suggestions are returned most frequent first. A limit of
// zero or less returns at most [DefaultCorrectionLimit] suggestions.
func (s *Searcher) Correct(word string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultCorrectionLimit
	}
	w := folding.TokenString(strings.ToLower(strings.TrimSpace(word)))
	if w == "" {
		return nil, nil
	}
	wlen := utf8.RuneCountInString(w)

	d, err := s.idx.FieldDict(fieldContent)
	if err != nil {
		return nil, fmt.Errorf("reading term dictionary: %w", err)
	}
	defer d.Close()

	var cands []suggestion
	for {
		e, err := d.Next()
		if err != nil {
			return nil, fmt.Errorf("reading term dictionary: %w", err)
		}
		if e == nil {
			break
		}
		if e.Term == w {
			continue
		}
		if diff := utf8.RuneCountInString(e.Term) - wlen; diff > maxEditDistance || diff < -maxEditDistance {
			continue
		}
		dist := smetrics.WagnerFischer(w, e.Term, 1, 1, 1)
		if dist > maxEditDistance {
			continue
		}
		cands = append(cands, suggestion{term: e.Term, dist: dist, count: e.Count})
	}

	slices.SortFunc(cands, func(a, b suggestion) int {
		if n := cmp.Compare(a.dist, b.dist); n != 0 {
			return n
		}
		return byFrequency(a, b)
	})
	if len(cands) > limit {
		cands = cands[:limit]
	}
	slices.SortFunc(cands, byFrequency)

	words := make([]string, 0, len(cands))
	for _, c := range cands {
		words = append(words, c.term)
	}
	return words, nil
}

func byFrequency(a, b suggestion) int {
	if n := cmp.Compare(b.count, a.count); n != 0 {
		return n
	}
	return strings.Compare(a.term, b.term)
}
