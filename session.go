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
	"strings"
	"sync"

	"github.com/ianlewis/go-ldoce5/extract"
	"github.com/ianlewis/go-ldoce5/fulltext"
)

// State is the state of a [Session].
type State int

const (
	// StateIdle means no search has been requested.
	StateIdle State = iota

	// StatePrefixSearchPending means the prefix search is running.
	StatePrefixSearchPending

	// StateFullTextSearchPending means the full-text search is running in
	// the background.
	StateFullTextSearchPending

	// StateResultsReady means the results of the last input were reported.
	StateResultsReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePrefixSearchPending:
		return "PrefixSearchPending"
	case StateFullTextSearchPending:
		return "FullTextSearchPending"
	case StateResultsReady:
		return "ResultsReady"
	default:
		return "Unknown"
	}
}

// SessionOptions are options for a Session.
type SessionOptions struct {
	// IncrementalLimit is the maximum number of prefix search results.
	IncrementalLimit int

	// FullTextLimit is the maximum number of full-text search results.
	FullTextLimit int

	// CorrectionLimit is the maximum number of spelling suggestions.
	CorrectionLimit int
}

// DefaultSessionOptions are the default options for a Session.
var DefaultSessionOptions = &SessionOptions{
	IncrementalLimit: 500,
	FullTextLimit:    10000,
	CorrectionLimit:  5,
}

// Result is a search result.
type Result struct {
	Label    string
	Path     string
	SortKey  string
	Priority int
}

// Results are the results of a session input.
type Results struct {
	// Query is the trimmed input text.
	Query string

	// Items are the prefix search results followed by the full-text search
	// results whose paths were not already found.
	Items []*Result

	// Suggestions are spelling corrections. They are only looked up when a
	// single word query found nothing.
	Suggestions []string

	// Truncated is true if the full-text search found more than the limit.
	Truncated bool

	// Unavailable is true if an index could not be opened.
	Unavailable bool

	// Err is an error returned by the full-text search.
	Err error
}

// Session runs the search-as-you-type flow. Each input cancels the previous
// search, runs a synchronous prefix search and then a full-text search in
// the background. The merged results are passed to the session's callback.
//
// Input, Cancel and Close must be called from a single goroutine. The
// callback is called either from Input or from the background worker.
type Session struct {
	d    *Dictionary
	opts SessionOptions
	fn   func(*Results)

	hp    *fulltext.Searcher
	async *fulltext.AsyncSearcher

	mu      sync.Mutex
	state   State
	req     *fulltext.AsyncRequest
	pending *Results
	gen     uint64
}

// NewSession returns a session searching d. fn receives the results of each
// input that is not superseded. A nil opts uses [DefaultSessionOptions].
func NewSession(d *Dictionary, opts *SessionOptions, fn func(*Results)) *Session {
	if opts == nil {
		opts = DefaultSessionOptions
	}
	s := &Session{
		d:    d,
		opts: *opts,
		fn:   fn,
	}
	if hp, err := d.HeadwordSearcher(); err == nil {
		s.hp = hp
		s.async = fulltext.NewAsyncSearcher(hp, s.onResult)
	}
	return s
}

// State returns the current state of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Input starts a search for text.
func (s *Session) Input(text string) {
	s.Cancel()

	text = strings.TrimSpace(text)
	if text == "" {
		s.report(&Results{Query: text})
		return
	}

	res := &Results{Query: text}
	wildcard := strings.ContainsAny(text, "*?")
	if !wildcard {
		s.setState(StatePrefixSearchPending)
		s.prefixSearch(res)
	}

	if s.async == nil {
		res.Unavailable = true
		s.report(res)
		return
	}

	var types []extract.ItemType
	if wildcard {
		types = []extract.ItemType{extract.Headword}
	}
	req := &fulltext.AsyncRequest{
		Request: fulltext.Request{
			Phrase:    text,
			ItemTypes: types,
		},
		Limit: s.opts.FullTextLimit + 1,
		Merge: true,
	}

	s.mu.Lock()
	s.state = StateFullTextSearchPending
	s.req = req
	s.pending = res
	s.mu.Unlock()

	s.async.Update(req)
}

func (s *Session) prefixSearch(res *Results) {
	idx, err := s.d.Prefix()
	if err != nil {
		res.Unavailable = true
		return
	}
	found, err := idx.Search(res.Query, s.opts.IncrementalLimit)
	if err != nil {
		res.Unavailable = true
		return
	}
	for _, r := range found {
		res.Items = append(res.Items, &Result{
			Label:    r.Label,
			Path:     r.Path,
			SortKey:  r.SortKey,
			Priority: r.Priority,
		})
	}
}

func (s *Session) onResult(r *fulltext.AsyncResult) {
	s.mu.Lock()
	if r.Request != s.req {
		s.mu.Unlock()
		return
	}
	res, gen := s.pending, s.gen
	s.req = nil
	s.pending = nil
	s.mu.Unlock()

	if r.Err != nil {
		res.Err = r.Err
	}

	found := r.Results
	if s.opts.FullTextLimit > 0 && len(found) > s.opts.FullTextLimit {
		found = found[:s.opts.FullTextLimit]
		res.Truncated = true
	}

	if len(res.Items) == 0 && len(found) == 0 && r.Err == nil && len(strings.Fields(res.Query)) == 1 {
		// Suggestions are best effort.
		if words, err := s.hp.Correct(res.Query, s.opts.CorrectionLimit); err == nil {
			res.Suggestions = words
		}
	}

	seen := make(map[string]bool, len(res.Items))
	for _, it := range res.Items {
		seen[it.Path] = true
	}
	for _, f := range found {
		if seen[f.Path] {
			continue
		}
		res.Items = append(res.Items, &Result{
			Label:    f.Label,
			Path:     f.Path,
			SortKey:  f.SortKey,
			Priority: f.Priority,
		})
	}

	s.mu.Lock()
	if s.gen != gen {
		// Canceled while merging.
		s.mu.Unlock()
		return
	}
	s.state = StateResultsReady
	s.mu.Unlock()

	s.fn(res)
}

func (s *Session) report(res *Results) {
	s.setState(StateResultsReady)
	s.fn(res)
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// Cancel cancels the running search and returns the session to idle.
func (s *Session) Cancel() {
	if s.async != nil {
		s.async.Cancel()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.req = nil
	s.pending = nil
	s.state = StateIdle
}

// Close cancels the running search and stops the background worker. The
// dictionary is not closed.
func (s *Session) Close() {
	s.Cancel()
	if s.async != nil {
		s.async.Close()
	}
}
