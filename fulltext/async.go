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
	"context"
	"sync"
)

// Querier runs full-text searches. It is implemented by [Searcher].
type Querier interface {
	Search(c *Collector, req *Request) ([]*Result, error)
}

// AsyncRequest is a search run by an [AsyncSearcher].
type AsyncRequest struct {
	Request

	// Limit is the maximum number of results. Zero is unbounded.
	Limit int

	// Merge is passed through to the result. It marks results that are to
	// be merged with results from another index.
	Merge bool
}

// AsyncResult is the outcome of an [AsyncRequest].
type AsyncResult struct {
	Request *AsyncRequest
	Results []*Result
	Err     error
}

// AsyncSearcher runs searches on a single background worker. Only the most
// recent request is run. Updating the request aborts the running search and
// its results are discarded.
type AsyncSearcher struct {
	q  Querier
	fn func(*AsyncResult)

	ctx    context.Context //nolint:containedctx // Scopes the worker.
	cancel context.CancelFunc
	wake   chan struct{}
	done   chan struct{}

	mu      sync.Mutex
	pending *AsyncRequest
	current *Collector
	gen     uint64
}

// NewAsyncSearcher starts a worker running searches on q. fn is called from
// the worker goroutine with the result of each search that was not
// superseded.
func NewAsyncSearcher(q Querier, fn func(*AsyncResult)) *AsyncSearcher {
	ctx, cancel := context.WithCancel(context.Background())
	a := &AsyncSearcher{
		q:      q,
		fn:     fn,
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

// Update makes req the current request. A running search is aborted.
func (a *AsyncSearcher) Update(req *AsyncRequest) {
	a.mu.Lock()
	a.gen++
	a.pending = req
	if a.current != nil {
		a.current.Abort()
	}
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Cancel drops the pending request and aborts the running search.
func (a *AsyncSearcher) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	a.pending = nil
	if a.current != nil {
		a.current.Abort()
	}
}

// Close cancels searches and stops the worker. It waits for the worker to
// exit.
func (a *AsyncSearcher) Close() {
	a.Cancel()
	a.cancel()
	<-a.done
}

func (a *AsyncSearcher) run() {
	defer close(a.done)
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.wake:
		}

		a.mu.Lock()
		req, gen := a.pending, a.gen
		a.pending = nil
		if req == nil {
			a.mu.Unlock()
			continue
		}
		c := NewCollector(a.ctx, req.Limit)
		a.current = c
		a.mu.Unlock()

		results, err := a.q.Search(c, &req.Request)

		a.mu.Lock()
		a.current = nil
		stale := gen != a.gen || c.Aborted()
		a.mu.Unlock()
		c.Abort()

		if stale {
			continue
		}
		a.fn(&AsyncResult{
			Request: req,
			Results: results,
			Err:     err,
		})
	}
}
