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

import "context"

// Collector bounds and cancels a search. Aborting a Collector stops the
// search it is passed to, which then returns no results.
type Collector struct {
	ctx    context.Context //nolint:containedctx // The collector is the cancellation handle.
	cancel context.CancelFunc
	limit  int

	// collected counts the matched documents taken so far.
	collected int
	onCollect func(n int)
}

// NewCollector returns a collector returning at most limit results. A limit
// of zero or less is unbounded. The collector is aborted when ctx is done.
func NewCollector(ctx context.Context, limit int) *Collector {
	ctx, cancel := context.WithCancel(ctx)
	if limit < 0 {
		limit = 0
	}
	return &Collector{
		ctx:    ctx,
		cancel: cancel,
		limit:  limit,
	}
}

// Limit returns the result limit. Zero means unbounded.
func (c *Collector) Limit() int {
	return c.limit
}

// Abort aborts the collector. It is safe to call from any goroutine.
func (c *Collector) Abort() {
	c.cancel()
}

// Aborted reports whether the collector was aborted.
func (c *Collector) Aborted() bool {
	return c.ctx.Err() != nil
}

// collect takes one matched document. It reports false once the collector
// is aborted and the search must stop.
func (c *Collector) collect() bool {
	c.collected++
	if c.onCollect != nil {
		c.onCollect(c.collected)
	}
	return !c.Aborted()
}
