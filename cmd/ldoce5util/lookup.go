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

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/k3a/html2text"
	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"

	"github.com/ianlewis/go-ldoce5"
)

var lookupCommand = &cli.Command{
	Name:      "lookup",
	Usage:     "list headwords starting with WORD",
	ArgsUsage: "WORD",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "limit",
			Usage:   "print at most `N` results (default from config)",
			Aliases: []string{"n"},
		},
	},
	OnUsageError: usageError,
	Action: func(c *cli.Context) error {
		word, err := oneArg(c, "WORD")
		if err != nil {
			return err
		}
		d, cfg, err := openDictionary(c)
		if err != nil {
			return err
		}
		defer d.Close()

		idx, err := d.Prefix()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLdoce5util, err)
		}
		limit := cfg.Search.IncrementalLimit
		if c.IsSet("limit") {
			limit = c.Int("limit")
		}
		results, err := idx.Search(word, limit)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLdoce5util, err)
		}

		tbl := newTable(c, "Headword", "Type", "Path")
		for _, r := range results {
			tbl.AddRow(plain(r.Label), r.TypeCode, r.Path)
		}
		tbl.Print()
		return nil
	},
}

var findCommand = &cli.Command{
	Name:      "find",
	Usage:     "search headwords and phrases the way the search box does",
	ArgsUsage: "QUERY",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "give up after `DURATION`",
			Value: 30 * time.Second,
		},
	},
	OnUsageError: usageError,
	Action: func(c *cli.Context) error {
		query, err := oneArg(c, "QUERY")
		if err != nil {
			return err
		}
		d, cfg, err := openDictionary(c)
		if err != nil {
			return err
		}
		defer d.Close()

		ch := make(chan *ldoce5.Results, 1)
		s := ldoce5.NewSession(d, &ldoce5.SessionOptions{
			IncrementalLimit: cfg.Search.IncrementalLimit,
			FullTextLimit:    cfg.Search.FullTextLimit,
			CorrectionLimit:  cfg.Search.CorrectionLimit,
		}, func(r *ldoce5.Results) { ch <- r })
		defer s.Close()

		s.Input(query)

		var res *ldoce5.Results
		select {
		case res = <-ch:
		case <-time.After(c.Duration("timeout")):
			return fmt.Errorf("%w: search timed out", ErrLdoce5util)
		case <-c.Context.Done():
			return fmt.Errorf("%w: %w", ErrLdoce5util, c.Context.Err())
		}
		if res.Err != nil {
			return fmt.Errorf("%w: %w", ErrLdoce5util, res.Err)
		}
		if res.Unavailable {
			newLogger(c, cfg).Warn("some indexes are unavailable; run the index command")
		}

		tbl := newTable(c, "Label", "Path")
		for _, r := range res.Items {
			tbl.AddRow(plain(r.Label), r.Path)
		}
		tbl.Print()
		if res.Truncated {
			fmt.Fprintf(c.App.Writer, "more than %d results\n", cfg.Search.FullTextLimit)
		}
		if len(res.Suggestions) > 0 {
			fmt.Fprintf(c.App.Writer, "Did you mean: %s\n", strings.Join(res.Suggestions, ", "))
		}
		return nil
	},
}

func newTable(c *cli.Context, headers ...interface{}) table.Table {
	return table.New(headers...).WithWriter(c.App.Writer)
}

// plain returns the text of an HTML label.
func plain(label string) string {
	return strings.TrimSpace(html2text.HTML2Text(label))
}
