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
	"regexp"

	"github.com/urfave/cli/v2"

	"github.com/ianlewis/go-ldoce5/extract"
	"github.com/ianlewis/go-ldoce5/fulltext"
)

var searchCommand = &cli.Command{
	Name:      "search",
	Usage:     "run a full-text query",
	ArgsUsage: "QUERY",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "filter",
			Usage:   "restrict results with a filter `EXPR` such as \"spoken AND informal\"",
			Aliases: []string{"f"},
		},
		&cli.StringSliceFlag{
			Name:    "type",
			Usage:   "restrict results to item type `CODE`s (hm, hv, p, d, e, ...)",
			Aliases: []string{"t"},
		},
		&cli.BoolFlag{
			Name:  "prose",
			Usage: "search definitions and examples instead of headwords",
		},
		&cli.BoolFlag{
			Name:  "highlight",
			Usage: "print matched content with [matches] marked",
		},
		&cli.IntFlag{
			Name:    "limit",
			Usage:   "print at most `N` results (default from config)",
			Aliases: []string{"n"},
		},
	},
	OnUsageError: usageError,
	Action: func(c *cli.Context) error {
		query, err := oneArg(c, "QUERY")
		if err != nil {
			return err
		}

		var types []extract.ItemType
		for _, code := range c.StringSlice("type") {
			t, err := extract.ParseItemType(code)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrFlagParse, err)
			}
			types = append(types, t)
		}

		d, cfg, err := openDictionary(c)
		if err != nil {
			return err
		}
		defer d.Close()

		open := d.HeadwordSearcher
		if c.Bool("prose") {
			open = d.ProseSearcher
		}
		s, err := open()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLdoce5util, err)
		}

		limit := cfg.Search.FullTextLimit
		if c.IsSet("limit") {
			limit = c.Int("limit")
		}
		results, err := s.Search(fulltext.NewCollector(c.Context, limit), &fulltext.Request{
			Phrase:    query,
			Filter:    c.String("filter"),
			ItemTypes: types,
			Highlight: c.Bool("highlight"),
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLdoce5util, err)
		}

		if c.Bool("highlight") {
			tbl := newTable(c, "Label", "Path", "Match")
			for _, r := range results {
				tbl.AddRow(plain(r.Label), r.Path, plain(markMatches(r.Snippet)))
			}
			tbl.Print()
			return nil
		}

		tbl := newTable(c, "Label", "Path")
		for _, r := range results {
			tbl.AddRow(plain(r.Label), r.Path)
		}
		tbl.Print()
		return nil
	},
}

var (
	matchOpen  = regexp.MustCompile(`<span class="s_match[^"]*">`)
	matchClose = regexp.MustCompile(`</span>`)
)

// markMatches replaces highlight spans with brackets.
func markMatches(snippet string) string {
	s := matchOpen.ReplaceAllLiteralString(snippet, "[")
	return matchClose.ReplaceAllLiteralString(s, "]")
}

var correctCommand = &cli.Command{
	Name:      "correct",
	Usage:     "suggest spellings for WORD",
	ArgsUsage: "WORD",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "limit",
			Usage:   "print at most `N` suggestions (default from config)",
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

		s, err := d.HeadwordSearcher()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLdoce5util, err)
		}
		limit := cfg.Search.CorrectionLimit
		if c.IsSet("limit") {
			limit = c.Int("limit")
		}
		words, err := s.Correct(word, limit)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLdoce5util, err)
		}
		for _, w := range words {
			fmt.Fprintln(c.App.Writer, w)
		}
		return nil
	},
}
