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
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"

	"github.com/ianlewis/go-ldoce5/config"
	"github.com/ianlewis/go-ldoce5/idm"
	"github.com/ianlewis/go-ldoce5/indexer"
)

var indexCommand = &cli.Command{
	Name:      "index",
	Usage:     "build the search indexes from an LDOCE5 data set",
	ArgsUsage: " ",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "source",
			Usage:   "read the data set from `DIR` (ldoce5.data)",
			Aliases: []string{"s"},
		},
	},
	OnUsageError: usageError,
	Action: func(c *cli.Context) error {
		cfg, path, err := loadConfig(c)
		if err != nil {
			return err
		}
		l := newLogger(c, cfg)

		src := c.String("source")
		if src == "" {
			src = findSource(cfg)
		}
		if src == "" {
			return fmt.Errorf("%w: use --source", ErrNoSource)
		}
		l.Info("indexing", "source", src, "index", cfg.IndexDir)

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
		defer stop()

		err = indexer.Build(ctx, cfg, src, &indexer.Options{
			Progress:         func(msg string) { l.Info(msg) },
			BatchSize:        cfg.Index.BatchSize,
			ProgressInterval: cfg.Index.ProgressInterval,
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLdoce5util, err)
		}

		if err := config.Save(cfg, path); err != nil {
			return fmt.Errorf("%w: saving config: %w", ErrLdoce5util, err)
		}
		l.Debug("saved config", "path", path)
		return nil
	},
}

// findSource returns the first LDOCE5 data set found in the configured data
// directory or the well-known install locations.
func findSource(cfg *config.Config) string {
	locs := config.SourceLocations()
	if cfg.DataDir != "" {
		locs = append([]string{cfg.DataDir}, locs...)
	}
	for _, loc := range locs {
		if idm.IsDataDir(loc) {
			return loc
		}
	}
	return ""
}
