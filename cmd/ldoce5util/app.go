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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"

	"github.com/ianlewis/go-ldoce5"
	"github.com/ianlewis/go-ldoce5/config"
	"github.com/ianlewis/go-ldoce5/internal/logger"
)

const (
	// ExitCodeSuccess is successful error code.
	ExitCodeSuccess int = iota

	// ExitCodeFlagParseError is the exit code for a flag parsing error.
	ExitCodeFlagParseError

	// ExitCodeNotFound is the exit code when the requested content does not
	// exist.
	ExitCodeNotFound

	// ExitCodeUnavailable is the exit code when an index or archive could
	// not be read.
	ExitCodeUnavailable

	// ExitCodeUnknownError is the exit code for an unknown error.
	ExitCodeUnknownError
)

// ErrLdoce5util is a parent error for all command errors.
var ErrLdoce5util = errors.New("ldoce5util")

// ErrFlagParse is a flag parsing error.
var ErrFlagParse = fmt.Errorf("%w: parsing flags", ErrLdoce5util)

// ErrNoSource indicates that no LDOCE5 data set could be found.
var ErrNoSource = fmt.Errorf("%w: ldoce5.data not found", ErrLdoce5util)

var copyrightNames = []string{
	"2025 Ian Lewis",
}

// check checks the error and panics if not nil.
func check(err error) {
	if err != nil {
		panic(err)
	}
}

// exitCode returns the exit code for an error returned by the app.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitCodeSuccess
	case errors.Is(err, ErrFlagParse):
		return ExitCodeFlagParseError
	case errors.Is(err, ldoce5.ErrNotFound):
		return ExitCodeNotFound
	case errors.Is(err, ldoce5.ErrIndexUnavailable),
		errors.Is(err, ldoce5.ErrFilemapUnavailable),
		errors.Is(err, ldoce5.ErrArchiveUnavailable),
		errors.Is(err, ErrNoSource):
		return ExitCodeUnavailable
	default:
		return ExitCodeUnknownError
	}
}

func usageError(_ *cli.Context, err error, _ bool) error {
	return fmt.Errorf("%w: %w", ErrFlagParse, err)
}

// loadConfig reads the configuration file named by the --config flag and
// applies flag overrides. It returns the configuration and its path.
func loadConfig(c *cli.Context) (*config.Config, string, error) {
	path := c.String("config")
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrLdoce5util, err)
		}
		path = p
	}

	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: loading config: %w", ErrLdoce5util, err)
	}
	if dir := c.String("index-dir"); dir != "" {
		cfg.IndexDir = dir
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	return cfg, path, nil
}

func newLogger(c *cli.Context, cfg *config.Config) *log.Logger {
	return logger.NewWithWriter(c.App.ErrWriter, c.App.Name, cfg.Log.Level)
}

// openDictionary opens the dictionary described by the configuration.
func openDictionary(c *cli.Context) (*ldoce5.Dictionary, *config.Config, error) {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	d, err := ldoce5.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrLdoce5util, err)
	}
	return d, cfg, nil
}

// oneArg returns the single positional argument.
func oneArg(c *cli.Context, name string) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("%w: expected one %s argument, got %d", ErrFlagParse, name, c.NArg())
	}
	return c.Args().First(), nil
}

func newLdoce5App() *cli.App {
	return &cli.App{
		Name:  filepath.Base(os.Args[0]),
		Usage: "Search the Longman Dictionary of Contemporary English.",
		Description: strings.Join([]string{
			"LDOCE5 index and lookup utility written in Go.",
			"http://github.com/ianlewis/go-ldoce5",
		}, "\n"),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "read configuration from `FILE`",
				Aliases: []string{"c"},
			},
			&cli.StringFlag{
				Name:  "index-dir",
				Usage: "read and write indexes in `DIR`",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log at `LEVEL` (debug, info, warn, error)",
			},

			// Special flags are shown at the end.
			&cli.BoolFlag{
				Name:               "version",
				Usage:              "print version information and exit",
				Aliases:            []string{"V"},
				DisableDefaultText: true,
			},
		},
		Copyright:       strings.Join(copyrightNames, "\n"),
		HideHelpCommand: true,
		OnUsageError:    usageError,
		Action: func(c *cli.Context) error {
			if c.Bool("version") {
				return printVersion(c)
			}

			check(cli.ShowAppHelp(c))
			return nil
		},
		Commands: []*cli.Command{
			indexCommand,
			lookupCommand,
			findCommand,
			searchCommand,
			correctCommand,
			contentCommand,
		},
	}
}
