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

	"github.com/urfave/cli/v2"
)

var contentCommand = &cli.Command{
	Name:      "content",
	Usage:     "print the content at PATH, such as /fs/u2fc0a3d7d2f5",
	ArgsUsage: "PATH",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "out",
			Usage:   "write the content to `FILE`",
			Aliases: []string{"o"},
		},
	},
	OnUsageError: usageError,
	Action: func(c *cli.Context) error {
		path, err := oneArg(c, "PATH")
		if err != nil {
			return err
		}
		d, cfg, err := openDictionary(c)
		if err != nil {
			return err
		}
		defer d.Close()

		content, err := d.Content(path)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLdoce5util, err)
		}

		out := c.String("out")
		if out == "" {
			if _, err := c.App.Writer.Write(content.Data); err != nil {
				return fmt.Errorf("%w: %w", ErrLdoce5util, err)
			}
			return nil
		}
		if err := os.WriteFile(out, content.Data, 0o600); err != nil {
			return fmt.Errorf("%w: %w", ErrLdoce5util, err)
		}
		newLogger(c, cfg).Info("wrote content", "path", out, "type", content.MIMEType, "bytes", len(content.Data))
		return nil
	},
}
