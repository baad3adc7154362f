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

package idm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const datSection = "dat"

var typeSizes = map[string]int{
	"UBYTE":  1,
	"USHORT": 2,
	"U24":    3,
	"ULONG":  4,
}

// Field is an integer field of a dat record.
type Field struct {
	// Offset is the byte offset of the field in the record.
	Offset int

	// Size is the width of the field in bytes.
	Size int
}

// Uint decodes the field from the record.
func (f Field) Uint(rec []byte) uint32 {
	var v uint32
	for i := f.Offset + f.Size - 1; i >= f.Offset; i-- {
		v = v<<8 | uint32(rec[i])
	}
	return v
}

// Config is a parsed config.cft record descriptor.
type Config struct {
	// RecordSize is the size of a dat record in bytes.
	RecordSize int

	fields map[string]Field
}

// Field returns the named field.
func (c *Config) Field(name string) (Field, bool) {
	f, ok := c.fields[strings.ToLower(name)]
	return f, ok
}

// ParseConfig parses a config.cft file. Only the [DAT] section is read.
// Options whose value is not a known integer type are skipped.
func ParseConfig(r io.Reader) (*Config, error) {
	c := &Config{
		fields: map[string]Field{},
	}

	var section string
	s := bufio.NewScanner(r)
	for lineno := 1; s.Scan(); lineno++ {
		line := strings.TrimSpace(s.Text())
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		if line[0] == '[' {
			end := strings.IndexByte(line, ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: line %d: bad section header", ErrCorrupt, lineno)
			}
			section = strings.ToLower(strings.TrimSpace(line[1:end]))
			continue
		}
		if section != datSection {
			continue
		}

		key, value, err := readKV(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrCorrupt, lineno, err)
		}
		size, ok := typeSizes[value]
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(key, ",")
		c.fields[strings.ToLower(strings.TrimSpace(name))] = Field{
			Offset: c.RecordSize,
			Size:   size,
		}
		c.RecordSize += size
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return c, nil
}

// readKV splits an option line on the first '=' or ':'.
func readKV(line string) (string, string, error) {
	i := strings.IndexAny(line, "=:")
	if i < 0 {
		return "", "", fmt.Errorf("missing value: %q", line)
	}
	key := strings.TrimSpace(line[:i])
	value := strings.TrimSpace(line[i+1:])
	return key, value, nil
}

func parseConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer f.Close()

	c, err := ParseConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c *Config) requireField(name string) (Field, error) {
	f, ok := c.Field(name)
	if !ok {
		return Field{}, fmt.Errorf("%w: missing field %q", ErrCorrupt, name)
	}
	return f, nil
}
