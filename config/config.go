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

// Package config holds the configuration of an LDOCE5 index. The
// configuration is stored as TOML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ErrInvalidConfig indicates that a configuration file could not be used.
var ErrInvalidConfig = errors.New("invalid config")

// AppName is the name of the application directories.
const AppName = "ldoce5viewer"

// Artifact file names in the index directory.
const (
	FilemapName          = "filemap.cdb"
	VariationsName       = "variations.cdb"
	IncrementalName      = "incremental.db"
	FullTextHeadwordName = "fulltext_hp"
	FullTextProseName    = "fulltext_de"
	ScanTempName         = "scan.tmp"
)

// Config is the configuration.
type Config struct {
	// DataDir is the ldoce5.data directory the index was built from.
	DataDir string `toml:"data_dir"`

	// IndexDir is the directory holding the index artifacts.
	IndexDir string `toml:"index_dir"`

	Search  SearchConfig  `toml:"search"`
	Archive ArchiveConfig `toml:"archive"`
	Index   IndexConfig   `toml:"index"`
	Log     LogConfig     `toml:"log"`
	Indexed IndexedConfig `toml:"indexed"`
}

// SearchConfig holds search options.
type SearchConfig struct {
	// IncrementalLimit is the maximum number of prefix search results.
	IncrementalLimit int `toml:"incremental_limit"`

	// FullTextLimit is the maximum number of full-text search results.
	FullTextLimit int `toml:"fulltext_limit"`

	// CorrectionLimit is the maximum number of spelling suggestions.
	CorrectionLimit int `toml:"correction_limit"`
}

// ArchiveConfig holds archive reader options.
type ArchiveConfig struct {
	// BlockCacheSize is the number of decompressed blocks cached per
	// archive.
	BlockCacheSize int `toml:"block_cache_size"`
}

// IndexConfig holds indexing options.
type IndexConfig struct {
	// BatchSize is the number of documents per full-text index batch.
	BatchSize int `toml:"batch_size"`

	// ProgressInterval is the number of items between progress reports.
	ProgressInterval int `toml:"progress_interval"`
}

// LogConfig holds logging options.
type LogConfig struct {
	Level string `toml:"level"`
}

// IndexedConfig records the last successful index build.
type IndexedConfig struct {
	DataDir string `toml:"data_dir"`
	Version string `toml:"version"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		IndexDir: defaultIndexDir(),
		Search: SearchConfig{
			IncrementalLimit: 500,
			FullTextLimit:    10000,
			CorrectionLimit:  5,
		},
		Archive: ArchiveConfig{
			BlockCacheSize: 1,
		},
		Index: IndexConfig{
			BatchSize:        1000,
			ProgressInterval: 10000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// applyDefaults replaces zero values with their defaults.
func (c *Config) applyDefaults() {
	d := Default()
	if c.IndexDir == "" {
		c.IndexDir = d.IndexDir
	}
	if c.Search.IncrementalLimit == 0 {
		c.Search.IncrementalLimit = d.Search.IncrementalLimit
	}
	if c.Search.FullTextLimit == 0 {
		c.Search.FullTextLimit = d.Search.FullTextLimit
	}
	if c.Search.CorrectionLimit == 0 {
		c.Search.CorrectionLimit = d.Search.CorrectionLimit
	}
	if c.Archive.BlockCacheSize == 0 {
		c.Archive.BlockCacheSize = d.Archive.BlockCacheSize
	}
	if c.Index.BatchSize == 0 {
		c.Index.BatchSize = d.Index.BatchSize
	}
	if c.Index.ProgressInterval == 0 {
		c.Index.ProgressInterval = d.Index.ProgressInterval
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

func (c *Config) validate() error {
	switch {
	case c.Search.IncrementalLimit < 0:
		return fmt.Errorf("%w: negative search.incremental_limit", ErrInvalidConfig)
	case c.Search.FullTextLimit < 0:
		return fmt.Errorf("%w: negative search.fulltext_limit", ErrInvalidConfig)
	case c.Search.CorrectionLimit < 0:
		return fmt.Errorf("%w: negative search.correction_limit", ErrInvalidConfig)
	case c.Archive.BlockCacheSize < 0:
		return fmt.Errorf("%w: negative archive.block_cache_size", ErrInvalidConfig)
	case c.Index.BatchSize < 0:
		return fmt.Errorf("%w: negative index.batch_size", ErrInvalidConfig)
	case c.Index.ProgressInterval < 0:
		return fmt.Errorf("%w: negative index.progress_interval", ErrInvalidConfig)
	}
	return nil
}

// DefaultPath returns the default path of the configuration file.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("finding config dir: %w", err)
	}
	return filepath.Join(dir, AppName, "config.toml"), nil
}

// Load reads the configuration file at path. Settings missing from the file
// have their default values.
func Load(path string) (*Config, error) {
	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

// LoadOrDefault reads the configuration file at path. If the file does not
// exist the default configuration is returned.
func LoadOrDefault(path string) (*Config, error) {
	c, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return c, err
}

// Save writes c to path. The file is replaced atomically.
func Save(c *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating config: %w", err)
	}
	tmpPath := f.Name()

	err = toml.NewEncoder(f).Encode(c)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmpPath, path)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// FilemapPath returns the path of the file map.
func (c *Config) FilemapPath() string {
	return filepath.Join(c.IndexDir, FilemapName)
}

// VariationsPath returns the path of the word variation store.
func (c *Config) VariationsPath() string {
	return filepath.Join(c.IndexDir, VariationsName)
}

// IncrementalPath returns the path of the prefix index.
func (c *Config) IncrementalPath() string {
	return filepath.Join(c.IndexDir, IncrementalName)
}

// FullTextHeadwordPath returns the path of the headword full-text index.
func (c *Config) FullTextHeadwordPath() string {
	return filepath.Join(c.IndexDir, FullTextHeadwordName)
}

// FullTextProsePath returns the path of the definition and example
// full-text index.
func (c *Config) FullTextProsePath() string {
	return filepath.Join(c.IndexDir, FullTextProseName)
}

// ScanTempPath returns the path of the store used while indexing.
func (c *Config) ScanTempPath() string {
	return filepath.Join(c.IndexDir, ScanTempName)
}

// ArtifactPaths returns the paths of every index artifact.
func (c *Config) ArtifactPaths() []string {
	return []string{
		c.FilemapPath(),
		c.VariationsPath(),
		c.IncrementalPath(),
		c.FullTextHeadwordPath(),
		c.FullTextProsePath(),
		c.ScanTempPath(),
	}
}
