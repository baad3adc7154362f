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

// Package ldoce5 reads an indexed Longman Dictionary of Contemporary English
// (5th edition) data set.
//
// The data set is a directory named ldoce5.data holding several archives.
// Each archive is a set of compressed content blocks plus listing files that
// describe where each file's bytes live. Before anything can be looked up an
// index directory must be built from the data set with [indexer.Build]. The
// index directory holds:
//  1. A file map from archive file names to content locations.
//  2. A prefix index of headwords used for incremental search.
//  3. Two full-text indexes: one over headwords and phrases and one over
//     definitions and examples.
//  4. A word variation store used to expand full-text query words to their
//     inflected forms.
//
// A [Dictionary] opens these artifacts lazily. Content is returned as the raw
// archive bytes. A [Session] drives the search-as-you-type flow on top of a
// Dictionary.
//
// [indexer.Build]: https://pkg.go.dev/github.com/ianlewis/go-ldoce5/indexer#Build
package ldoce5
