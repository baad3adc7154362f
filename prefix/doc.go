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

// Package prefix implements the incremental search index: a sorted,
// memory-mapped file of headword and phrase records searched by key prefix.
//
// The index file comes in three parts. All integers are little-endian.
//  1. A 16 byte header: the magic number 0x28061691, the format version (1),
//     the record count and the file offset of the offset array, each 32 bits.
//  2. The records. Each record is an 8 byte header holding the lengths of the
//     key (16 bits), the item type code (8 bits), the label (16 bits) and the
//     path (16 bits) followed by the priority (8 bits). The four fields follow
//     the header as utf-8 text.
//  3. The offset array: one 32 bit file offset per record, ordered by the
//     record's key and then its priority.
//
// Keys are folded with [folding.IndexKey] so a search for "Cafe" matches the
// record for "café".
package prefix
