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

// Package cdb implements a write-once constant database: an on-disk hash
// table mapping byte string keys to byte string values.
//
// # File Format
//
// All integers are unsigned 32-bit little-endian values.
//
// The file starts with a fixed 2048 byte header of 256 slots. Each slot holds
// the file offset of a hash table and the number of entries in that table.
//
//	+-------------+-------------+-----+---------------+---------------+
//	| table0 off  | table0 len  | ... | table255 off  | table255 len  |
//	+-------------+-------------+-----+---------------+---------------+
//
// The header is followed by the records, one per key, in the order they were
// added.
//
//	+---------+---------+-----+-------+
//	| key len | val len | key | value |
//	+---------+---------+-----+-------+
//
// The records are followed by the 256 hash tables. A key belongs to the table
// selected by the low byte of its hash. Each table has twice as many entries
// as it has keys and each entry is a (hash, record offset) pair. A record
// offset of zero marks an empty entry. Lookups probe linearly, wrapping
// around, from entry (hash >> 8) modulo the table length.
//
// The hash is the 32-bit rolling hash h = (h * 33) ^ c seeded with 5381.
//
// The format has no magic number or version. Readers validate the header
// against the file size instead.
package cdb
