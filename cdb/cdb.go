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

package cdb

import (
	"errors"
)

const (
	// HeaderSize is the size of the fixed file header.
	HeaderSize = tableCount * slotSize

	tableCount = 256
	slotSize   = 8
	hashSeed   = 5381
)

var (
	// ErrCorrupt indicates that the file is not a valid constant database.
	ErrCorrupt = errors.New("corrupt constant database")

	// ErrNotFound indicates that a key is not in the database.
	ErrNotFound = errors.New("key not found")

	// ErrTooLarge indicates that the database would exceed the 4GiB limit
	// of the format.
	ErrTooLarge = errors.New("constant database too large")
)

// Hash returns the hash of key.
func Hash(key []byte) uint32 {
	h := uint32(hashSeed)
	for _, c := range key {
		h = (h * 33) ^ uint32(c)
	}
	return h
}
