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

// Package index implements binary searches over sorted key sequences that
// may live outside of memory.
package index

import (
	"strings"
)

// Keys is a sequence of keys sorted in ascending byte order.
type Keys interface {
	// Len returns the number of keys.
	Len() int

	// Key returns the key at position i.
	Key(i int) (string, error)
}

// Strings is an in-memory sorted Keys.
type Strings []string

// Len implements [Keys.Len].
func (s Strings) Len() int {
	return len(s)
}

// Key implements [Keys.Key].
func (s Strings) Key(i int) (string, error) {
	return s[i], nil
}

// PrefixRange returns the half-open range [i, j) of keys that start with
// prefix. If no key matches then i == j.
func PrefixRange(keys Keys, prefix string) (int, int, error) {
	n := keys.Len()

	// Lower bound: first key >= prefix.
	a, b := 0, n
	for a < b {
		c := int(uint(a+b) >> 1)
		k, err := keys.Key(c)
		if err != nil {
			return 0, 0, err
		}
		if prefix > k {
			a = c + 1
		} else {
			b = c
		}
	}
	start := a

	// Upper bound: first key after start that sorts above prefix without
	// continuing it.
	b = n
	for a < b {
		c := int(uint(a+b) >> 1)
		k, err := keys.Key(c)
		if err != nil {
			return 0, 0, err
		}
		if prefix < k && !strings.HasPrefix(k, prefix) {
			b = c
		} else {
			a = c + 1
		}
	}

	return start, a, nil
}
