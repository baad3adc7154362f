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

package folding

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// copyrightFolder maps the copyright sign to a plain 'c' so that names such
// as "©" sort and match like the letter.
var copyrightFolder = runes.Map(func(r rune) rune {
	if r == '©' {
		return 'c'
	}
	return r
})

// nonKeyRunes is the set of runes dropped from an index key.
var nonKeyRunes = runes.Predicate(func(r rune) bool {
	return !unicode.In(r, unicode.Ll, unicode.Nd)
})

// IndexKey returns a transformer that folds text into a sort and prefix key.
// Surrounding whitespace is removed, the text is lower cased, decomposed with
// NFKD and everything but lower case letters and decimal digits is dropped.
// Applying the transformer to its own output is a no-op.
func IndexKey() transform.Transformer {
	return transform.Chain(
		&SpaceFolder{},
		cases.Lower(language.Und),
		copyrightFolder,
		norm.NFKD,
		runes.Remove(nonKeyRunes),
	)
}

// Token returns a transformer that strips accents from an analyzed token. The
// token is decomposed with NFKD and non-spacing marks are removed.
func Token() transform.Transformer {
	return transform.Chain(
		copyrightFolder,
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
	)
}

// Key folds s with [IndexKey].
func Key(s string) string {
	return apply(IndexKey(), s)
}

// TokenString folds s with [Token].
func TokenString(s string) string {
	return apply(Token(), s)
}

// Whitespace folds s with a [SpaceFolder].
func Whitespace(s string) string {
	return apply(&SpaceFolder{}, s)
}

func apply(t transform.Transformer, s string) string {
	out, _, err := transform.String(t, s)
	if err != nil {
		// None of the folders report errors for in-memory input.
		return s
	}
	return out
}
