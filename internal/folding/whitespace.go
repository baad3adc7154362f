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
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// SpaceFolder is a [transform.Transformer] that trims surrounding whitespace
// and collapses each internal run of whitespace into one ASCII space.
//
// Dictionary text is typeset and carries zero width spaces between
// syllables. They count as whitespace too.
type SpaceFolder struct {
	// started is set once a non-space rune has been written.
	started bool

	// gap is set while inside a run of whitespace following text.
	gap bool
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\u200b' || r == '\ufeff'
}

// Transform implements [transform.Transformer.Transform].
func (f *SpaceFolder) Transform(dst, src []byte, atEOF bool) (int, int, error) {
	nDst, nSrc := 0, 0
	for nSrc < len(src) {
		if !atEOF && !utf8.FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}
		r, size := utf8.DecodeRune(src[nSrc:])

		if isSpace(r) {
			f.gap = f.started
			nSrc += size
			continue
		}

		// The replacement rune is wider than an invalid input byte.
		need := utf8.RuneLen(r)
		if f.gap {
			need++
		}
		if nDst+need > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		if f.gap {
			dst[nDst] = ' '
			nDst++
			f.gap = false
		}
		nDst += utf8.EncodeRune(dst[nDst:], r)
		nSrc += size
		f.started = true
	}
	return nDst, nSrc, nil
}

// Reset implements [transform.Transformer.Reset].
func (f *SpaceFolder) Reset() {
	f.started, f.gap = false, false
}
