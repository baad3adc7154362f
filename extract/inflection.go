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

package extract

import (
	"regexp"
	"strings"
)

var (
	countableRe   = regexp.MustCompile(`(\bcountable\b|\bc\b|\b(often|usually)\s+plural\b)`)
	uncountableRe = regexp.MustCompile(`\buncountable\b`)
)

// hyphenationPoint separates syllables in HYPHENATION elements.
const hyphenationPoint = "‧"

// incorrectInflections returns the regular inflections that the dictionary
// lists but that are not used: plurals of uncountable nouns and comparatives
// of adjectives that do not take them. pos and grams are lower cased texts.
func incorrectInflections(base string, pos, grams []string, syllables int) map[string]bool {
	r := map[string]bool{}
	for _, p := range pos {
		var forms []string
		switch p {
		case "noun":
			forms = nounPlurals(base, grams)
		case "adjective":
			forms = comparatives(base, grams, syllables)
		}
		for _, f := range forms {
			r[f] = true
		}
	}
	return r
}

func nounPlurals(base string, grams []string) []string {
	for _, g := range grams {
		if countableRe.MatchString(g) {
			return nil
		}
	}

	switch {
	case strings.HasSuffix(base, "y"):
		return []string{base + "s", base[:len(base)-1] + "ies"}
	case strings.HasSuffix(base, "f"):
		return []string{base[:len(base)-1] + "ves"}
	case strings.HasSuffix(base, "fe"):
		return []string{base[:len(base)-2] + "ves"}
	default:
		return []string{base + "s", base + "es"}
	}
}

func comparatives(base string, grams []string, syllables int) []string {
	regular := func() []string {
		switch {
		case strings.HasSuffix(base, "e"):
			return []string{base + "r", base + "st"}
		case strings.HasSuffix(base, "y"):
			s := base[:len(base)-1]
			return []string{s + "ier", s + "iest"}
		default:
			return []string{base + "er", base + "est"}
		}
	}

	for _, g := range grams {
		if strings.Contains(g, "no comparative") {
			return regular()
		}
	}

	switch {
	case syllables >= 3:
		return regular()
	case syllables >= 2 && !strings.HasSuffix(base, "y") &&
		!strings.HasSuffix(base, "le") && !strings.HasSuffix(base, "er"):
		return regular()
	}
	return nil
}

// isUncountable reports whether a noun's grammar codes mark it uncountable.
func isUncountable(grams []string) bool {
	for _, g := range grams {
		if uncountableRe.MatchString(g) && !countableRe.MatchString(g) {
			return true
		}
	}
	return false
}
