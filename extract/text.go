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
	"strings"

	"github.com/beevik/etree"

	"github.com/ianlewis/go-ldoce5/internal/folding"
)

var excludedTags = map[string]bool{
	"span":   true,
	"OBJECT": true,
	"GLOSS":  true,
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// escape escapes text for use in label markup.
func escape(s string) string {
	return escaper.Replace(s)
}

// text returns the trimmed character data of e and its descendants. The
// content of span, OBJECT and GLOSS elements is skipped.
func text(e *etree.Element) string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	writeText(&b, e, excludedTags)
	return strings.TrimSpace(b.String())
}

// allText returns the trimmed character data of e and all descendants.
func allText(e *etree.Element) string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	writeText(&b, e, nil)
	return strings.TrimSpace(b.String())
}

func writeText(b *strings.Builder, e *etree.Element, exclude map[string]bool) {
	if exclude[e.Tag] {
		return
	}
	for _, t := range e.Child {
		switch t := t.(type) {
		case *etree.CharData:
			b.WriteString(t.Data)
		case *etree.Element:
			writeText(b, t, exclude)
		}
	}
}

// exampleText returns the direct character data of e together with the text
// of its COLLOINEXA children, with whitespace folded.
func exampleText(e *etree.Element) string {
	var parts []string
	inText := false
	for _, t := range e.Child {
		switch t := t.(type) {
		case *etree.CharData:
			if inText {
				parts[len(parts)-1] += t.Data
			} else {
				parts = append(parts, t.Data)
			}
			inText = true
		case *etree.Element:
			if t.Tag == "COLLOINEXA" {
				parts = append(parts, text(t))
			}
			inText = false
		}
	}
	return folding.Whitespace(strings.Join(parts, " "))
}

// descendants returns the descendants of e with the given tag in document
// order.
func descendants(e *etree.Element, tag string) []*etree.Element {
	var found []*etree.Element
	var walk func(*etree.Element)
	walk = func(p *etree.Element) {
		for _, c := range p.ChildElements() {
			if c.Tag == tag {
				found = append(found, c)
			}
			walk(c)
		}
	}
	walk(e)
	return found
}

// variants returns the LEXVAR descendants of e followed by the ORTHVAR
// descendants.
func variants(e *etree.Element) []*etree.Element {
	return append(descendants(e, "LEXVAR"), descendants(e, "ORTHVAR")...)
}

// texts returns the distinct texts of elems in document order.
func texts(elems []*etree.Element, lower bool) []string {
	var out []string
	seen := map[string]bool{}
	for _, e := range elems {
		s := text(e)
		if lower {
			s = strings.ToLower(s)
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func removeArticle(s string) string {
	if rest, ok := strings.CutPrefix(s, "a "); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(s, "an "); ok {
		return rest
	}
	return s
}

func attr(e *etree.Element, key string) string {
	return e.SelectAttrValue(key, "")
}
