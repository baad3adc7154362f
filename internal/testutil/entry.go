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

package testutil

import (
	"fmt"
	"strings"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// Entry describes a small dictionary entry.
type Entry struct {
	// ID is the short entry id. The document id is "x.y." + ID.
	ID string

	Headword    string
	Inflections []string
	POS         string
	Definition  string
	Example     string
}

// XML returns the entry document.
func (e *Entry) XML() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, `<Entry id="x.y.%s"><Head><HWD><BASE>%s</BASE>`, e.ID, xmlEscaper.Replace(e.Headword))
	for _, inflx := range e.Inflections {
		fmt.Fprintf(&b, "<INFLX>%s</INFLX>", xmlEscaper.Replace(inflx))
	}
	b.WriteString("</HWD>")
	if e.POS != "" {
		fmt.Fprintf(&b, "<POS>%s</POS>", xmlEscaper.Replace(e.POS))
	}
	b.WriteString("</Head>")
	if e.Definition != "" || e.Example != "" {
		fmt.Fprintf(&b, `<Sense id="x.y.%s.s1">`, e.ID)
		if e.Definition != "" {
			fmt.Fprintf(&b, "<DEF>%s</DEF>", xmlEscaper.Replace(e.Definition))
		}
		if e.Example != "" {
			fmt.Fprintf(&b, `<EXAMPLE id="x.y.%s.e1"><BASE>%s</BASE></EXAMPLE>`, e.ID, xmlEscaper.Replace(e.Example))
		}
		b.WriteString("</Sense>")
	}
	b.WriteString("</Entry>")
	return []byte(b.String())
}

// ActivatorSectionXML returns an activator section document with one
// exponent per entry of exponents, keyed by exponent id.
func ActivatorSectionXML(id string, exponents [][2]string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, `<Section id="%s">`, id)
	for _, e := range exponents {
		fmt.Fprintf(&b, `<Exponent id="%s"><EXP>%s</EXP></Exponent>`, e[0], xmlEscaper.Replace(e[1]))
	}
	b.WriteString("</Section>")
	return []byte(b.String())
}

// ActivatorConceptXML returns an activator concept document.
func ActivatorConceptXML(id, headword string, sectionIDs ...string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, `<Concept id="%s"><HWD>%s</HWD>`, id, xmlEscaper.Replace(headword))
	for _, sid := range sectionIDs {
		fmt.Fprintf(&b, `<Section id="%s"/>`, sid)
	}
	b.WriteString("</Concept>")
	return []byte(b.String())
}
