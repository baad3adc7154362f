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
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Exponent is a word or phrase listed in an activator section.
type Exponent struct {
	ID   string
	Text string
}

// Section is an activator section.
type Section struct {
	ID        string
	Exponents []Exponent
}

// Concept is an activator concept. A concept groups related sections.
type Concept struct {
	ID string

	// Headword is the concept name. Alternative names are separated by '/'.
	Headword string

	// SectionIDs are the ids of the concept's sections in order.
	SectionIDs []string
}

func parseRoot(data []byte) (*etree.Element, string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, "", fmt.Errorf("%w: no root element", ErrInvalidDocument)
	}
	id := root.SelectAttr("id")
	if id == nil {
		return nil, "", fmt.Errorf("%w: %s has no id", ErrInvalidDocument, root.Tag)
	}
	return root, id.Value, nil
}

// ParseActivatorSection parses an activator_section document.
func ParseActivatorSection(data []byte) (*Section, error) {
	root, id, err := parseRoot(data)
	if err != nil {
		return nil, err
	}

	s := &Section{ID: id}
	for _, e := range root.SelectElements("Exponent") {
		exp := e.SelectElement("EXP")
		if exp == nil {
			continue
		}
		s.Exponents = append(s.Exponents, Exponent{
			ID:   attr(e, "id"),
			Text: allText(exp),
		})
	}
	return s, nil
}

// ParseActivatorConcept parses an activator_concept document.
func ParseActivatorConcept(data []byte) (*Concept, error) {
	root, id, err := parseRoot(data)
	if err != nil {
		return nil, err
	}

	hwd := root.SelectElement("HWD")
	if hwd == nil {
		return nil, fmt.Errorf("%w: concept %s has no HWD", ErrInvalidDocument, id)
	}
	c := &Concept{
		ID:       id,
		Headword: hwd.Text(),
	}
	for _, s := range root.SelectElements("Section") {
		c.SectionIDs = append(c.SectionIDs, attr(s, "id"))
	}
	if len(c.SectionIDs) == 0 {
		return nil, fmt.Errorf("%w: concept %s has no sections", ErrInvalidDocument, id)
	}
	return c, nil
}

// ConceptItems returns an item for each name of the concept. The items point
// at the concept's first section.
func ConceptItems(c *Concept) []*Item {
	var items []*Item
	path := "/activator/" + c.ID + "/" + c.SectionIDs[0]
	for _, h := range strings.Split(c.Headword, "/") {
		items = append(items, &Item{
			Type:     ActivatorConcept,
			Label:    "<a><c>" + escape(h) + "</c></a>",
			Path:     path,
			Content:  h,
			SortKey:  h,
			Priority: PriorityActivatorConcept,
		})
	}
	return items
}

// ExponentItems returns an item for each exponent in the concept's sections.
// Sections missing from sections are skipped.
func ExponentItems(c *Concept, sections map[string]*Section) []*Item {
	var items []*Item
	for sno, sid := range c.SectionIDs {
		s, ok := sections[sid]
		if !ok {
			continue
		}
		for _, e := range s.Exponents {
			items = append(items, &Item{
				Type: ActivatorExponent,
				Label: "<a><e>" + escape(e.Text) + "</e> (<c>" + escape(c.Headword) +
					"<s>" + strconv.Itoa(sno+1) + "</s></c>)</a>",
				Path:     "/activator/" + c.ID + "/" + sid + "#" + e.ID,
				Content:  e.Text,
				SortKey:  e.Text,
				Priority: PriorityActivatorExponent,
			})
		}
	}
	return items
}
