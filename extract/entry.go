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
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/beevik/etree"

	"github.com/ianlewis/go-ldoce5/filemap"
	"github.com/ianlewis/go-ldoce5/variations"
)

// ErrInvalidDocument indicates that a document lacks required elements.
var ErrInvalidDocument = errors.New("invalid document")

// EntryResult is the result of extracting items from an entry.
type EntryResult struct {
	// Items are the searchable items in extraction order.
	Items []*Item

	// Variations is the variation graph of the headword.
	Variations map[string][]string
}

type entry struct {
	root   *etree.Element
	head   *etree.Element
	rootID string

	// hwdPlain is the headword text.
	hwdPlain string

	// hwdLabel is the inner headword markup used inside other labels.
	hwdLabel string

	// itemLabel is the label of the headword item.
	itemLabel string

	syllables int
	isAdj     bool
	incorrect map[string]bool

	items []*Item
}

// Entry extracts the searchable items from an fs entry document.
func Entry(data []byte) (*EntryResult, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrInvalidDocument)
	}
	id := root.SelectAttr("id")
	if id == nil {
		return nil, fmt.Errorf("%w: entry has no id", ErrInvalidDocument)
	}
	head := root.SelectElement("Head")
	if head == nil {
		return nil, fmt.Errorf("%w: %s: entry has no Head", ErrInvalidDocument, id.Value)
	}
	hwd := head.SelectElement("HWD")
	if hwd == nil || hwd.SelectElement("BASE") == nil {
		return nil, fmt.Errorf("%w: %s: entry has no headword", ErrInvalidDocument, id.Value)
	}

	x := &entry{
		root:      root,
		head:      head,
		rootID:    filemap.ShortenID(id.Value),
		hwdPlain:  text(hwd.SelectElement("BASE")),
		syllables: 1,
	}
	if h := head.SelectElement("HYPHENATION"); h != nil {
		x.syllables = strings.Count(text(h), hyphenationPoint) + 1
	}

	pos := texts(descendants(head, "POS"), true)
	gramsMain := texts(descendants(head, "GRAM"), true)
	var senseGrams []*etree.Element
	for _, s := range root.SelectElements("Sense") {
		senseGrams = append(senseGrams, descendants(s, "GRAM")...)
	}
	grams := texts(append(descendants(head, "GRAM"), senseGrams...), true)

	x.incorrect = incorrectInflections(x.hwdPlain, pos, grams, x.syllables)
	x.isAdj = slices.Contains(pos, "adjective")
	x.hwdLabel = x.makeHwdLabel(hwd)
	x.itemLabel = "<h>" + x.hwdLabel + "</h>"

	x.headword(hwd, slices.Contains(pos, "noun") && isUncountable(gramsMain))

	var inflections []string
	for _, it := range x.headwordVariants(hwd) {
		x.add(it)
		inflections = append(inflections, it.Content)
	}
	vars := variations.Make(x.hwdPlain, inflections)

	for _, e := range descendants(root, "Sense") {
		x.sense(e)
	}
	for _, e := range descendants(root, "RunOn") {
		x.runOn(e)
	}
	for _, e := range descendants(root, "PhrVbEntry") {
		x.phrasalVerb(e)
	}
	for _, e := range descendants(root, "EXAMPLE") {
		x.example(e)
	}
	for _, e := range descendants(root, "LEXUNIT") {
		x.lexUnit(e)
	}
	for _, e := range descendants(root, "PROPFORMPREP") {
		x.phrase(e, false)
	}
	for _, e := range descendants(root, "PROPFORM") {
		x.phrase(e, false)
	}
	for _, e := range descendants(root, "Collocate") {
		x.collocate(e)
	}
	for _, e := range descendants(root, "Exponent") {
		x.exponent(e)
	}
	for _, e := range descendants(root, "COLLO") {
		x.phrase(e, false)
	}
	for _, e := range descendants(root, "COLLOC") {
		x.phrase(e, true)
	}

	return &EntryResult{
		Items:      x.items,
		Variations: vars,
	}, nil
}

func (x *entry) add(it *Item) {
	x.items = append(x.items, it)
}

// path returns the content path of the entry, pointing at the element with
// the given id when it is not empty.
func (x *entry) path(id string) string {
	p := "/fs/" + x.rootID
	if id != "" {
		p += "#" + filemap.ShortenID(id)
	}
	return p
}

func (x *entry) makeHwdLabel(hwd *etree.Element) string {
	label := escape(text(hwd.SelectElement("BASE")))
	if homnum := x.head.SelectElement("HOMNUM"); homnum != nil {
		label += "<s>" + escape(text(homnum)) + "</s>"
	}

	if x.head.SelectElement("FREQ") != nil {
		label = "<f>" + label + "</f>"
	} else {
		label = "<n>" + label + "</n>"
	}

	if pos := x.head.SelectElements("POS"); len(pos) > 0 {
		var names []string
		for _, p := range pos {
			names = append(names, text(p))
		}
		label += " <p>" + escape(strings.Join(names, ", ")) + "</p>"
	}
	return label
}

// filter returns the filter codes of e. The adjective code 334 is dropped
// unless the item is an adjective. runOnPOS is nil for items that belong to
// the headword.
func (x *entry) filter(e *etree.Element, runOnPOS []string) string {
	a := e.SelectAttr("as_filter")
	if a == nil {
		return ""
	}

	drop := false
	switch {
	case runOnPOS == nil:
		drop = !x.isAdj
	case len(runOnPOS) > 0:
		drop = !slices.Contains(runOnPOS, "adjective")
	}

	var codes []string
	for _, c := range strings.Fields(strings.ReplaceAll(a.Value, "|", "")) {
		if (drop && c == "334") || slices.Contains(codes, c) {
			continue
		}
		codes = append(codes, c)
	}
	return strings.Join(codes, " ")
}

func (x *entry) headword(hwd *etree.Element, uncountable bool) {
	var codes []string
	if f := x.filter(hwd, nil); f != "" {
		codes = append(codes, f)
	}
	if uncountable {
		codes = append(codes, "u1")
	}

	if x.head.SelectElement("AmEVariant") == nil && x.head.SelectElement("BrEVariant") == nil {
		british, american := false, false
		for _, geo := range x.head.SelectElements("GEO") {
			s := text(geo)
			switch {
			case strings.Contains(s, "British"):
				british = true
			case strings.Contains(s, "American"):
				american = true
			}
		}
		if british {
			codes = append(codes, "u2")
		}
		if american {
			codes = append(codes, "u3")
		}
	}

	x.add(&Item{
		Type:     Headword,
		Label:    x.itemLabel,
		Path:     x.path(""),
		Content:  x.hwdPlain,
		SortKey:  x.hwdPlain,
		AsFilter: strings.Join(codes, " "),
		Priority: PriorityHeadword,
	})
}

func (x *entry) variantItem(plain, path, asFilter string) *Item {
	return &Item{
		Type:     HeadwordVariant,
		Label:    "<h><v>" + escape(plain) + "</v> &rarr; " + x.hwdLabel + "</h>",
		Path:     path,
		Content:  plain,
		SortKey:  plain,
		AsFilter: asFilter,
		Priority: PriorityHeadwordVariant,
	}
}

func (x *entry) headwordVariants(hwd *etree.Element) []*Item {
	var items []*Item
	asFilter := x.filter(hwd, nil)
	for _, inflx := range hwd.SelectElements("INFLX") {
		plain := text(inflx)
		if plain == x.hwdPlain || x.incorrect[plain] {
			continue
		}
		items = append(items, x.variantItem(plain, x.path(""), asFilter))
	}

	for _, v := range variants(x.head) {
		id := attr(v, "id")
		if id == "" {
			continue
		}
		vFilter := x.filter(v, nil)
		for _, plain := range texts(v.SelectElements("INFLX"), false) {
			if x.incorrect[plain] {
				continue
			}
			items = append(items, x.variantItem(plain, x.path(id), vFilter))
		}
	}

	for _, abbr := range descendants(x.head, "ABBR") {
		items = append(items, x.variantItem(text(abbr), x.path(""), ""))
	}
	return items
}

var stressMarks = strings.NewReplacer("ˈ", "", "ˌ", "")

func (x *entry) runOn(e *etree.Element) {
	deriv := e.SelectElement("DERIV")
	if deriv == nil || deriv.SelectElement("BASE") == nil {
		return
	}
	path := x.path(attr(deriv, "id"))
	pos := texts(descendants(e, "POS"), true)
	if pos == nil {
		pos = []string{}
	}
	asFilter := x.filter(deriv, pos)
	plain := stressMarks.Replace(text(deriv.SelectElement("BASE")))

	label := "<n>" + escape(plain) + "</n> <p>" + escape(strings.Join(pos, ", ")) + "</p>"
	x.add(&Item{
		Type:     Headword,
		Label:    "<h>" + label + "</h>",
		Path:     path,
		Content:  plain,
		SortKey:  plain,
		AsFilter: asFilter,
		Priority: PriorityHeadword,
	})

	incorrect := incorrectInflections(
		plain,
		texts(e.SelectElements("POS"), true),
		texts(e.SelectElements("GRAM"), true),
		x.syllables,
	)
	for _, inflx := range deriv.SelectElements("INFLX") {
		p := text(inflx)
		if p == plain || incorrect[p] {
			continue
		}
		x.add(&Item{
			Type:     HeadwordVariant,
			Label:    "<h><v>" + escape(p) + "</v> &rarr; " + label + "</h>",
			Path:     path,
			Content:  p,
			SortKey:  p,
			AsFilter: asFilter,
			Priority: PriorityHeadword,
		})
	}
}

func (x *entry) phrasalVerb(e *etree.Element) {
	hwd := e.FindElement("Head/PHRVBHWD")
	if hwd == nil {
		return
	}
	plain := text(hwd)
	x.add(&Item{
		Type:     PhrasalVerb,
		Label:    "<h><pv>" + escape(plain) + "</pv> <p>phrasal verb</p></h>",
		Path:     x.path(attr(e, "id")),
		Content:  plain,
		SortKey:  plain,
		AsFilter: x.filter(hwd, nil),
		Priority: PriorityHeadword,
	})
}

func (x *entry) definition(d *etree.Element, path, label string) {
	x.add(&Item{
		Type:     Definition,
		Label:    label,
		Path:     path,
		Content:  text(d),
		SortKey:  x.hwdPlain,
		AsFilter: x.filter(d, nil),
		Priority: PriorityDefinition,
	})
}

func (x *entry) exampleItem(e *etree.Element, path, label string) {
	base := e.SelectElement("BASE")
	if base == nil {
		return
	}
	x.add(&Item{
		Type:     Example,
		Label:    label,
		Path:     path,
		Content:  exampleText(base),
		SortKey:  x.hwdPlain,
		AsFilter: x.filter(e, nil),
		Priority: PriorityExample,
	})
}

func (x *entry) sense(e *etree.Element) {
	path := x.path(attr(e, "id"))
	for _, d := range descendants(e, "DEF") {
		x.definition(d, path, x.itemLabel)
	}

	for _, v := range variants(e) {
		plain := strings.ReplaceAll(stressMarks.Replace(text(v)), "·", "")
		x.add(&Item{
			Type:     LexUnit,
			Label:    "<l><o>" + escape(plain) + "</o> (" + x.hwdLabel + ")</l>",
			Path:     x.path(attr(v, "id")),
			Content:  plain,
			SortKey:  plain,
			Priority: PriorityPhraseVariant,
		})
	}
}

func (x *entry) example(e *etree.Element) {
	path := x.path(attr(e, "id"))
	x.exampleItem(e, path, x.itemLabel)

	collo := descendants(e, "COLLOINEXA")
	if len(collo) == 0 {
		return
	}
	var plains, labels []string
	for _, c := range collo {
		s := text(c)
		plains = append(plains, s)
		labels = append(labels, escape(s))
	}
	plain := strings.Join(plains, " ")
	x.add(&Item{
		Type:     Phrase,
		Label:    "<c><o>" + strings.Join(labels, " &hellip; ") + "</o> (" + x.hwdLabel + ")</c>",
		Path:     path,
		Content:  plain,
		SortKey:  plain,
		Priority: PriorityExamplePhrase,
	})
}

func (x *entry) lexUnit(e *etree.Element) {
	plain := text(e)
	x.add(&Item{
		Type:     LexUnit,
		Label:    "<l><o>" + escape(plain) + "</o> (" + x.hwdLabel + ")</l>",
		Path:     x.path(attr(e, "id")),
		Content:  plain,
		SortKey:  plain,
		AsFilter: x.filter(e, nil),
		Priority: PriorityLexUnit,
	})
}

func (x *entry) phraseItem(plain, path, asFilter string, priority int) *Item {
	return &Item{
		Type:     Phrase,
		Label:    "<c><o>" + escape(plain) + "</o> (" + x.hwdLabel + ")</c>",
		Path:     path,
		Content:  plain,
		SortKey:  plain,
		AsFilter: asFilter,
		Priority: priority,
	}
}

func (x *entry) phrase(e *etree.Element, article bool) {
	plain := text(e)
	if article {
		plain = removeArticle(plain)
	}
	x.add(x.phraseItem(plain, x.path(attr(e, "id")), x.filter(e, nil), PriorityPhrase))
}

// title returns the bold markup of the texts of elems.
func title(elems []*etree.Element) string {
	var parts []string
	for _, e := range elems {
		parts = append(parts, "<b>"+escape(text(e))+"</b>")
	}
	return strings.Join(parts, ", ")
}

func (x *entry) collocate(e *etree.Element) {
	id := attr(e, "id")
	if id == "" {
		return
	}
	path := x.path(id)
	label := x.itemLabel + " &mdash; " + title(append(e.SelectElements("COLLOC"), variants(e)...))

	for _, ex := range e.SelectElements("COLLEXA") {
		x.exampleItem(ex, path, label)
	}

	for _, v := range variants(e) {
		vid := attr(v, "id")
		if vid == "" {
			continue
		}
		x.add(x.phraseItem(text(v), x.path(vid), "", PriorityPhraseVariant))
	}
}

func (x *entry) exponent(e *etree.Element) {
	id := attr(e, "id")
	if id == "" {
		return
	}
	path := x.path(id)

	for _, ex := range descendants(e, "THESEXA") {
		x.exampleItem(ex, path, x.itemLabel)
	}

	label := x.itemLabel + " &mdash; " + title(append(e.SelectElements("EXP"), variants(e)...))
	for _, d := range descendants(e, "DEF") {
		x.definition(d, path, label)
	}
}
