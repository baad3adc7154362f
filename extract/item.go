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
)

// ErrUnknownItemType indicates that an item type code is not known.
var ErrUnknownItemType = errors.New("unknown item type")

// ItemType is the type of a searchable item.
type ItemType uint8

const (
	// Invalid is the zero ItemType.
	Invalid ItemType = iota

	// Headword is a headword or run-on derivative.
	Headword

	// HeadwordVariant is an inflection, variant spelling or abbreviation of
	// a headword.
	HeadwordVariant

	// PhrasalVerb is a phrasal verb.
	PhrasalVerb

	// Phrase is a phrase, collocation or property form.
	Phrase

	// LexUnit is a lexical unit.
	LexUnit

	// ActivatorConcept is a concept of the language activator.
	ActivatorConcept

	// ActivatorExponent is an exponent of the language activator.
	ActivatorExponent

	// Definition is a sense definition.
	Definition

	// Example is an example sentence.
	Example
)

// ItemTypes lists every valid item type.
var ItemTypes = []ItemType{
	Headword,
	HeadwordVariant,
	PhrasalVerb,
	Phrase,
	LexUnit,
	ActivatorConcept,
	ActivatorExponent,
	Definition,
	Example,
}

// Code returns the type code stored in indexes.
func (t ItemType) Code() string {
	switch t {
	case Headword:
		return "hm"
	case HeadwordVariant:
		return "hv"
	case PhrasalVerb:
		return "hp"
	case Phrase:
		return "p"
	case LexUnit:
		return "pl"
	case ActivatorConcept:
		return "ac"
	case ActivatorExponent:
		return "ae"
	case Definition:
		return "d"
	case Example:
		return "e"
	case Invalid:
		return ""
	default:
		return ""
	}
}

// String implements [fmt.Stringer].
func (t ItemType) String() string {
	switch t {
	case Headword:
		return "headword"
	case HeadwordVariant:
		return "headword variant"
	case PhrasalVerb:
		return "phrasal verb"
	case Phrase:
		return "phrase"
	case LexUnit:
		return "lexical unit"
	case ActivatorConcept:
		return "activator concept"
	case ActivatorExponent:
		return "activator exponent"
	case Definition:
		return "definition"
	case Example:
		return "example"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("ItemType(%d)", uint8(t))
	}
}

// ParseItemType returns the item type for a type code.
func ParseItemType(code string) (ItemType, error) {
	for _, t := range ItemTypes {
		if t.Code() == code {
			return t, nil
		}
	}
	return Invalid, fmt.Errorf("%w: %q", ErrUnknownItemType, code)
}

// Group is a set of item types that share an index.
type Group uint8

const (
	// GroupNone is the group of the Invalid item type.
	GroupNone Group = iota

	// GroupHeadword holds headwords, phrases and activator items.
	GroupHeadword

	// GroupProse holds definitions and examples.
	GroupProse
)

// Group returns the index group of the item type.
func (t ItemType) Group() Group {
	switch t {
	case Headword, HeadwordVariant, PhrasalVerb,
		Phrase, LexUnit,
		ActivatorConcept, ActivatorExponent:
		return GroupHeadword
	case Definition, Example:
		return GroupProse
	case Invalid:
		return GroupNone
	default:
		return GroupNone
	}
}

// Item priorities. Items with equal sort keys are listed in priority order.
const (
	PriorityHeadword          = 1
	PriorityHeadwordVariant   = 2
	PriorityLexUnit           = 9
	PriorityPhrase            = 10
	PriorityPhraseVariant     = 11
	PriorityExamplePhrase     = 15
	PriorityExample           = 20
	PriorityDefinition        = 30
	PriorityActivatorConcept  = 50
	PriorityActivatorExponent = 51
)

// Item is a searchable item.
type Item struct {
	// Type is the item type.
	Type ItemType `msgpack:"t"`

	// Label is the display markup.
	Label string `msgpack:"l"`

	// Path is the content path, /archive/name with an optional fragment.
	Path string `msgpack:"p"`

	// Content is the indexed text.
	Content string `msgpack:"c"`

	// SortKey is the text the item is sorted by.
	SortKey string `msgpack:"s"`

	// AsFilter is a space separated list of filter codes.
	AsFilter string `msgpack:"f"`

	// Priority orders items with equal sort keys.
	Priority int `msgpack:"r"`
}
