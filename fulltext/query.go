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

package fulltext

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/ianlewis/go-ldoce5/internal/folding"
)

var errSyntax = errors.New("syntax error")

type tokenKind int

const (
	tokWord tokenKind = iota
	tokQuoted
	tokLParen
	tokRParen
	tokAnd
	tokOr
	tokNot
)

type token struct {
	kind tokenKind
	text string
}

// syntax describes the operators recognized by a query parser.
type syntax struct {
	keywords map[string]tokenKind

	// ampersand makes '&' an AND operator.
	ampersand bool

	// minus makes a '-' following whitespace a NOT operator. Elsewhere it is
	// part of the word.
	minus bool

	// field is the default field of bare words.
	field string
}

var phraseSyntax = &syntax{
	keywords: map[string]tokenKind{
		"AND": tokAnd,
		"NOT": tokNot,
	},
	ampersand: true,
	minus:     true,
	field:     fieldContent,
}

var filterSyntax = &syntax{
	keywords: map[string]tokenKind{
		"AND": tokAnd,
		"OR":  tokOr,
	},
	field: fieldAsFilter,
}

// fieldNames maps the field names accepted in field:term syntax.
var fieldNames = map[string]string{
	"content":  fieldContent,
	"itemtype": fieldItemType,
	"asfilter": fieldAsFilter,
}

func (s *syntax) isDelim(r rune) bool {
	return unicode.IsSpace(r) || r == '(' || r == ')' || r == '"' || (s.ampersand && r == '&')
}

func (s *syntax) lex(q string) ([]token, error) {
	var toks []token
	rs := []rune(q)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen})
			i++
		case s.ampersand && r == '&':
			toks = append(toks, token{kind: tokAnd})
			i++
		case r == '"':
			j := i + 1
			for j < len(rs) && rs[j] != '"' {
				j++
			}
			if j == len(rs) {
				return nil, fmt.Errorf("%w: unterminated quote", errSyntax)
			}
			toks = append(toks, token{kind: tokQuoted, text: string(rs[i+1 : j])})
			i = j + 1
		case s.minus && r == '-' && i > 0 && unicode.IsSpace(rs[i-1]):
			toks = append(toks, token{kind: tokNot})
			i++
		default:
			j := i
			for j < len(rs) && !s.isDelim(rs[j]) {
				j++
			}
			w := string(rs[i:j])
			if k, ok := s.keywords[w]; ok {
				toks = append(toks, token{kind: k})
			} else {
				toks = append(toks, token{kind: tokWord, text: w})
			}
			i = j
		}
	}
	return toks, nil
}

// node is a node of a parsed query.
type node any

type (
	andNode []node
	orNode  []node
	notNode struct{ n node }

	// wordNode is a single word, possibly with wildcards.
	wordNode struct{ field, text string }

	// phraseNode is a quoted phrase.
	phraseNode struct{ field, text string }
)

type parser struct {
	syn  *syntax
	toks []token
	pos  int
}

// parse parses q. An empty query returns a nil node.
func parse(q string, syn *syntax) (node, error) {
	toks, err := syn.lex(q)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, nil
	}
	p := &parser{syn: syn, toks: toks}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.toks) {
		return nil, fmt.Errorf("%w: unexpected token at %d", errSyntax, p.pos)
	}
	return n, nil
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) parseOr() (node, error) {
	n, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	or := orNode{n}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOr {
			break
		}
		p.pos++
		n, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		or = append(or, n)
	}
	if len(or) == 1 {
		return or[0], nil
	}
	return or, nil
}

func (p *parser) parseAnd() (node, error) {
	var and andNode
	for {
		t, ok := p.peek()
		if !ok || t.kind == tokRParen || t.kind == tokOr {
			break
		}
		if t.kind == tokAnd {
			// Juxtaposition is AND already.
			p.pos++
			continue
		}
		n, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		and = append(and, n)
	}
	switch len(and) {
	case 0:
		return nil, fmt.Errorf("%w: empty expression", errSyntax)
	case 1:
		if _, ok := and[0].(notNode); !ok {
			return and[0], nil
		}
	}
	return and, nil
}

func (p *parser) parseUnary() (node, error) {
	t, _ := p.peek()
	if t.kind == tokNot {
		p.pos++
		if _, ok := p.peek(); !ok {
			return nil, fmt.Errorf("%w: dangling NOT", errSyntax)
		}
		n, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{n: n}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	t, _ := p.peek()
	p.pos++
	switch t.kind {
	case tokLParen:
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		// An unclosed group ends with the query.
		if t, ok := p.peek(); ok && t.kind == tokRParen {
			p.pos++
		}
		return n, nil
	case tokWord:
		field, text := p.syn.field, t.text
		if i := strings.IndexByte(text, ':'); i > 0 {
			if f, ok := fieldNames[text[:i]]; ok {
				field, text = f, text[i+1:]
			}
		}
		if text == "" {
			return nil, fmt.Errorf("%w: empty term", errSyntax)
		}
		return wordNode{field: field, text: text}, nil
	case tokQuoted:
		return phraseNode{field: p.syn.field, text: t.text}, nil
	case tokRParen, tokAnd, tokOr, tokNot:
		return nil, fmt.Errorf("%w: unexpected operator", errSyntax)
	default:
		return nil, fmt.Errorf("%w: unexpected token", errSyntax)
	}
}

// compiler turns a parsed query into a bleve query. A nil query means the
// node matches no terms at all and is left out of its parent.
type compiler struct {
	s        *Searcher
	wildcard bool
}

func (c *compiler) compile(n node) (query.Query, error) {
	switch n := n.(type) {
	case andNode:
		var must, mustNot []query.Query
		for _, child := range n {
			if not, ok := child.(notNode); ok {
				q, err := c.compile(not.n)
				if err != nil {
					return nil, err
				}
				if q != nil {
					mustNot = append(mustNot, q)
				}
				continue
			}
			q, err := c.compile(child)
			if err != nil {
				return nil, err
			}
			if q != nil {
				must = append(must, q)
			}
		}
		if len(mustNot) == 0 {
			return conjunction(must), nil
		}
		bq := bleve.NewBooleanQuery()
		if len(must) > 0 {
			bq.AddMust(must...)
		}
		bq.AddMustNot(mustNot...)
		return bq, nil
	case orNode:
		var should []query.Query
		for _, child := range n {
			q, err := c.compile(child)
			if err != nil {
				return nil, err
			}
			if q != nil {
				should = append(should, q)
			}
		}
		return disjunction(should), nil
	case notNode:
		return c.compile(andNode{n})
	case wordNode:
		return c.word(n)
	case phraseNode:
		return c.phrase(n)
	default:
		return nil, fmt.Errorf("%w: unknown node %T", errSyntax, n)
	}
}

func (c *compiler) word(n wordNode) (query.Query, error) {
	if n.field != fieldContent {
		return termQuery(n.field, n.text), nil
	}
	if c.wildcard && strings.ContainsAny(n.text, "*?") {
		q := bleve.NewWildcardQuery(folding.TokenString(strings.ToLower(n.text)))
		q.SetField(fieldContent)
		return q, nil
	}
	var qs []query.Query
	for _, t := range c.s.analyze(n.text) {
		q, err := c.s.variationQuery(t)
		if err != nil {
			return nil, err
		}
		qs = append(qs, q)
	}
	return conjunction(qs), nil
}

func (c *compiler) phrase(n phraseNode) (query.Query, error) {
	if n.field != fieldContent {
		return termQuery(n.field, n.text), nil
	}
	terms := c.s.analyze(n.text)
	switch len(terms) {
	case 0:
		return nil, nil
	case 1:
		return termQuery(fieldContent, terms[0]), nil
	default:
		return bleve.NewPhraseQuery(terms, fieldContent), nil
	}
}

func termQuery(field, term string) query.Query {
	q := bleve.NewTermQuery(term)
	q.SetField(field)
	return q
}

func conjunction(qs []query.Query) query.Query {
	switch len(qs) {
	case 0:
		return nil
	case 1:
		return qs[0]
	default:
		return bleve.NewConjunctionQuery(qs...)
	}
}

func disjunction(qs []query.Query) query.Query {
	switch len(qs) {
	case 0:
		return nil
	case 1:
		return qs[0]
	default:
		return bleve.NewDisjunctionQuery(qs...)
	}
}

// wildcardOnly reports whether a keyword of q consists of wildcards only.
func wildcardOnly(q string) bool {
	for _, kw := range strings.Fields(q) {
		if strings.Trim(kw, "*?") == "" {
			return true
		}
	}
	return false
}
