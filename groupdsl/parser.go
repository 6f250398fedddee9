// Package groupdsl parses resource-group conditions and compiles them into
// SQL existence predicates over the enrichment view.
//
// The condition language is a small closed grammar over three resource
// attributes:
//
//	resource.type == 'DU'
//	resource.ranMarket.like('13*')
//	resource.Band == 'B41' || resource.Band == 'B25'
//
// Conditions are never evaluated against runtime data; they compile straight
// to a SQL predicate string.
package groupdsl

import (
	"fmt"
	"strings"
)

// MatchKind discriminates how an attribute constraint matches.
type MatchKind int

const (
	MatchEquals MatchKind = iota
	MatchLike
	MatchIn
)

// Match is one attribute constraint. Like patterns carry the SQL pattern
// with '*' already rewritten to '%'.
type Match struct {
	Kind   MatchKind
	Values []string
}

// Condition is the typed AST of a parsed group condition. Attributes absent
// from the source condition are nil and simply omitted from the generated
// predicate.
type Condition struct {
	Type   string // resource.type value, lowercased; empty when absent
	Market *Match // resource.ranMarket constraint
	Band   *Match // resource.Band constraint
}

// attribute whitelist; clauses over anything else are ignored
const (
	attrType   = "type"
	attrMarket = "ranmarket"
	attrBand   = "band"
)

// clause is one parsed `resource.<attr> ...` term before aggregation.
type clause struct {
	attr  string
	like  bool
	value string
}

// Parser parses group condition strings into a Condition AST.
type Parser struct {
	lexer *Lexer
	cur   Token
	peek  Token
}

// NewParser creates a parser over the given condition string.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) expect(t TokenType) error {
	if p.cur.Type != t {
		return fmt.Errorf("unexpected token %q at position %d", p.cur.Literal, p.cur.Pos)
	}
	p.next()
	return nil
}

// Parse parses a full condition string into its typed AST.
func Parse(condition string) (*Condition, error) {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return &Condition{}, nil
	}

	p := NewParser(condition)
	var clauses []clause
	for {
		c, err := p.parseClause()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c)

		if p.cur.Type == TOKEN_OR || p.cur.Type == TOKEN_AND {
			p.next()
			continue
		}
		if p.cur.Type == TOKEN_EOF {
			break
		}
		return nil, fmt.Errorf("unexpected token %q at position %d", p.cur.Literal, p.cur.Pos)
	}

	return aggregate(clauses), nil
}

// parseClause parses one `resource.<attr> == 'v'` or
// `resource.<attr>.like('pat')` term.
func (p *Parser) parseClause() (clause, error) {
	var c clause

	if p.cur.Type != TOKEN_IDENT || !strings.EqualFold(p.cur.Literal, "resource") {
		return c, fmt.Errorf("expected 'resource' at position %d, got %q", p.cur.Pos, p.cur.Literal)
	}
	p.next()

	if err := p.expect(TOKEN_DOT); err != nil {
		return c, err
	}
	if p.cur.Type != TOKEN_IDENT {
		return c, fmt.Errorf("expected attribute name at position %d", p.cur.Pos)
	}
	c.attr = strings.ToLower(p.cur.Literal)
	p.next()

	switch p.cur.Type {
	case TOKEN_EQ:
		p.next()
		if p.cur.Type != TOKEN_STRING {
			return c, fmt.Errorf("expected string literal at position %d", p.cur.Pos)
		}
		c.value = p.cur.Literal
		p.next()
	case TOKEN_DOT:
		p.next()
		if p.cur.Type != TOKEN_IDENT || !strings.EqualFold(p.cur.Literal, "like") {
			return c, fmt.Errorf("expected 'like' at position %d", p.cur.Pos)
		}
		p.next()
		if err := p.expect(TOKEN_LPAREN); err != nil {
			return c, err
		}
		if p.cur.Type != TOKEN_STRING {
			return c, fmt.Errorf("expected string literal at position %d", p.cur.Pos)
		}
		c.like = true
		// glob '*' becomes the SQL wildcard
		c.value = strings.ReplaceAll(p.cur.Literal, "*", "%")
		p.next()
		if err := p.expect(TOKEN_RPAREN); err != nil {
			return c, err
		}
	default:
		return c, fmt.Errorf("expected '==' or '.like' at position %d", p.cur.Pos)
	}

	return c, nil
}

// aggregate folds parsed clauses into the per-attribute AST. A like pattern
// wins over equalities for the same attribute; multiple equalities collapse
// into an in-list. Clauses over unknown attributes are dropped.
func aggregate(clauses []clause) *Condition {
	cond := &Condition{}
	var marketEq, bandEq []string

	for _, c := range clauses {
		switch c.attr {
		case attrType:
			if cond.Type == "" {
				cond.Type = strings.ToLower(c.value)
			}
		case attrMarket:
			if c.like {
				cond.Market = &Match{Kind: MatchLike, Values: []string{c.value}}
			} else if cond.Market == nil || cond.Market.Kind != MatchLike {
				marketEq = append(marketEq, c.value)
			}
		case attrBand:
			if c.like {
				cond.Band = &Match{Kind: MatchLike, Values: []string{c.value}}
			} else if cond.Band == nil || cond.Band.Kind != MatchLike {
				bandEq = append(bandEq, c.value)
			}
		}
	}

	if cond.Market == nil && len(marketEq) > 0 {
		cond.Market = equalityMatch(marketEq)
	}
	if cond.Band == nil && len(bandEq) > 0 {
		cond.Band = equalityMatch(bandEq)
	}
	return cond
}

func equalityMatch(values []string) *Match {
	if len(values) > 1 {
		return &Match{Kind: MatchIn, Values: values}
	}
	return &Match{Kind: MatchEquals, Values: values}
}

// ResolvedType returns the enrichment-view type the condition targets.
// Sector rows live under DU in the enrichment view, so sector resolves to du.
func (c *Condition) ResolvedType() string {
	if strings.EqualFold(c.Type, "sector") {
		return "du"
	}
	return strings.ToLower(c.Type)
}
