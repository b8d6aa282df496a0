package parser

import (
	"github.com/migadu/sievecore/ast"
	"github.com/migadu/sievecore/lexer"
)

// parseTest parses one test node. Callers are responsible for
// recovering from parseAbort.
func (p *Parser) parseTest() ast.Test {
	line := p.tok.Line
	name := p.expectIdent()

	switch name {
	case "true":
		return ast.True{base: ast.NewBase(line)}
	case "false":
		return ast.False{base: ast.NewBase(line)}
	case "not":
		p.expect(lexer.LParen)
		sub := p.parseTest()
		p.expect(lexer.RParen)
		return ast.Not{base: ast.NewBase(line), Sub: sub}
	case "allof":
		return ast.AllOf{base: ast.NewBase(line), Tests: p.parseTestList()}
	case "anyof":
		return ast.AnyOf{base: ast.NewBase(line), Tests: p.parseTestList()}
	case "exists":
		headers := p.parseStringListArg()
		for _, h := range headers {
			if err := validateHeaderName(h); err != nil {
				p.errorf(line, "exists: %v", err)
			}
		}
		return ast.Exists{base: ast.NewBase(line), Headers: headers}
	case "size":
		ts := p.parseTags()
		if !ts.hasSizeOp {
			p.errorf(line, "size: missing :over or :under tag")
		}
		n := p.parseNumber()
		return ast.Size{base: ast.NewBase(line), Op: ts.sizeOp, N: n}
	case "header":
		return p.parseHeaderLike(line, false)
	case "address":
		return p.parseAddressLike(line, false)
	case "envelope":
		p.needExtension(line, "envelope", "envelope")
		return p.parseAddressLike(line, true)
	case "body":
		p.needExtension(line, "body", "body")
		return p.parseBodyTest(line)
	default:
		p.errorf(line, "unknown test %q", name)
		panic(parseAbort{})
	}
}

func (p *Parser) parseTestList() []ast.Test {
	p.expect(lexer.LParen)
	var out []ast.Test
	if p.tok.Kind != lexer.RParen {
		out = append(out, p.parseTest())
		for p.tok.Kind == lexer.Comma {
			p.advance()
			out = append(out, p.parseTest())
		}
	}
	p.expect(lexer.RParen)
	return out
}

func (p *Parser) parseHeaderLike(line int, _ bool) ast.Header {
	ts := p.parseTags()
	headers := p.parseStringListArg()
	patterns := p.parseStringListArg()
	for _, h := range headers {
		if err := validateHeaderName(h); err != nil {
			p.errorf(line, "header: %v", err)
		}
	}
	p.checkMatchTagRequirement(line, ts)
	p.validatePatterns(line, ts, patterns)

	match := ast.MatchIs
	if ts.hasMatch {
		match = ts.match
	}
	return ast.Header{
		base:       ast.NewBase(line),
		Match:      match,
		Relation:   ts.relation,
		Comparator: canonicalComparator(ts.hasComparator, ts.comparator),
		Headers:    headers,
		Patterns:   patterns,
	}
}

func (p *Parser) parseAddressLike(line int, envelope bool) ast.Test {
	ts := p.parseTags()
	var headers []string
	if envelope {
		headers = p.parseStringListArg()
		for _, f := range headers {
			if f != "from" && f != "to" && f != "auth" {
				p.errorf(line, "envelope: %q is not-valid-for-envelope", f)
			}
		}
	} else {
		headers = p.parseStringListArg()
	}
	patterns := p.parseStringListArg()
	p.checkMatchTagRequirement(line, ts)
	p.validatePatterns(line, ts, patterns)

	match := ast.MatchIs
	if ts.hasMatch {
		match = ts.match
	}
	part := ast.AddrAll
	if ts.hasPart {
		part = ts.part
	}
	comparator := canonicalComparator(ts.hasComparator, ts.comparator)

	if envelope {
		return ast.Envelope{
			base: ast.NewBase(line), Match: match, Relation: ts.relation,
			Comparator: comparator, Part: part, Fields: headers, Patterns: patterns,
		}
	}
	return ast.Address{
		base: ast.NewBase(line), Match: match, Relation: ts.relation,
		Comparator: comparator, Part: part, Headers: headers, Patterns: patterns,
	}
}

func (p *Parser) parseBodyTest(line int) ast.Body {
	ts := p.parseTags()
	patterns := p.parseStringListArg()
	p.checkMatchTagRequirement(line, ts)
	p.validatePatterns(line, ts, patterns)

	match := ast.MatchIs
	if ts.hasMatch {
		match = ts.match
	}
	transform := ast.TransformText
	var types []string
	if ts.hasTransform {
		transform = ts.transform
		types = ts.contentTypes
	}
	return ast.Body{
		base: ast.NewBase(line), Match: match, Relation: ts.relation,
		Comparator: canonicalComparator(ts.hasComparator, ts.comparator),
		Transform:  transform, ContentTypes: types, Patterns: patterns,
	}
}

func (p *Parser) checkMatchTagRequirement(line int, ts *tagSet) {
	if ts.hasMatch && (ts.match == ast.MatchCount || ts.match == ast.MatchValue) {
		p.needExtension(line, "relational", ":count/:value")
	}
}

func (p *Parser) validatePatterns(line int, ts *tagSet, patterns []string) {
	if !ts.hasMatch || ts.match != ast.MatchRegex {
		return
	}
	p.needExtension(line, "regex", ":regex")
	caseInsensitive := canonicalComparator(ts.hasComparator, ts.comparator) == ast.ComparatorAsciiCasemap
	if !ts.hasComparator && p.opts.RegexCaseInsensitiveByDefault {
		caseInsensitive = true
	}
	for _, pat := range patterns {
		if err := validateRegex(pat, caseInsensitive); err != nil {
			p.errorf(line, "regex pattern %q: %v", pat, err)
		}
	}
}
