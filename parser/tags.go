package parser

import (
	"github.com/migadu/sievecore/ast"
	"github.com/migadu/sievecore/consts"
	"github.com/migadu/sievecore/lexer"
)

// tagSet accumulates the tagged arguments seen before a construct's
// positional arguments. Sieve requires a canonicalisation pass after
// the tag list is consumed: unset optional tags are filled with their
// RFC defaults (§4.2).
type tagSet struct {
	hasMatch      bool
	match         ast.Match
	relation      ast.Relation
	hasComparator bool
	comparator    ast.Comparator
	hasPart       bool
	part          ast.AddressPart
	hasSizeOp     bool
	sizeOp        ast.SizeOp
	hasTransform  bool
	transform     ast.Transform
	contentTypes  []string
	copy          bool
	mime          bool
	hasPriority   bool
	priority      ast.Priority
	hasLocation   bool
	location      ast.IncludeLocation
	flags         []string
	hasFlags      bool
	id            string
	hasID         bool
	days          int64
	hasDays       bool
	subject       string
	hasSubject    bool
	from          string
	hasFrom       bool
	addresses     []string
	hasAddresses  bool
	handle        string
	hasHandle     bool
	method        string
	hasMethod     bool
	options       []string
	hasOptions    bool
}

// duplicate-tag tracking: a category is only settable once (§4.2:
// "Duplicate tags of the same category are a parse error").
type tagCategory int

const (
	catMatch tagCategory = iota
	catComparator
	catPart
	catTransform
	catPriority
	catLocation
	catFlags
	catSizeOp
	catID
	catDays
	catSubject
	catFrom
	catAddresses
	catHandle
	catMethod
	catOptions
	catCopy
	catMime
)

// parseTags consumes tags while the current token is a Tag whose name
// is recognized, returning the accumulated set. seen guards against
// duplicate categories.
func (p *Parser) parseTags() *tagSet {
	ts := &tagSet{}
	seen := map[tagCategory]bool{}
	dup := func(line int, cat tagCategory, name string) bool {
		if seen[cat] {
			p.errorf(line, "duplicate tag in %q category", name)
			return true
		}
		seen[cat] = true
		return false
	}

	for p.tok.Kind == lexer.Tag {
		line := p.tok.Line
		name := p.tok.Text
		switch name {
		case "is":
			if !dup(line, catMatch, name) {
				ts.hasMatch, ts.match = true, ast.MatchIs
			}
			p.advance()
		case "contains":
			if !dup(line, catMatch, name) {
				ts.hasMatch, ts.match = true, ast.MatchContains
			}
			p.advance()
		case "matches":
			if !dup(line, catMatch, name) {
				ts.hasMatch, ts.match = true, ast.MatchMatches
			}
			p.advance()
		case "regex":
			if !dup(line, catMatch, name) {
				ts.hasMatch, ts.match = true, ast.MatchRegex
			}
			p.advance()
		case "count":
			if !dup(line, catMatch, name) {
				ts.hasMatch, ts.match = true, ast.MatchCount
			}
			p.advance()
			ts.relation = p.parseRelationString()
		case "value":
			if !dup(line, catMatch, name) {
				ts.hasMatch, ts.match = true, ast.MatchValue
			}
			p.advance()
			ts.relation = p.parseRelationString()
		case "comparator":
			p.advance()
			str := p.parseString()
			if !dup(line, catComparator, name) {
				ts.hasComparator, ts.comparator = true, parseComparatorName(str)
			}
			if str == consts.ExtAsciiNumeric {
				p.needExtension(line, consts.ExtAsciiNumeric, ":comparator")
			}
		case "all":
			if !dup(line, catPart, name) {
				ts.hasPart, ts.part = true, ast.AddrAll
			}
			p.advance()
		case "localpart":
			if !dup(line, catPart, name) {
				ts.hasPart, ts.part = true, ast.AddrLocalpart
			}
			p.advance()
		case "domain":
			if !dup(line, catPart, name) {
				ts.hasPart, ts.part = true, ast.AddrDomain
			}
			p.advance()
		case "user":
			if !dup(line, catPart, name) {
				ts.hasPart, ts.part = true, ast.AddrUser
			}
			p.advance()
			p.needExtension(line, "subaddress", ":user")
		case "detail":
			if !dup(line, catPart, name) {
				ts.hasPart, ts.part = true, ast.AddrDetail
			}
			p.advance()
			p.needExtension(line, "subaddress", ":detail")
		case "raw":
			if !dup(line, catTransform, name) {
				ts.hasTransform, ts.transform = true, ast.TransformRaw
			}
			p.advance()
		case "text":
			if !dup(line, catTransform, name) {
				ts.hasTransform, ts.transform = true, ast.TransformText
			}
			p.advance()
		case "content":
			p.advance()
			types := p.parseStringListArg()
			if !dup(line, catTransform, name) {
				ts.hasTransform, ts.transform = true, ast.TransformContent
				ts.contentTypes = types
			}
		case "over":
			if !dup(line, catSizeOp, name) {
				ts.hasSizeOp, ts.sizeOp = true, ast.SizeOver
			}
			p.advance()
		case "under":
			if !dup(line, catSizeOp, name) {
				ts.hasSizeOp, ts.sizeOp = true, ast.SizeUnder
			}
			p.advance()
		case "copy":
			dup(line, catCopy, name)
			ts.copy = true
			p.advance()
			p.needExtension(line, "copy", ":copy")
		case "mime":
			dup(line, catMime, name)
			ts.mime = true
			p.advance()
		case "low":
			if !dup(line, catPriority, name) {
				ts.hasPriority, ts.priority = true, ast.PriorityLow
			}
			p.advance()
		case "normal":
			if !dup(line, catPriority, name) {
				ts.hasPriority, ts.priority = true, ast.PriorityNormal
			}
			p.advance()
		case "high":
			if !dup(line, catPriority, name) {
				ts.hasPriority, ts.priority = true, ast.PriorityHigh
			}
			p.advance()
		case "any":
			if !dup(line, catPriority, name) {
				ts.hasPriority, ts.priority = true, ast.PriorityAny
			}
			p.advance()
		case "personal":
			if !dup(line, catLocation, name) {
				ts.hasLocation, ts.location = true, ast.IncludePersonal
			}
			p.advance()
		case "global":
			if !dup(line, catLocation, name) {
				ts.hasLocation, ts.location = true, ast.IncludeGlobal
			}
			p.advance()
		case "flags":
			p.advance()
			flags := p.parseStringListArg()
			if !dup(line, catFlags, name) {
				ts.hasFlags, ts.flags = true, flags
			}
			p.needExtension(line, "imapflags", ":flags")
		case "id":
			p.advance()
			s := p.parseString()
			if !dup(line, catID, name) {
				ts.hasID, ts.id = true, s
			}
		case "days":
			p.advance()
			n := p.parseNumber()
			if !dup(line, catDays, name) {
				ts.hasDays, ts.days = true, n
			}
		case "subject":
			p.advance()
			s := p.parseString()
			if !dup(line, catSubject, name) {
				ts.hasSubject, ts.subject = true, s
			}
		case "from":
			p.advance()
			s := p.parseString()
			if !dup(line, catFrom, name) {
				ts.hasFrom, ts.from = true, s
			}
		case "addresses":
			p.advance()
			lst := p.parseStringListArg()
			if !dup(line, catAddresses, name) {
				ts.hasAddresses, ts.addresses = true, lst
			}
		case "handle":
			p.advance()
			s := p.parseString()
			if !dup(line, catHandle, name) {
				ts.hasHandle, ts.handle = true, s
			}
		case "method":
			p.advance()
			s := p.parseString()
			if !dup(line, catMethod, name) {
				ts.hasMethod, ts.method = true, s
			}
		case "options":
			p.advance()
			lst := p.parseStringListArg()
			if !dup(line, catOptions, name) {
				ts.hasOptions, ts.options = true, lst
			}
		default:
			p.errorf(line, "unknown tag %q", name)
			p.advance()
		}
	}
	return ts
}

func (p *Parser) parseRelationString() ast.Relation {
	t := p.expect(lexer.String)
	switch t.Text {
	case "gt":
		return ast.RelGT
	case "ge":
		return ast.RelGE
	case "lt":
		return ast.RelLT
	case "le":
		return ast.RelLE
	case "eq":
		return ast.RelEQ
	case "ne":
		return ast.RelNE
	default:
		p.errorf(t.Line, "invalid relational operator %q", t.Text)
		return ast.RelEQ
	}
}

func parseComparatorName(name string) ast.Comparator {
	switch name {
	case "i;octet":
		return ast.ComparatorOctet
	case "i;ascii-numeric":
		return ast.ComparatorAsciiNumeric
	default:
		return ast.ComparatorAsciiCasemap
	}
}
