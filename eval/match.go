package eval

import (
	"strconv"
	"strings"

	"rsc.io/binaryregexp"

	"github.com/migadu/sievecore/ast"
)

func canon(comparator ast.Comparator, s string) string {
	if comparator == ast.ComparatorAsciiCasemap {
		return strings.ToLower(s)
	}
	return s
}

// matchOne applies a single match type between one value and one
// pattern, per the comparator's string-equivalence rule (§4.4).
func matchOne(match ast.Match, comparator ast.Comparator, value, pattern string) bool {
	switch match {
	case ast.MatchIs:
		return canon(comparator, value) == canon(comparator, pattern)
	case ast.MatchContains:
		return strings.Contains(canon(comparator, value), canon(comparator, pattern))
	case ast.MatchMatches:
		return globMatch(canon(comparator, value), canon(comparator, pattern))
	case ast.MatchRegex:
		p := pattern
		if comparator == ast.ComparatorAsciiCasemap {
			p = "(?i)" + p
		}
		re, err := binaryregexp.Compile(p)
		if err != nil {
			return false
		}
		return re.MatchString(value)
	default:
		return false
	}
}

// globMatch implements Sieve's `:matches` wildcard grammar: `*`
// matches any run of characters (including none), `?` matches exactly
// one character. Both operands are assumed already comparator-folded.
func globMatch(s, pattern string) bool {
	return globMatchRunes([]rune(s), []rune(pattern))
}

func globMatchRunes(s, p []rune) bool {
	for len(p) > 0 {
		switch p[0] {
		case '*':
			// Collapse consecutive '*' and try every split point.
			for len(p) > 0 && p[0] == '*' {
				p = p[1:]
			}
			if len(p) == 0 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if globMatchRunes(s[i:], p) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
			s, p = s[1:], p[1:]
		default:
			if len(s) == 0 || s[0] != p[0] {
				return false
			}
			s, p = s[1:], p[1:]
		}
	}
	return len(s) == 0
}

func relHolds(rel ast.Relation, cmp int) bool {
	switch rel {
	case ast.RelGT:
		return cmp > 0
	case ast.RelGE:
		return cmp >= 0
	case ast.RelLT:
		return cmp < 0
	case ast.RelLE:
		return cmp <= 0
	case ast.RelEQ:
		return cmp == 0
	case ast.RelNE:
		return cmp != 0
	default:
		return false
	}
}

func relCompareInt(n int64, patStr string, rel ast.Relation) bool {
	pat, err := strconv.ParseInt(strings.TrimSpace(patStr), 10, 64)
	if err != nil {
		return false
	}
	cmp := 0
	switch {
	case n < pat:
		cmp = -1
	case n > pat:
		cmp = 1
	}
	return relHolds(rel, cmp)
}

func relCompareValue(comparator ast.Comparator, v, pat string, rel ast.Relation) bool {
	if comparator == ast.ComparatorAsciiNumeric {
		vn, err1 := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		pn, err2 := strconv.ParseInt(strings.TrimSpace(pat), 10, 64)
		if err1 != nil || err2 != nil {
			return false
		}
		cmp := 0
		switch {
		case vn < pn:
			cmp = -1
		case vn > pn:
			cmp = 1
		}
		return relHolds(rel, cmp)
	}
	return relHolds(rel, strings.Compare(canon(comparator, v), canon(comparator, pat)))
}

// matchList implements the full match-type dispatch shared by
// header/address/envelope/body tests (§4.4): `:count`/`:value` read
// the relation argument, everything else is a direct value/pattern
// comparison.
func matchList(match ast.Match, relation ast.Relation, comparator ast.Comparator, values, patterns []string) bool {
	switch match {
	case ast.MatchCount:
		n := int64(len(values))
		for _, pat := range patterns {
			if relCompareInt(n, pat, relation) {
				return true
			}
		}
		return false
	case ast.MatchValue:
		for _, v := range values {
			for _, pat := range patterns {
				if relCompareValue(comparator, v, pat, relation) {
					return true
				}
			}
		}
		return false
	default:
		for _, v := range values {
			for _, pat := range patterns {
				if matchOne(match, comparator, v, pat) {
					return true
				}
			}
		}
		return false
	}
}
