package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/migadu/sievecore/ast"
)

func TestMatchOneIsCaseInsensitiveByDefault(t *testing.T) {
	assert.True(t, matchOne(ast.MatchIs, ast.ComparatorAsciiCasemap, "Hello", "hello"))
	assert.False(t, matchOne(ast.MatchIs, ast.ComparatorOctet, "Hello", "hello"))
}

func TestMatchOneContains(t *testing.T) {
	assert.True(t, matchOne(ast.MatchContains, ast.ComparatorAsciiCasemap, "the quick FOX", "fox"))
}

func TestGlobMatchWildcards(t *testing.T) {
	assert.True(t, matchOne(ast.MatchMatches, ast.ComparatorOctet, "report-2026-07.csv", "report-*.csv"))
	assert.True(t, matchOne(ast.MatchMatches, ast.ComparatorOctet, "ab", "a?"))
	assert.False(t, matchOne(ast.MatchMatches, ast.ComparatorOctet, "abc", "a?"))
}

func TestMatchOneRegex(t *testing.T) {
	assert.True(t, matchOne(ast.MatchRegex, ast.ComparatorAsciiCasemap, "Invoice #42", `invoice #\d+`))
}

func TestMatchListCountRelation(t *testing.T) {
	values := []string{"a", "b", "c"}
	assert.True(t, matchList(ast.MatchCount, ast.RelEQ, ast.ComparatorAsciiCasemap, values, []string{"3"}))
	assert.False(t, matchList(ast.MatchCount, ast.RelGT, ast.ComparatorAsciiCasemap, values, []string{"3"}))
}

func TestMatchListValueNumeric(t *testing.T) {
	values := []string{"42"}
	assert.True(t, matchList(ast.MatchValue, ast.RelGT, ast.ComparatorAsciiNumeric, values, []string{"10"}))
	assert.False(t, matchList(ast.MatchValue, ast.RelLT, ast.ComparatorAsciiNumeric, values, []string{"10"}))
}
