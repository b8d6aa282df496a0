package lexer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allTokens(t *testing.T, src string) []Token {
	t.Helper()
	l := New(strings.NewReader(src))
	var toks []Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks
		}
	}
}

func TestLexIdentifiersAndTags(t *testing.T) {
	toks := allTokens(t, `fileinto :copy "Junk";`)
	require.Len(t, toks, 5)
	assert.Equal(t, Identifier, toks[0].Kind)
	assert.Equal(t, "fileinto", toks[0].Text)
	assert.Equal(t, Tag, toks[1].Kind)
	assert.Equal(t, "copy", toks[1].Text)
	assert.Equal(t, String, toks[2].Kind)
	assert.Equal(t, "Junk", toks[2].Text)
	assert.Equal(t, Semicolon, toks[3].Kind)
}

func TestLexNumberSuffixes(t *testing.T) {
	cases := map[string]int64{
		"10":  10,
		"1K":  1024,
		"1k":  1024,
		"2M":  2 * 1024 * 1024,
		"1G":  1024 * 1024 * 1024,
	}
	for src, want := range cases {
		toks := allTokens(t, src)
		require.GreaterOrEqual(t, len(toks), 1)
		assert.Equal(t, Number, toks[0].Kind)
		assert.Equal(t, want, toks[0].Num, "src=%s", src)
	}
}

func TestLexSkipsLineAndBlockComments(t *testing.T) {
	toks := allTokens(t, "# a comment\nkeep; /* block\ncomment */ stop;")
	var idents []string
	for _, tok := range toks {
		if tok.Kind == Identifier {
			idents = append(idents, tok.Text)
		}
	}
	assert.Equal(t, []string{"keep", "stop"}, idents)
}

func TestLexMultilineLiteral(t *testing.T) {
	toks := allTokens(t, "{5}\r\nhello")
	require.GreaterOrEqual(t, len(toks), 1)
	assert.Equal(t, String, toks[0].Kind)
	assert.Equal(t, "hello", toks[0].Text)
}

func TestLexMultilineLiteralPreservesRawBinaryOctets(t *testing.T) {
	body := []byte{0xff, 0xfe, 'a', 0x00, 'b'}
	src := fmt.Sprintf("{%d}\r\n%s;", len(body), body)
	l := New(strings.NewReader(src))
	tok, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, String, tok.Kind)
	assert.Equal(t, body, []byte(tok.Text))
}

func TestLexQuotedStringEscapes(t *testing.T) {
	toks := allTokens(t, `"say \"hi\""`)
	require.GreaterOrEqual(t, len(toks), 1)
	assert.Equal(t, `say "hi"`, toks[0].Text)
}

func TestLexBareColonErrors(t *testing.T) {
	l := New(strings.NewReader(": bad"))
	_, err := l.Next()
	assert.Error(t, err)
}
