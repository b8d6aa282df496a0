// Package parser turns a token stream from lexer into an ast.Script,
// validating require declarations, tag combinations, and the
// extension-gating invariant (§4.2): a construct gated by an
// extension may only be used once that extension has been required.
package parser

import (
	"fmt"
	"io"

	"github.com/migadu/sievecore/ast"
	"github.com/migadu/sievecore/consts"
	"github.com/migadu/sievecore/lexer"
)

// ErrorSink is the per-line parse-error callback (§4.1).
type ErrorSink func(line int, msg string)

type parseIssue struct {
	line int
	msg  string
}

// parseAbort unwinds to the nearest recovery point (the statement or
// test boundary) after a single syntax error, so the parser can keep
// accumulating further diagnostics instead of stopping at the first one.
type parseAbort struct{}

type Parser struct {
	lex     *lexer.Lexer
	tok     lexer.Token
	onError ErrorSink
	issues  []parseIssue
	require map[string]bool
	sawCmd  bool // true once the first non-require command has been seen
	opts    Options
}

// Options configures parser behavior that comes from the interpreter's
// runtime configuration rather than the script text itself, mirroring
// how bytecode.CompileOptions carries lowering choices a script can't
// express on its own.
type Options struct {
	// VacationMinDays/VacationMaxDays clamp a vacation :days value to
	// the host's configured range (§4.2). Zero means use the package
	// defaults (consts.VacationMinDays/VacationMaxDays).
	VacationMinDays int64
	VacationMaxDays int64

	// AdvertisedExtensions restricts which names a require directive
	// may successfully request. Nil means every extension this
	// interpreter knows how to parse (consts.SupportedExtensions).
	AdvertisedExtensions []string

	// RegexCaseInsensitiveByDefault forces ICASE on a :regex test
	// whose :comparator tag was not given explicitly, on top of the
	// comparator-driven flag validateRegex already computes.
	RegexCaseInsensitiveByDefault bool
}

func (o Options) withDefaults() Options {
	if o.VacationMinDays <= 0 {
		o.VacationMinDays = consts.VacationMinDays
	}
	if o.VacationMaxDays <= 0 {
		o.VacationMaxDays = consts.VacationMaxDays
	}
	if o.AdvertisedExtensions == nil {
		o.AdvertisedExtensions = consts.SupportedExtensions
	}
	return o
}

// Parse lexes and parses a full script under the package's default
// Options, enforcing every invariant named in §3/§4.2. On any
// accumulated error it returns a nil script and a wrapped
// consts.ErrParseError.
func Parse(r io.Reader, onError ErrorSink) (*ast.Script, error) {
	return ParseWithOptions(r, onError, Options{})
}

// ParseWithOptions is Parse with the vacation clamp, advertised
// extension set, and regex case default taken from opts instead of
// the package defaults, so a configured interpreter's bounds reach
// the constructs they gate.
func ParseWithOptions(r io.Reader, onError ErrorSink, opts Options) (*ast.Script, error) {
	p := &Parser{
		lex:     lexer.New(r),
		onError: onError,
		require: map[string]bool{},
		opts:    opts.withDefaults(),
	}
	p.advance()

	script := &ast.Script{}
	p.parseRequireBlock(script)
	p.parseCommandList(script, &script.Commands, true)

	if len(p.issues) > 0 {
		msg := p.issues[0].msg
		return nil, fmt.Errorf("%w: %s (and %d more)", consts.ErrParseError, msg, len(p.issues)-1)
	}
	return script, nil
}

func (p *Parser) advance() {
	tok, err := p.lex.Next()
	if err != nil {
		p.errorf(p.tok.Line, "lex error: %v", err)
		p.tok = lexer.Token{Kind: lexer.EOF, Line: p.tok.Line}
		return
	}
	p.tok = tok
}

func (p *Parser) errorf(line int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.issues = append(p.issues, parseIssue{line: line, msg: msg})
	if p.onError != nil {
		p.onError(line, msg)
	}
}

// expect consumes the current token if it matches kind, else records
// an error and panics parseAbort to resync at the caller's recovery point.
func (p *Parser) expect(k lexer.Kind) lexer.Token {
	if p.tok.Kind != k {
		p.errorf(p.tok.Line, "expected %s, found %s", k, p.tok.Kind)
		panic(parseAbort{})
	}
	t := p.tok
	p.advance()
	return t
}

func (p *Parser) expectIdent() string {
	t := p.expect(lexer.Identifier)
	return t.Text
}

func (p *Parser) atIdent(name string) bool {
	return p.tok.Kind == lexer.Identifier && p.tok.Text == name
}

func (p *Parser) atTag(name string) bool {
	return p.tok.Kind == lexer.Tag && p.tok.Text == name
}

// recoverTo consumes tokens up to and including the next ';' or '}'
// (whichever comes first, honoring nested braces), used after a
// parseAbort to resynchronize.
func (p *Parser) recoverTo() {
	depth := 0
	for {
		switch p.tok.Kind {
		case lexer.EOF:
			return
		case lexer.LBrace:
			depth++
		case lexer.RBrace:
			if depth == 0 {
				p.advance()
				return
			}
			depth--
		case lexer.Semicolon:
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

// --- require ---

func (p *Parser) parseRequireBlock(script *ast.Script) {
	for p.atIdent("require") {
		p.parseOneRequire(script)
	}
}

func (p *Parser) parseOneRequire(script *ast.Script) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseAbort); ok {
				p.recoverTo()
				return
			}
			panic(r)
		}
	}()

	line := p.tok.Line
	p.advance() // "require"
	names := p.parseStringListArg()
	p.expect(lexer.Semicolon)

	var unsupported []string
	for _, n := range names {
		supported := false
		for _, s := range p.opts.AdvertisedExtensions {
			if s == n {
				supported = true
				break
			}
		}
		if !supported {
			unsupported = append(unsupported, n)
			continue
		}
		p.require[n] = true
		script.Require = append(script.Require, n)
	}
	if len(unsupported) > 0 {
		p.errorf(line, "%v: unsupported extension(s) required: %v", consts.ErrUnsupportedExtension, unsupported)
	}
}

// needExtension enforces invariant 2: any construct gated by an
// extension that was not successfully required is a parse error.
func (p *Parser) needExtension(line int, name, what string) {
	if !p.require[name] {
		p.errorf(line, "%s requires \"require [%q]\" which is missing", what, name)
	}
}

// --- string / stringlist literals ---

func (p *Parser) parseString() string {
	t := p.expect(lexer.String)
	if err := validateUTF8(t.Text); err != nil {
		p.errorf(t.Line, "invalid UTF-8 in string: %v", err)
	}
	return t.Text
}

// parseStringListArg parses either a string list or a single bare
// string, both valid anywhere a string-list argument is expected in
// this grammar. The lexer gives '[' and ']' the same tokens as '(' and
// ')', so RFC 3028's `["a", "b"]` and `("a", "b")` are both read as a
// list; a mismatched pair such as `("a"]` is not rejected.
func (p *Parser) parseStringListArg() []string {
	if p.tok.Kind == lexer.LParen {
		return p.parseParenStringList()
	}
	return []string{p.parseString()}
}

func (p *Parser) parseParenStringList() []string {
	p.expect(lexer.LParen)
	var out []string
	if p.tok.Kind != lexer.RParen {
		out = append(out, p.parseString())
		for p.tok.Kind == lexer.Comma {
			p.advance()
			out = append(out, p.parseString())
		}
	}
	p.expect(lexer.RParen)
	return out
}

func (p *Parser) parseNumber() int64 {
	t := p.expect(lexer.Number)
	return t.Num
}
