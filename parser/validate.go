package parser

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"rsc.io/binaryregexp"

	"github.com/migadu/sievecore/ast"
)

func validateUTF8(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("not valid UTF-8")
	}
	return nil
}

// validateRegex compiles a :regex pattern with the flags named in
// §4.2 (EXTENDED|NOSUB, plus ICASE under the case-insensitive
// comparator), using rsc.io/binaryregexp, a binary-safe regex engine
// suited to matching against raw, possibly non-UTF-8 header bytes.
func validateRegex(pattern string, caseInsensitive bool) error {
	p := pattern
	if caseInsensitive {
		p = "(?i)" + p
	}
	_, err := binaryregexp.Compile(p)
	if err != nil {
		return fmt.Errorf("regex compile failed: %w", err)
	}
	return nil
}

var headerNameRe = regexp.MustCompile(`^[\x21-\x39\x3b-\x7e]+$`) // ftext: printable ASCII excluding ':' and SP

func validateHeaderName(name string) error {
	if name == "" || !headerNameRe.MatchString(name) {
		return fmt.Errorf("invalid header name %q", name)
	}
	return nil
}

var systemFlags = map[string]bool{
	`\seen`: true, `\answered`: true, `\flagged`: true, `\draft`: true, `\deleted`: true,
}

func validateFlagKeyword(flag string) error {
	lower := strings.ToLower(flag)
	if strings.HasPrefix(flag, `\`) {
		if !systemFlags[lower] {
			return fmt.Errorf("unknown system flag %q", flag)
		}
		return nil
	}
	// IMAP atom: no control chars, no "(){%*\"\\" per RFC 3501 atom-specials.
	for _, r := range flag {
		if r <= 0x20 || strings.ContainsRune("(){%*\"\\]", r) {
			return fmt.Errorf("invalid flag atom %q", flag)
		}
	}
	if flag == "" {
		return fmt.Errorf("empty flag")
	}
	return nil
}

// validateAddress checks RFC 2822 addr-spec syntax for redirect
// targets and vacation :from/:addresses, accepting the full
// "Display Name <addr@host>" form via net/mail.
func validateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("empty address")
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if err := checkAddrSpec(parsed.Address); err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return nil
}

// validateMailbox checks that a fileinto target is valid UTF-8; actual
// transliteration to modified UTF-7, when configured, happens at
// compile time via the sieveutf7 package, not here.
func validateMailbox(name string) error {
	if name == "" {
		return fmt.Errorf("empty mailbox name")
	}
	return validateUTF8(name)
}

// canonicalComparator resolves RFC defaults: unset comparator defaults
// to i;ascii-casemap (§4.2).
func canonicalComparator(has bool, c ast.Comparator) ast.Comparator {
	if !has {
		return ast.ComparatorAsciiCasemap
	}
	return c
}
