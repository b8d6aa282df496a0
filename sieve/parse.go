package sieve

import (
	"fmt"
	"io"

	"github.com/migadu/sievecore/ast"
	"github.com/migadu/sievecore/parser"
)

// parseScript adapts parser.ParseWithOptions's per-line ErrorSink into
// a ParseErrors accumulator, so Interpreter.Compile can report every
// diagnostic the parser found, not just the first.
func parseScript(r io.Reader, issues *ParseErrors, opts parser.Options) (*ast.Script, error) {
	onError := func(line int, msg string) {
		if line <= 0 {
			*issues = append(*issues, msg)
			return
		}
		*issues = append(*issues, fmt.Sprintf("line %d: %s", line, msg))
	}
	return parser.ParseWithOptions(r, onError, opts)
}
