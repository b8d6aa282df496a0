// Package sieve is the top-level facade over lexer/ast/parser/bytecode/
// eval: compile a script once, then run it against any number of
// messages through an injected eval.Host, rather than wrapping a
// third-party Sieve evaluation library.
package sieve

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/migadu/sievecore/bytecode"
	"github.com/migadu/sievecore/consts"
	"github.com/migadu/sievecore/eval"
	"github.com/migadu/sievecore/parser"
)

// Interpreter compiles and runs Sieve scripts under one configuration.
// The zero value is not usable; build one with New.
type Interpreter struct {
	cfg     InterpreterConfig
	metrics *Metrics
}

// Option configures an Interpreter at construction.
type Option func(*Interpreter)

// WithMetrics attaches a Metrics set the Interpreter increments on
// every Compile/Evaluate call.
func WithMetrics(m *Metrics) Option {
	return func(i *Interpreter) { i.metrics = m }
}

// New builds an Interpreter from a validated InterpreterConfig.
func New(cfg InterpreterConfig, opts ...Option) (*Interpreter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	i := &Interpreter{cfg: cfg}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Script is a compiled script, holding the bytecode plus the
// include cache its evaluations will share (§4.3's inode-keyed cache).
type Script struct {
	bc       *bytecode.Bytecode
	includes *bytecode.IncludeCache
}

// Bytecode exposes the compiled buffer, e.g. to persist or to feed
// DumpBytecode.
func (s *Script) Bytecode() *bytecode.Bytecode { return s.bc }

// ParseErrors collects every per-line diagnostic a parse run reported
// through its ErrorSink, in source order.
type ParseErrors []string

func (pe ParseErrors) Error() string { return strings.Join(pe, "; ") }

// Compile parses and lowers a script to bytecode in one step. Parse
// errors are collected (not just the first) and returned as a
// ParseErrors wrapped by consts.ErrParseError; on any parse error the
// script is not compiled at all.
func (i *Interpreter) Compile(r io.Reader) (*Script, error) {
	rl := newRunLog("parse")
	var issues ParseErrors
	script, err := parseScript(r, &issues, parser.Options{
		VacationMinDays:               i.cfg.Vacation.MinResponseDays,
		VacationMaxDays:               i.cfg.Vacation.MaxResponseDays,
		AdvertisedExtensions:          i.cfg.Extensions.Advertise,
		RegexCaseInsensitiveByDefault: i.cfg.Regex.CaseInsensitiveByDefault,
	})
	if err != nil {
		i.countCompileFailure()
		rl.Logf("%v", err)
		if len(issues) > 0 {
			return nil, fmt.Errorf("%w: %w", consts.ErrParseError, issues)
		}
		return nil, err
	}

	rl.phase = "compile"
	bc, err := bytecode.CompileWithOptions(script, bytecode.CompileOptions{
		TransliterateMailboxNames: i.cfg.Mailbox.TransliterateNames,
	})
	if err != nil {
		i.countCompileFailure()
		rl.Logf("%v", err)
		return nil, err
	}

	if i.metrics != nil {
		i.metrics.Compiles.Inc()
	}
	return &Script{bc: bc, includes: bytecode.NewIncludeCache()}, nil
}

// Evaluate runs a compiled script's bytecode against one message,
// through host, and returns the decision. It does not apply effects;
// call Apply (or eval.Apply directly) on the outcome to do that.
func (i *Interpreter) Evaluate(ctx context.Context, script *Script, host eval.Host) (*eval.Outcome, error) {
	out, err := eval.Evaluate(ctx, script.bc, host, script.includes)
	if i.metrics != nil {
		i.metrics.Evaluations.Inc()
		if out != nil && out.RunErr != nil {
			i.metrics.RunErrors.Inc()
		}
	}
	if err != nil {
		newRunLog("eval").Logf("%v", err)
		return nil, err
	}
	return out, nil
}

// Apply runs the effect-application pass for an evaluation outcome,
// returning the actions_string diagnostic (§6).
func (i *Interpreter) Apply(ctx context.Context, host eval.Host, outcome *eval.Outcome) string {
	return eval.Apply(ctx, host, outcome)
}

// EvaluateAll runs one evaluation per job concurrently against
// script's shared bytecode buffer (§5's concurrency model).
func (i *Interpreter) EvaluateAll(ctx context.Context, script *Script, jobs []eval.Job) ([]*eval.Outcome, error) {
	return eval.EvaluateAll(ctx, script.bc, jobs)
}

func (i *Interpreter) countCompileFailure() {
	if i.metrics != nil {
		i.metrics.CompileFails.Inc()
	}
}
