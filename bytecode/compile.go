package bytecode

import (
	"encoding/binary"
	"fmt"

	"github.com/migadu/sievecore/ast"
	"github.com/migadu/sievecore/consts"
	"github.com/migadu/sievecore/sieveutf7"
)

// emitter accumulates the serialized byte stream directly in its final
// coordinate space: every reserved jump-field cell is back-patched
// with a byte offset measured from the start of the stream (header
// included), so no separate index-to-offset conversion pass is needed
// (§4.3's two passes collapse into "reserve, emit children, patch").
type emitter struct {
	buf           []byte
	transliterate bool
}

func newEmitter(transliterate bool) *emitter {
	e := &emitter{buf: make([]byte, 0, 256), transliterate: transliterate}
	e.emitCell(int32(consts.BytecodeVersion))
	return e
}

// mailboxName applies modified-UTF-7 transliteration to a fileinto
// target when the interpreter is configured to do so. sieveutf7.Encode
// has no failure path, so the encoded name is always what is emitted;
// the host still applies whatever mailbox-naming rules it enforces at
// FileInto time.
func (e *emitter) mailboxName(name string) string {
	if !e.transliterate {
		return name
	}
	return sieveutf7.Encode(name)
}

func (e *emitter) pos() int32 { return int32(len(e.buf)) }

func (e *emitter) emitCell(v int32) int32 {
	at := e.pos()
	var b [cellBytes]byte
	binary.NativeEndian.PutUint32(b[:], uint32(v))
	e.buf = append(e.buf, b[:]...)
	return at
}

func (e *emitter) reserve() int32 { return e.emitCell(0) }

func (e *emitter) patch(at int32, v int32) {
	binary.NativeEndian.PutUint32(e.buf[at:at+cellBytes], uint32(v))
}

func (e *emitter) patchHere(at int32) { e.patch(at, e.pos()) }

func (e *emitter) emitOp(op Op) { e.emitCell(int32(op)) }

func (e *emitter) emitBool(v bool) {
	if v {
		e.emitCell(1)
	} else {
		e.emitCell(0)
	}
}

func (e *emitter) emitString(s string) {
	e.emitCell(int32(len(s)))
	b := append([]byte(s), 0)
	for len(b)%cellBytes != 0 {
		b = append(b, 0)
	}
	e.buf = append(e.buf, b...)
}

func (e *emitter) emitStringOrNil(has bool, s string) {
	if !has {
		e.emitCell(NilString)
		return
	}
	e.emitString(s)
}

func (e *emitter) emitStringList(list []string) {
	e.emitCell(int32(len(list)))
	for _, s := range list {
		e.emitString(s)
	}
}

// CompileOptions controls lowering choices that are not recoverable
// from the AST alone.
type CompileOptions struct {
	// TransliterateMailboxNames rewrites fileinto mailbox names to
	// modified UTF-7 (sieveutf7) at compile time, per the "Mailbox name
	// transliteration" module.
	TransliterateMailboxNames bool
}

// Compile lowers a parsed script to a bytecode buffer (§4.3). The
// script's AST is not retained by the returned Bytecode.
func Compile(script *ast.Script) (*Bytecode, error) {
	return CompileWithOptions(script, CompileOptions{})
}

// CompileWithOptions is Compile with lowering options.
func CompileWithOptions(script *ast.Script, opts CompileOptions) (*Bytecode, error) {
	e := newEmitter(opts.TransliterateMailboxNames)
	if err := emitCommands(e, script.Commands); err != nil {
		return nil, err
	}
	return &Bytecode{raw: e.buf, version: consts.BytecodeVersion}, nil
}

func emitCommands(e *emitter, cmds []ast.Command) error {
	for _, c := range cmds {
		if err := emitCommand(e, c); err != nil {
			return err
		}
	}
	return nil
}

func emitCommand(e *emitter, cmd ast.Command) error {
	switch c := cmd.(type) {
	case ast.Stop:
		e.emitOp(OpStop)
	case ast.Keep:
		e.emitOp(OpKeep)
	case ast.Discard:
		e.emitOp(OpDiscard)
	case ast.Reject:
		e.emitOp(OpReject)
		e.emitBool(false) // copy? slot, unused by reject; kept for layout uniformity with FILEINTO/REDIRECT
		e.emitString(c.Message)
	case ast.FileInto:
		e.emitOp(OpFileInto)
		e.emitBool(c.Copy)
		e.emitString(e.mailboxName(c.Mailbox))
		e.emitStringList(c.ImapFlags)
	case ast.Redirect:
		e.emitOp(OpRedirect)
		e.emitBool(c.Copy)
		e.emitString(c.Address)
	case ast.Mark:
		e.emitOp(OpMark)
	case ast.Unmark:
		e.emitOp(OpUnmark)
	case ast.AddFlag:
		e.emitOp(OpAddFlag)
		e.emitStringList(c.Flags)
	case ast.SetFlag:
		e.emitOp(OpSetFlag)
		e.emitStringList(c.Flags)
	case ast.RemoveFlag:
		e.emitOp(OpRemoveFlag)
		e.emitStringList(c.Flags)
	case ast.Notify:
		e.emitOp(OpNotify)
		e.emitString(c.Method)
		e.emitStringOrNil(c.HasID, c.ID)
		e.emitStringList(c.Options)
		e.emitCell(int32(c.Priority))
		e.emitString(c.Message)
	case ast.Denotify:
		e.emitOp(OpDenotify)
		e.emitCell(int32(c.Priority))
		e.emitCell(int32(c.Match))
		e.emitCell(int32(c.Relation))
		e.emitStringOrNil(c.HasPattern, c.Pattern)
	case ast.Vacation:
		e.emitOp(OpVacation)
		e.emitStringList(c.Addresses)
		e.emitStringOrNil(c.HasSubject, c.Subject)
		e.emitStringOrNil(true, c.Message)
		e.emitCell(int32(c.Days))
		e.emitBool(c.Mime)
		e.emitStringOrNil(c.HasFrom, c.From)
		e.emitStringOrNil(c.HasHandle, c.Handle)
	case ast.Include:
		e.emitOp(OpInclude)
		e.emitCell(int32(c.Location))
		e.emitString(c.Path)
	case ast.Return:
		e.emitOp(OpReturn)
	case ast.If:
		return emitIf(e, c)
	default:
		return fmt.Errorf("%w: unknown command node %T", consts.ErrBytecodeMalformed, cmd)
	}
	return nil
}

// emitIf reserves the forward jump fields documented in §4.3 before
// emitting the test and branch bodies, and back-patches them once the
// branches' extents are known. Nested if/elsif/else resolve their own
// fixups on the way back up the recursive emitCommand call, which
// plays the role of the "(at, jumpto) fixup stack" for the compiler
// side of that state machine — each stack frame owns exactly the pair
// belonging to its own if-node.
func emitIf(e *emitter, c ast.If) error {
	if c.Else == nil {
		e.emitOp(OpIf)
		thenEnd := e.reserve()
		elseStart := e.reserve()
		if err := emitTest(e, c.Test); err != nil {
			return err
		}
		if err := emitCommands(e, c.Then); err != nil {
			return err
		}
		e.patchHere(thenEnd)
		e.patchHere(elseStart)
		return nil
	}
	e.emitOp(OpIfElse)
	thenEnd := e.reserve()
	elseEnd := e.reserve()
	afterEnd := e.reserve()
	if err := emitTest(e, c.Test); err != nil {
		return err
	}
	if err := emitCommands(e, c.Then); err != nil {
		return err
	}
	e.patchHere(thenEnd)
	if err := emitCommands(e, c.Else); err != nil {
		return err
	}
	e.patchHere(elseEnd)
	e.patchHere(afterEnd)
	return nil
}

func emitTest(e *emitter, t ast.Test) error {
	switch n := t.(type) {
	case ast.True:
		e.emitOp(OpTrue)
	case ast.False:
		e.emitOp(OpFalse)
	case ast.Not:
		e.emitOp(OpNot)
		return emitTest(e, n.Sub)
	case ast.AllOf:
		e.emitOp(OpAllOf)
		return emitTestList(e, n.Tests)
	case ast.AnyOf:
		e.emitOp(OpAnyOf)
		return emitTestList(e, n.Tests)
	case ast.Exists:
		e.emitOp(OpExists)
		e.emitStringList(n.Headers)
	case ast.Size:
		e.emitOp(OpSize)
		e.emitCell(int32(n.Op))
		e.emitCell(int32(n.N))
	case ast.Header:
		e.emitOp(OpHeader)
		e.emitCell(int32(n.Match))
		e.emitCell(int32(n.Relation))
		e.emitCell(int32(n.Comparator))
		e.emitStringList(n.Headers)
		e.emitStringList(n.Patterns)
	case ast.Address:
		e.emitOp(OpAddress)
		e.emitCell(int32(n.Match))
		e.emitCell(int32(n.Relation))
		e.emitCell(int32(n.Comparator))
		e.emitCell(int32(n.Part))
		e.emitStringList(n.Headers)
		e.emitStringList(n.Patterns)
	case ast.Envelope:
		e.emitOp(OpEnvelope)
		e.emitCell(int32(n.Match))
		e.emitCell(int32(n.Relation))
		e.emitCell(int32(n.Comparator))
		e.emitCell(int32(n.Part))
		e.emitStringList(n.Fields)
		e.emitStringList(n.Patterns)
	case ast.Body:
		e.emitOp(OpBody)
		e.emitCell(int32(n.Match))
		e.emitCell(int32(n.Relation))
		e.emitCell(int32(n.Comparator))
		e.emitCell(int32(n.Transform))
		e.emitCell(0) // offset: this grammar exposes no body-truncation tag, always "whole body"
		e.emitStringList(n.ContentTypes)
		e.emitStringList(n.Patterns)
	default:
		return fmt.Errorf("%w: unknown test node %T", consts.ErrBytecodeMalformed, t)
	}
	return nil
}

func emitTestList(e *emitter, tests []ast.Test) error {
	e.emitCell(int32(len(tests)))
	for _, t := range tests {
		if err := emitTest(e, t); err != nil {
			return err
		}
	}
	return nil
}
