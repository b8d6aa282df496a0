package eval

import (
	"context"
	"errors"
	"fmt"

	"github.com/migadu/sievecore/ast"
	"github.com/migadu/sievecore/bytecode"
	"github.com/migadu/sievecore/consts"
)

// errAbort unwinds every pending exec frame, across include boundaries,
// back to Evaluate. It carries no information itself — whether the
// unwind was a plain `stop` or a conflict is recorded in vm.runErr
// before it is raised, matching §4.4's "conflict... raises a run-time
// error that stops the script".
var errAbort = errors.New("eval: script execution aborted")

// Outcome is the result of one evaluation: the action and notify
// lists as they stood when the script finished or aborted, plus the
// run error (if any) that the effect-application pass must react to.
type Outcome struct {
	Actions  []Action
	Notifies []Notify
	RunErr   error
}

type vm struct {
	ctx      context.Context
	host     Host
	includes *bytecode.IncludeCache

	actions  []Action
	notifies []Notify
	flags    map[string]bool
	runErr   error

	callStack []string // include paths currently open, for cycle detection
}

// Evaluate walks bc against host, producing an Outcome. Evaluation is
// strictly sequential and single-threaded per call (§4.4, §5); callers
// wanting concurrent evaluation of several messages against the same
// shared buffer should use EvaluateAll.
func Evaluate(ctx context.Context, bc *bytecode.Bytecode, host Host, includes *bytecode.IncludeCache) (*Outcome, error) {
	v := &vm{ctx: ctx, host: host, includes: includes, flags: map[string]bool{}}
	r := bc.NewReader()
	if err := v.exec(r, -1); err != nil && err != errAbort {
		return nil, err
	}
	return &Outcome{Actions: v.actions, Notifies: v.notifies, RunErr: v.runErr}, nil
}

// exec runs instructions from r until stopAt is reached (stopAt < 0
// means "run to end of buffer or an explicit return"). It recurses one
// frame per if/else branch and per include, which plays the evaluator
// side of the "(at, jumpto) fixup stack" described in §4.4: each
// recursive call owns exactly the boundary of the block it was asked
// to run.
func (v *vm) exec(r *bytecode.Reader, stopAt int) error {
	for {
		if stopAt >= 0 && r.Pos() >= stopAt {
			return nil
		}
		if r.AtEnd() {
			return nil
		}
		op, err := r.ReadOp()
		if err != nil {
			return err
		}
		switch op {
		case bytecode.OpStop:
			return errAbort
		case bytecode.OpReturn:
			return nil
		case bytecode.OpKeep:
			if err := v.append(Action{Kind: ActKeep, ImapFlags: v.flagSnapshot()}); err != nil {
				return v.abort(err)
			}
		case bytecode.OpDiscard:
			if err := v.append(Action{Kind: ActDiscard}); err != nil {
				return v.abort(err)
			}
		case bytecode.OpReject:
			if _, err := r.ReadBool(); err != nil {
				return err
			}
			msg, _, err := r.ReadString()
			if err != nil {
				return err
			}
			if err := v.append(Action{Kind: ActReject, Message: msg}); err != nil {
				return v.abort(err)
			}
		case bytecode.OpFileInto:
			copy_, err := r.ReadBool()
			if err != nil {
				return err
			}
			mailbox, _, err := r.ReadString()
			if err != nil {
				return err
			}
			flags, err := r.ReadStringList()
			if err != nil {
				return err
			}
			if len(flags) == 0 {
				flags = v.flagSnapshot()
			}
			if err := v.append(Action{Kind: ActFileInto, Mailbox: mailbox, Copy: copy_, ImapFlags: flags}); err != nil {
				return v.abort(err)
			}
		case bytecode.OpRedirect:
			copy_, err := r.ReadBool()
			if err != nil {
				return err
			}
			addr, _, err := r.ReadString()
			if err != nil {
				return err
			}
			if err := v.append(Action{Kind: ActRedirect, Address: addr, Copy: copy_}); err != nil {
				return v.abort(err)
			}
		case bytecode.OpMark:
			v.flags[`\Flagged`] = true
			if err := v.append(Action{Kind: ActMark}); err != nil {
				return v.abort(err)
			}
		case bytecode.OpUnmark:
			delete(v.flags, `\Flagged`)
			if err := v.append(Action{Kind: ActUnmark}); err != nil {
				return v.abort(err)
			}
		case bytecode.OpAddFlag, bytecode.OpSetFlag, bytecode.OpRemoveFlag:
			flags, err := r.ReadStringList()
			if err != nil {
				return err
			}
			kind := ActAddFlag
			switch op {
			case bytecode.OpSetFlag:
				kind = ActSetFlag
				v.flags = map[string]bool{}
			case bytecode.OpRemoveFlag:
				kind = ActRemoveFlag
			}
			for _, f := range flags {
				if kind == ActRemoveFlag {
					delete(v.flags, f)
				} else {
					v.flags[f] = true
				}
			}
			if err := v.append(Action{Kind: kind, ImapFlags: flags}); err != nil {
				return v.abort(err)
			}
		case bytecode.OpNotify:
			if err := v.execNotify(r); err != nil {
				return err
			}
		case bytecode.OpDenotify:
			if err := v.execDenotify(r); err != nil {
				return err
			}
		case bytecode.OpVacation:
			if err := v.execVacation(r); err != nil {
				return err
			}
		case bytecode.OpInclude:
			if err := v.execInclude(r); err != nil {
				return err
			}
		case bytecode.OpIf:
			if err := v.execIf(r); err != nil {
				return err
			}
		case bytecode.OpIfElse:
			if err := v.execIfElse(r); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unexpected opcode %d at %d", consts.ErrBytecodeMalformed, op, r.Pos())
		}
	}
}

func (v *vm) abort(err error) error {
	v.runErr = err
	v.host.ExecuteError(err.Error())
	return errAbort
}

func (v *vm) flagSnapshot() []string {
	if len(v.flags) == 0 {
		return nil
	}
	out := make([]string, 0, len(v.flags))
	for f := range v.flags {
		out = append(out, f)
	}
	return out
}

// positiveDelivery reports whether kind is one of the actions that
// conflicts with a reject (§3 invariant 3).
func positiveDelivery(k ActionKind) bool {
	switch k {
	case ActFileInto, ActKeep, ActRedirect, ActVacation, ActAddFlag, ActSetFlag, ActRemoveFlag, ActMark, ActUnmark:
		return true
	default:
		return false
	}
}

// append enforces the conflict-detection and dedup rules of §3/§4.4
// before adding a to the action list. CancelKeep is derived from the
// action's kind here, the single place it's decided, rather than
// trusted from the caller.
func (v *vm) append(a Action) error {
	a.CancelKeep = a.Kind.cancelsKeep()
	for _, existing := range v.actions {
		if existing.Kind == ActReject && positiveDelivery(a.Kind) {
			return fmt.Errorf("%w: %v conflicts with an earlier reject", consts.ErrRunError, a.Kind)
		}
		if a.Kind == ActReject && positiveDelivery(existing.Kind) {
			return fmt.Errorf("%w: reject conflicts with an earlier delivery action", consts.ErrRunError)
		}
		if a.Kind == ActVacation && existing.Kind == ActVacation {
			return fmt.Errorf("%w: vacation may run at most once per evaluation", consts.ErrRunError)
		}
		if a.Kind == ActKeep && existing.Kind == ActKeep {
			return nil // idempotent, invariant 5
		}
		if a.Kind == ActDiscard && existing.Kind == ActDiscard {
			return nil
		}
	}
	v.actions = append(v.actions, a)
	return nil
}

func (v *vm) execNotify(r *bytecode.Reader) error {
	method, _, err := r.ReadString()
	if err != nil {
		return err
	}
	id, hasID, err := r.ReadString()
	if err != nil {
		return err
	}
	options, err := r.ReadStringList()
	if err != nil {
		return err
	}
	priority, err := r.ReadInt()
	if err != nil {
		return err
	}
	message, _, err := r.ReadString()
	if err != nil {
		return err
	}
	v.notifies = append(v.notifies, Notify{
		Active: true, ID: id, HasID: hasID, Method: method,
		Options: options, Priority: ast.Priority(priority), Message: message,
	})
	return nil
}

func (v *vm) execDenotify(r *bytecode.Reader) error {
	priority, err := r.ReadInt()
	if err != nil {
		return err
	}
	match, err := r.ReadInt()
	if err != nil {
		return err
	}
	relation, err := r.ReadInt()
	if err != nil {
		return err
	}
	pattern, hasPattern, err := r.ReadString()
	if err != nil {
		return err
	}
	_ = relation
	for i := range v.notifies {
		n := &v.notifies[i]
		if !n.Active {
			continue
		}
		if ast.Priority(priority) != ast.PriorityAny && n.Priority != ast.Priority(priority) {
			continue
		}
		if hasPattern && !matchOne(ast.Match(match), ast.ComparatorAsciiCasemap, n.ID, pattern) {
			continue
		}
		n.Active = false
	}
	return nil
}

func (v *vm) execVacation(r *bytecode.Reader) error {
	addresses, err := r.ReadStringList()
	if err != nil {
		return err
	}
	subject, hasSubject, err := r.ReadString()
	if err != nil {
		return err
	}
	message, _, err := r.ReadString()
	if err != nil {
		return err
	}
	days, err := r.ReadInt()
	if err != nil {
		return err
	}
	mime, err := r.ReadBool()
	if err != nil {
		return err
	}
	from, hasFrom, err := r.ReadString()
	if err != nil {
		return err
	}
	handle, hasHandle, err := r.ReadString()
	if err != nil {
		return err
	}
	a := Action{
		Kind: ActVacation,
		Vacation: &VacationAction{
			Addresses: addresses, Subject: subject, HasSubject: hasSubject,
			Message: message, Days: int64(days), Mime: mime,
			From: from, HasFrom: hasFrom, Handle: handle, HasHandle: hasHandle,
		},
	}
	if err := v.append(a); err != nil {
		return v.abort(err)
	}
	return nil
}

func (v *vm) execInclude(r *bytecode.Reader) error {
	location, err := r.ReadInt()
	if err != nil {
		return err
	}
	path, _, err := r.ReadString()
	if err != nil {
		return err
	}
	resolved, err := v.host.GetInclude(v.ctx, path, ast.IncludeLocation(location) == ast.IncludeGlobal)
	if err != nil {
		return v.abort(fmt.Errorf("%w: %v", consts.ErrHostFailure, err))
	}
	for _, open := range v.callStack {
		if open == resolved {
			return v.abort(fmt.Errorf("%w: %s", consts.ErrIncludeCycle, resolved))
		}
	}
	included, err := v.includes.Load(resolved)
	if err != nil {
		return v.abort(err)
	}
	v.callStack = append(v.callStack, resolved)
	sub := included.NewReader()
	err = v.exec(sub, -1)
	v.callStack = v.callStack[:len(v.callStack)-1]
	return err
}

func (v *vm) execIf(r *bytecode.Reader) error {
	thenEnd, err := r.ReadOffset()
	if err != nil {
		return err
	}
	elseStart, err := r.ReadOffset()
	if err != nil {
		return err
	}
	test, err := v.evalTest(r)
	if err != nil {
		return err
	}
	if test {
		if err := v.exec(r, thenEnd); err != nil {
			return err
		}
		r.Seek(elseStart)
		return nil
	}
	r.Seek(elseStart)
	return nil
}

func (v *vm) execIfElse(r *bytecode.Reader) error {
	thenEnd, err := r.ReadOffset()
	if err != nil {
		return err
	}
	elseEnd, err := r.ReadOffset()
	if err != nil {
		return err
	}
	afterEnd, err := r.ReadOffset()
	if err != nil {
		return err
	}
	test, err := v.evalTest(r)
	if err != nil {
		return err
	}
	if test {
		if err := v.exec(r, thenEnd); err != nil {
			return err
		}
		r.Seek(afterEnd)
		return nil
	}
	r.Seek(thenEnd)
	if err := v.exec(r, elseEnd); err != nil {
		return err
	}
	r.Seek(afterEnd)
	return nil
}
