package eval

import (
	"github.com/migadu/sievecore/ast"
	"github.com/migadu/sievecore/bytecode"
)

// evalTest decodes and evaluates one test node, recursing for
// compound tests. allof/anyof short-circuit by switching to skipTest
// for the remaining operands once the outcome is already decided, so
// later host callbacks are never invoked (§4.4, invariant 9) while the
// reader still ends up in the right place for the caller.
func (v *vm) evalTest(r *bytecode.Reader) (bool, error) {
	op, err := r.ReadOp()
	if err != nil {
		return false, err
	}
	switch op {
	case bytecode.OpTrue:
		return true, nil
	case bytecode.OpFalse:
		return false, nil
	case bytecode.OpNot:
		sub, err := v.evalTest(r)
		if err != nil {
			return false, err
		}
		return !sub, nil
	case bytecode.OpAllOf:
		return v.evalCompound(r, true)
	case bytecode.OpAnyOf:
		return v.evalCompound(r, false)
	case bytecode.OpExists:
		headers, err := r.ReadStringList()
		if err != nil {
			return false, err
		}
		for _, h := range headers {
			vals, err := v.host.GetHeader(v.ctx, h)
			if err != nil {
				return false, err
			}
			if len(vals) == 0 {
				return false, nil
			}
		}
		return true, nil
	case bytecode.OpSize:
		sizeOp, err := r.ReadInt()
		if err != nil {
			return false, err
		}
		n, err := r.ReadInt()
		if err != nil {
			return false, err
		}
		size, err := v.host.GetSize(v.ctx)
		if err != nil {
			return false, err
		}
		if ast.SizeOp(sizeOp) == ast.SizeOver {
			return size > int64(n), nil
		}
		return size < int64(n), nil
	case bytecode.OpHeader:
		return v.evalHeader(r)
	case bytecode.OpAddress:
		return v.evalAddressLike(r, false)
	case bytecode.OpEnvelope:
		return v.evalAddressLike(r, true)
	case bytecode.OpBody:
		return v.evalBody(r)
	default:
		return false, nil
	}
}

// evalCompound evaluates an allof (allOf=true) or anyof (allOf=false)
// operand list with short-circuiting.
func (v *vm) evalCompound(r *bytecode.Reader, allOf bool) (bool, error) {
	count, err := r.ReadInt()
	if err != nil {
		return false, err
	}
	decided := false
	result := allOf // allof starts true, anyof starts false
	for i := int32(0); i < count; i++ {
		if decided {
			if err := skipTest(r); err != nil {
				return false, err
			}
			continue
		}
		ok, err := v.evalTest(r)
		if err != nil {
			return false, err
		}
		if allOf && !ok {
			result, decided = false, true
		} else if !allOf && ok {
			result, decided = true, true
		}
	}
	return result, nil
}

func (v *vm) evalHeader(r *bytecode.Reader) (bool, error) {
	match, relation, comparator, err := readMRC(r)
	if err != nil {
		return false, err
	}
	headers, err := r.ReadStringList()
	if err != nil {
		return false, err
	}
	patterns, err := r.ReadStringList()
	if err != nil {
		return false, err
	}
	var values []string
	for _, h := range headers {
		vals, err := v.host.GetHeader(v.ctx, h)
		if err != nil {
			return false, err
		}
		values = append(values, vals...)
	}
	return matchList(match, relation, comparator, values, patterns), nil
}

func (v *vm) evalAddressLike(r *bytecode.Reader, envelope bool) (bool, error) {
	match, relation, comparator, err := readMRC(r)
	if err != nil {
		return false, err
	}
	part, err := r.ReadInt()
	if err != nil {
		return false, err
	}
	fields, err := r.ReadStringList()
	if err != nil {
		return false, err
	}
	patterns, err := r.ReadStringList()
	if err != nil {
		return false, err
	}
	var raw []string
	for _, f := range fields {
		var vals []string
		var err error
		if envelope {
			vals, err = v.host.GetEnvelope(v.ctx, f)
		} else {
			vals, err = v.host.GetHeader(v.ctx, f)
		}
		if err != nil {
			return false, err
		}
		raw = append(raw, vals...)
	}
	values := addressValues(ast.AddressPart(part), raw)
	return matchList(match, relation, comparator, values, patterns), nil
}

func (v *vm) evalBody(r *bytecode.Reader) (bool, error) {
	match, relation, comparator, err := readMRC(r)
	if err != nil {
		return false, err
	}
	transform, err := r.ReadInt()
	if err != nil {
		return false, err
	}
	if _, err := r.ReadInt(); err != nil { // offset, unused (see bytecode layout note)
		return false, err
	}
	contentTypes, err := r.ReadStringList()
	if err != nil {
		return false, err
	}
	patterns, err := r.ReadStringList()
	if err != nil {
		return false, err
	}
	parts, err := v.host.GetBody(v.ctx, contentTypes)
	if err != nil {
		return false, err
	}
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		values = append(values, bodyTextFor(ast.Transform(transform), p))
	}
	return matchList(match, relation, comparator, values, patterns), nil
}

func readMRC(r *bytecode.Reader) (ast.Match, ast.Relation, ast.Comparator, error) {
	m, err := r.ReadInt()
	if err != nil {
		return 0, 0, 0, err
	}
	rel, err := r.ReadInt()
	if err != nil {
		return 0, 0, 0, err
	}
	c, err := r.ReadInt()
	if err != nil {
		return 0, 0, 0, err
	}
	return ast.Match(m), ast.Relation(rel), ast.Comparator(c), nil
}

// skipTest advances r past one test node's fields without invoking
// any host callback — the structural half of short-circuiting.
func skipTest(r *bytecode.Reader) error {
	op, err := r.ReadOp()
	if err != nil {
		return err
	}
	switch op {
	case bytecode.OpTrue, bytecode.OpFalse:
		return nil
	case bytecode.OpNot:
		return skipTest(r)
	case bytecode.OpAllOf, bytecode.OpAnyOf:
		count, err := r.ReadInt()
		if err != nil {
			return err
		}
		for i := int32(0); i < count; i++ {
			if err := skipTest(r); err != nil {
				return err
			}
		}
		return nil
	case bytecode.OpExists:
		_, err := r.ReadStringList()
		return err
	case bytecode.OpSize:
		if _, err := r.ReadInt(); err != nil {
			return err
		}
		_, err := r.ReadInt()
		return err
	case bytecode.OpHeader:
		if _, _, _, err := readMRC(r); err != nil {
			return err
		}
		if _, err := r.ReadStringList(); err != nil {
			return err
		}
		_, err := r.ReadStringList()
		return err
	case bytecode.OpAddress, bytecode.OpEnvelope:
		if _, _, _, err := readMRC(r); err != nil {
			return err
		}
		if _, err := r.ReadInt(); err != nil {
			return err
		}
		if _, err := r.ReadStringList(); err != nil {
			return err
		}
		_, err := r.ReadStringList()
		return err
	case bytecode.OpBody:
		if _, _, _, err := readMRC(r); err != nil {
			return err
		}
		if _, err := r.ReadInt(); err != nil {
			return err
		}
		if _, err := r.ReadInt(); err != nil {
			return err
		}
		if _, err := r.ReadStringList(); err != nil {
			return err
		}
		_, err := r.ReadStringList()
		return err
	default:
		return nil
	}
}
