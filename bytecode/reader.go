package bytecode

import "fmt"

// Reader is the evaluator's view onto a Bytecode buffer: a stateful
// cursor that reads fields in instruction order and can jump to an
// absolute byte offset recorded in a prior field (the jump discipline
// of §4.3). It is the only exported way to walk a buffer; the cell/
// string decoding primitives in buffer.go stay package-private.
type Reader struct {
	cur *cursor
	pos int
}

// NewReader starts a reader at the first instruction, immediately
// after the version header.
func (b *Bytecode) NewReader() *Reader {
	return &Reader{cur: newCursor(b), pos: headerBytes}
}

// Pos reports the current byte offset, usable as a jump target.
func (r *Reader) Pos() int { return r.pos }

// Seek jumps to an absolute byte offset previously obtained from a
// jump field or from Pos.
func (r *Reader) Seek(at int) { r.pos = at }

// AtEnd reports whether the reader has consumed the whole buffer.
func (r *Reader) AtEnd() bool { return r.pos >= len(r.cur.bc.raw) }

// ReadOp reads one opcode cell and advances.
func (r *Reader) ReadOp() (Op, error) {
	v, err := r.cur.cellAt(r.pos)
	if err != nil {
		return 0, err
	}
	r.pos += cellBytes
	return Op(v), nil
}

// ReadInt reads one raw integer cell and advances.
func (r *Reader) ReadInt() (int32, error) {
	v, err := r.cur.cellAt(r.pos)
	if err != nil {
		return 0, err
	}
	r.pos += cellBytes
	return v, nil
}

// ReadOffset reads a jump-field cell: a byte offset into the buffer.
func (r *Reader) ReadOffset() (int, error) {
	v, err := r.ReadInt()
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// ReadBool reads a 0/1 cell and advances.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadInt()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// ReadString reads a length-prefixed string field and advances past
// its padded payload. ok is false for the nil-string sentinel.
func (r *Reader) ReadString() (s string, ok bool, err error) {
	s, ok, next, err := r.cur.stringAt(r.pos)
	if err != nil {
		return "", false, err
	}
	r.pos = next
	return s, ok, nil
}

// ReadStringList reads a count-prefixed string list and advances.
func (r *Reader) ReadStringList() ([]string, error) {
	list, next, err := r.cur.stringListAt(r.pos)
	if err != nil {
		return nil, err
	}
	r.pos = next
	return list, nil
}

// Clone returns an independent reader positioned at the same offset,
// useful when a caller needs to peek ahead without disturbing the
// caller's own cursor (e.g. AllOf/AnyOf nested test counting).
func (r *Reader) Clone() *Reader {
	return &Reader{cur: r.cur, pos: r.pos}
}

func (r *Reader) String() string {
	return fmt.Sprintf("Reader{pos=%d}", r.pos)
}
