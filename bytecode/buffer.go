package bytecode

import (
	"encoding/binary"
	"fmt"

	"github.com/migadu/sievecore/consts"
)

// Bytecode is a read-only, bounds-checked view over a compiled
// script's cell stream (§4.3). The zero value is not usable; build one
// with Compile or Load.
type Bytecode struct {
	raw     []byte // includes the 4-byte version header
	version uint32
	path    string // best-effort, for include-cycle diagnostics; empty for in-memory buffers
}

// Version reports the bytecode format version stamped in the header.
func (b *Bytecode) Version() uint32 { return b.version }

// Path reports the filesystem path the buffer was loaded from, or ""
// for an in-memory buffer produced directly by Compile.
func (b *Bytecode) Path() string { return b.path }

// Raw exposes the full byte stream including the version header, for
// writing to a file or another transport.
func (b *Bytecode) Raw() []byte { return b.raw }

// Len reports the number of cells in the body (excluding the header).
func (b *Bytecode) Len() int { return (len(b.raw) - headerBytes) / cellBytes }

const headerBytes = 4

// cursor walks the cell stream starting at the root and is the only
// way the evaluator touches the buffer; every read is bounds-checked.
type cursor struct {
	bc *Bytecode
}

func newCursor(bc *Bytecode) *cursor { return &cursor{bc: bc} }

// cellAt reads the cell whose value occupies byte offset `at`
// (measured from the start of the serialized stream, header included —
// the same coordinate space jump fields are written in).
func (c *cursor) cellAt(at int) (int32, error) {
	if at < 0 || at+cellBytes > len(c.bc.raw) {
		return 0, fmt.Errorf("%w: cell offset %d out of bounds (len %d)", consts.ErrBytecodeMalformed, at, len(c.bc.raw))
	}
	return int32(binary.NativeEndian.Uint32(c.bc.raw[at : at+cellBytes])), nil
}

// stringAt decodes the length-prefixed, NUL-padded string field whose
// length cell sits at byte offset `at`. It returns the string, whether
// it was present (not the nil sentinel), and the offset of the first
// byte following the field.
func (c *cursor) stringAt(at int) (s string, ok bool, next int, err error) {
	n, err := c.cellAt(at)
	if err != nil {
		return "", false, 0, err
	}
	if n == NilString {
		return "", false, at + cellBytes, nil
	}
	if n < 0 {
		return "", false, 0, fmt.Errorf("%w: negative string length %d", consts.ErrBytecodeMalformed, n)
	}
	payloadCells := (int(n) + 1 + cellBytes - 1) / cellBytes
	start := at + cellBytes
	end := start + payloadCells*cellBytes
	if end > len(c.bc.raw) {
		return "", false, 0, fmt.Errorf("%w: string payload runs past end of buffer", consts.ErrBytecodeMalformed)
	}
	if int(n) > len(c.bc.raw) {
		return "", false, 0, fmt.Errorf("%w: string length %d implausible", consts.ErrBytecodeMalformed, n)
	}
	buf := make([]byte, payloadCells*cellBytes)
	copy(buf, c.bc.raw[start:end])
	if int(n) > len(buf) {
		return "", false, 0, fmt.Errorf("%w: truncated string payload", consts.ErrBytecodeMalformed)
	}
	return string(buf[:n]), true, end, nil
}

// stringListAt decodes a count-prefixed sequence of string fields.
func (c *cursor) stringListAt(at int) (list []string, next int, err error) {
	count, err := c.cellAt(at)
	if err != nil {
		return nil, 0, err
	}
	if count < 0 {
		return nil, 0, fmt.Errorf("%w: negative stringlist count %d", consts.ErrBytecodeMalformed, count)
	}
	pos := at + cellBytes
	out := make([]string, 0, count)
	for i := int32(0); i < count; i++ {
		s, _, n, err := c.stringAt(pos)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
		pos = n
	}
	return out, pos, nil
}
