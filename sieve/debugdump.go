package sieve

import (
	"encoding/binary"

	"github.com/davecgh/go-spew/spew"

	"github.com/migadu/sievecore/ast"
	"github.com/migadu/sievecore/bytecode"
)

// DumpAST renders a parsed script's tree for debugging. Nothing in the
// evaluated control path calls it; it exists for tests and embedders.
func DumpAST(script *ast.Script) string {
	return spew.Sdump(script)
}

// DumpBytecode renders the raw 32-bit cell stream for debugging: the
// version header followed by every remaining cell as a signed int32,
// printed alongside its byte offset. It does not attempt instruction-
// aware decoding (that logic lives only in eval's VM), so jump fields,
// opcodes, and string payload bytes all print as plain cell values.
func DumpBytecode(bc *bytecode.Bytecode) string {
	raw := bc.Raw()
	cells := make(map[int]int32, len(raw)/4)
	for at := 0; at+4 <= len(raw); at += 4 {
		cells[at] = int32(binary.NativeEndian.Uint32(raw[at : at+4]))
	}
	return spew.Sdump(struct {
		Version uint32
		Cells   map[int]int32
	}{Version: bc.Version(), Cells: cells})
}
