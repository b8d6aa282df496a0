// Package bytecode lowers an ast.Script to the flat, versioned cell
// stream described in §4.3 and loads it back as a read-only,
// bounds-checked buffer addressed by byte offset.
package bytecode

// Op is a wire-stable opcode value. New opcodes are appended; existing
// values are never renumbered (§4.3: "wire values stable, append-only").
type Op int32

const (
	OpStop Op = iota
	OpKeep
	OpDiscard
	OpReject
	OpFileInto
	OpRedirect
	OpIf
	OpIfElse
	OpMark
	OpUnmark
	OpAddFlag
	OpSetFlag
	OpRemoveFlag
	OpNotify
	OpDenotify
	OpVacation
	OpInclude
	OpReturn
	OpNull

	OpFalse
	OpTrue
	OpNot
	OpExists
	OpSize
	OpAnyOf
	OpAllOf
	OpAddress
	OpEnvelope
	OpHeader
	OpBody
)

// NilString is the length sentinel for an absent optional string
// payload (§4.3: "Nil strings use a length sentinel of -1").
const NilString int32 = -1

// cellBytes is the same width as consts.CellSize, kept as a local
// untyped constant for the package's byte-offset arithmetic.
const cellBytes = 4
