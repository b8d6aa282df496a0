package consts

// Vacation :days default and clamp range, per §4.2 ("clamped to the
// host's [min_response, max_response]").
const (
	VacationDefaultDays = 7
	VacationMinDays     = 1
	VacationMaxDays     = 30
)

// BytecodeVersion is the single wire-stable version integer this
// interpreter writes and accepts (§6: header value 0x01).
const BytecodeVersion uint32 = 1

// CellSize is the width, in bytes, of one bytecode cell (§4.3: "a
// sequence of 32-bit-wide cells").
const CellSize = 4
