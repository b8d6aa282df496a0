package consts

import "errors"

// Error kinds (§7). Each is a sentinel that call sites wrap with
// errors.Is-compatible context via fmt.Errorf("...: %w", ...).
var (
	ErrParseError           = errors.New("sieve: parse error")
	ErrUnsupportedExtension = errors.New("sieve: unsupported extension")
	ErrBytecodeVersion      = errors.New("sieve: bytecode version mismatch")
	ErrBytecodeMalformed    = errors.New("sieve: bytecode malformed")
	ErrRunError             = errors.New("sieve: run-time error")
	ErrHostFailure          = errors.New("sieve: host failure")
	ErrNoMemory             = errors.New("sieve: out of memory")

	ErrIncludeCycle    = errors.New("sieve: include cycle detected")
	ErrIncludeNotFound = errors.New("sieve: include not found")
)
