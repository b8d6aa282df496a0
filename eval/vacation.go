package eval

import (
	"strings"

	"lukechampine.com/blake3"
)

// vacationFingerprint computes the 16-byte loop-suppression digest
// (§4.4, §9): a non-cryptographic 128-bit digest is enough since the
// fingerprint is never security-sensitive, only anti-loop. blake3's
// XOF lets us ask for exactly 16 bytes without truncating a wider
// hash.
func vacationFingerprint(to string, handle string, hasHandle bool, from, message string) [16]byte {
	h := blake3.New(16, nil)
	if hasHandle {
		h.Write([]byte(to))
		h.Write([]byte{0})
		h.Write([]byte(handle))
	} else {
		h.Write([]byte(to))
		h.Write([]byte{0})
		h.Write([]byte(from))
		h.Write([]byte{0})
		h.Write([]byte(message))
	}
	var out [16]byte
	copy(out[:], h.Sum(nil))
	return out
}

// vacationSubject derives the auto-generated subject when the script
// supplied none (§4.4): "Automated reply" if the original had none,
// else "Re: <original>" with any leading "Re: " runs collapsed first.
func vacationSubject(original string) string {
	if original == "" {
		return "Automated reply"
	}
	stripped := original
	for {
		trimmed := strings.TrimPrefix(stripped, "Re: ")
		trimmed = strings.TrimPrefix(trimmed, "re: ")
		if trimmed == stripped {
			break
		}
		stripped = trimmed
	}
	return "Re: " + stripped
}
