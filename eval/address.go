package eval

import (
	"net/mail"
	"strings"

	"github.com/migadu/sievecore/ast"
)

// addressValues parses each raw header/envelope value as an address
// list and extracts the configured part, splitting `user`/`detail`
// subaddressing at the first `+` in the local part (§4.4). A value
// that yields no address contributes nothing — the caller sees an
// empty list, which makes the surrounding test vacuously false.
func addressValues(part ast.AddressPart, raw []string) []string {
	var out []string
	for _, r := range raw {
		addrs, err := mail.ParseAddressList(r)
		if err != nil {
			trimmed := strings.TrimSpace(r)
			if trimmed == "" {
				continue
			}
			// Fall back to treating the raw string as a single bare
			// address; many envelope values are not RFC 2822 wrapped.
			addrs = []*mail.Address{{Address: trimmed}}
		}
		for _, a := range addrs {
			out = append(out, extractPart(part, a.Address))
		}
	}
	return out
}

func extractPart(part ast.AddressPart, addr string) string {
	local, domain, ok := strings.Cut(addr, "@")
	if !ok {
		local, domain = addr, ""
	}
	switch part {
	case ast.AddrDomain:
		return domain
	case ast.AddrLocalpart:
		return local
	case ast.AddrUser:
		user, _, _ := strings.Cut(local, "+")
		return user
	case ast.AddrDetail:
		_, detail, found := strings.Cut(local, "+")
		if !found {
			return ""
		}
		return detail
	default: // AddrAll
		return addr
	}
}
