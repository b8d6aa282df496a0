package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// These two patterns are a stricter second pass applied after
// net/mail.ParseAddress accepts the RFC 2822 envelope/display-name
// wrapper: mail.ParseAddress is permissive about what it calls a valid
// addr-spec, but a sieve redirect/vacation target should still look
// like a deliverable mailbox@domain.
var (
	localPartRe = regexp.MustCompile(`^(?i)(?:[a-z0-9])+$|^(?:[a-z0-9])(?:[a-z0-9.\-_])*(?:[a-z0-9])$`)
	domainRe    = regexp.MustCompile(`^(?i)(([a-z0-9]|[a-z0-9][a-z0-9\-]*[a-z0-9])\.)*([a-z0-9]|[a-z0-9][a-z0-9]|[a-z0-9][a-z0-9\-]+[a-z0-9])+\.?$`)
)

// checkAddrSpec rejects an addr-spec whose local-part or domain fails
// the stricter mailbox-naming pattern, even though it parsed as a
// syntactically valid RFC 2822 address.
func checkAddrSpec(addrSpec string) error {
	local, domain, ok := strings.Cut(addrSpec, "@")
	if !ok {
		return fmt.Errorf("address %q has no domain", addrSpec)
	}
	if !localPartRe.MatchString(local) {
		return fmt.Errorf("unacceptable local part %q", local)
	}
	if !domainRe.MatchString(domain) {
		return fmt.Errorf("unacceptable domain %q", domain)
	}
	return nil
}
