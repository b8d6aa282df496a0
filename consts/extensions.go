package consts

// Extension names a script may name in its `require` directive. These
// are the only extensions this interpreter advertises (§6); a
// conformant parser rejects any `require` set that is not a subset of
// this list.
const (
	ExtFileInto        = "fileinto"
	ExtReject           = "reject"
	ExtEnvelope         = "envelope"
	ExtBody             = "body"
	ExtVacation         = "vacation"
	ExtImapFlags        = "imapflags"
	ExtNotify           = "notify"
	ExtInclude          = "include"
	ExtRegex            = "regex"
	ExtSubaddress       = "subaddress"
	ExtRelational       = "relational"
	ExtAsciiNumeric     = "i;ascii-numeric"
	ExtCopy             = "copy"
)

// SupportedExtensions lists every extension name this interpreter can
// advertise to a script's `require`.
var SupportedExtensions = []string{
	ExtFileInto, ExtReject, ExtEnvelope, ExtBody, ExtVacation,
	ExtImapFlags, ExtNotify, ExtInclude, ExtRegex, ExtSubaddress,
	ExtRelational, ExtAsciiNumeric, ExtCopy,
}
