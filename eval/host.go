// Package eval walks a compiled bytecode.Bytecode buffer against a
// message and a Host, producing an ordered action list and notify
// list per §4.4, then (via Apply) drives the effect-application pass
// described in the same section.
package eval

import "context"

// BodyPart is one decoded MIME part returned by Host.GetBody.
type BodyPart struct {
	Section     string // a dotted MIME part label, e.g. "1.2"
	ContentType string
	Body        string
}

// Host is the embedder-supplied capability set of §4.1. The evaluator
// never assumes a specific backing store behind it; every method may
// block on I/O.
type Host interface {
	// Message introspection.
	GetSize(ctx context.Context) (int64, error)
	GetHeader(ctx context.Context, name string) ([]string, error)
	GetEnvelope(ctx context.Context, field string) ([]string, error)
	GetBody(ctx context.Context, contentTypes []string) ([]BodyPart, error)

	// Action effectors. Each returns a non-nil error classified with
	// errors.Is against the consts.Err* sentinels on failure.
	Redirect(ctx context.Context, addr string, copy bool) error
	Discard(ctx context.Context) error
	Reject(ctx context.Context, msg string) error
	FileInto(ctx context.Context, mailbox string, copy bool, imapFlags []string) error
	Keep(ctx context.Context, imapFlags []string) error
	Notify(ctx context.Context, method string, options []string, priority int32, message string) error

	// Vacation split (§4.1): the core only computes the fingerprint
	// and calls these two; the anti-loop database is Host-owned.
	VacationAutorespond(ctx context.Context, fingerprint [16]byte, days int64) (shouldSend bool, err error)
	VacationSendResponse(ctx context.Context, to, from, subject, body string, mime bool) error

	// Include resolver: returns an absolute path, or an error wrapping
	// consts.ErrIncludeNotFound.
	GetInclude(ctx context.Context, scriptName string, isGlobal bool) (path string, err error)

	// Diagnostic channels (§4.1, §6). Neither aborts the run.
	ExecuteError(msg string)
}
