package sieve

import (
	"context"

	"github.com/migadu/sievecore/consts"
	"github.com/migadu/sievecore/eval"
)

// facadeStubHost is a minimal eval.Host for exercising the Interpreter
// facade without dragging in mailhost's message-parsing machinery.
type facadeStubHost struct {
	headers  map[string][]string
	recorded []string
}

func newFacadeStubHost() *facadeStubHost {
	return &facadeStubHost{headers: map[string][]string{}}
}

func (h *facadeStubHost) GetSize(ctx context.Context) (int64, error) { return 0, nil }

func (h *facadeStubHost) GetHeader(ctx context.Context, name string) ([]string, error) {
	return h.headers[name], nil
}

func (h *facadeStubHost) GetEnvelope(ctx context.Context, field string) ([]string, error) {
	return nil, nil
}

func (h *facadeStubHost) GetBody(ctx context.Context, contentTypes []string) ([]eval.BodyPart, error) {
	return nil, nil
}

func (h *facadeStubHost) Redirect(ctx context.Context, addr string, copy bool) error {
	h.recorded = append(h.recorded, "redirect:"+addr)
	return nil
}

func (h *facadeStubHost) Discard(ctx context.Context) error {
	h.recorded = append(h.recorded, "discard")
	return nil
}

func (h *facadeStubHost) Reject(ctx context.Context, msg string) error {
	h.recorded = append(h.recorded, "reject:"+msg)
	return nil
}

func (h *facadeStubHost) FileInto(ctx context.Context, mailbox string, copy bool, imapFlags []string) error {
	h.recorded = append(h.recorded, "fileinto:"+mailbox)
	return nil
}

func (h *facadeStubHost) Keep(ctx context.Context, imapFlags []string) error {
	h.recorded = append(h.recorded, "keep")
	return nil
}

func (h *facadeStubHost) Notify(ctx context.Context, method string, options []string, priority int32, message string) error {
	h.recorded = append(h.recorded, "notify:"+method)
	return nil
}

func (h *facadeStubHost) VacationAutorespond(ctx context.Context, fingerprint [16]byte, days int64) (bool, error) {
	return true, nil
}

func (h *facadeStubHost) VacationSendResponse(ctx context.Context, to, from, subject, body string, mime bool) error {
	h.recorded = append(h.recorded, "vacation:"+to)
	return nil
}

func (h *facadeStubHost) GetInclude(ctx context.Context, scriptName string, isGlobal bool) (string, error) {
	return "", consts.ErrIncludeNotFound
}

func (h *facadeStubHost) ExecuteError(msg string) {
	h.recorded = append(h.recorded, "error:"+msg)
}
