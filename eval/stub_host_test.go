package eval

import (
	"context"

	"github.com/migadu/sievecore/consts"
)

// stubHost is a minimal, hand-written Host for exercising the VM
// directly against crafted bytecode, independent of mailhost.
type stubHost struct {
	size     int64
	headers  map[string][]string
	envelope map[string][]string
	bodies   []BodyPart

	includes map[string]string

	vacationSent map[[16]byte]bool

	recorded []string
	errors   []string
}

func newStubHost() *stubHost {
	return &stubHost{
		headers:      map[string][]string{},
		envelope:     map[string][]string{},
		includes:     map[string]string{},
		vacationSent: map[[16]byte]bool{},
	}
}

func (h *stubHost) GetSize(ctx context.Context) (int64, error) { return h.size, nil }

func (h *stubHost) GetHeader(ctx context.Context, name string) ([]string, error) {
	return h.headers[name], nil
}

func (h *stubHost) GetEnvelope(ctx context.Context, field string) ([]string, error) {
	return h.envelope[field], nil
}

func (h *stubHost) GetBody(ctx context.Context, contentTypes []string) ([]BodyPart, error) {
	return h.bodies, nil
}

func (h *stubHost) Redirect(ctx context.Context, addr string, copy bool) error {
	h.recorded = append(h.recorded, "redirect:"+addr)
	return nil
}

func (h *stubHost) Discard(ctx context.Context) error {
	h.recorded = append(h.recorded, "discard")
	return nil
}

func (h *stubHost) Reject(ctx context.Context, msg string) error {
	h.recorded = append(h.recorded, "reject:"+msg)
	return nil
}

func (h *stubHost) FileInto(ctx context.Context, mailbox string, copy bool, imapFlags []string) error {
	h.recorded = append(h.recorded, "fileinto:"+mailbox)
	return nil
}

func (h *stubHost) Keep(ctx context.Context, imapFlags []string) error {
	h.recorded = append(h.recorded, "keep")
	return nil
}

func (h *stubHost) Notify(ctx context.Context, method string, options []string, priority int32, message string) error {
	h.recorded = append(h.recorded, "notify:"+method)
	return nil
}

func (h *stubHost) VacationAutorespond(ctx context.Context, fingerprint [16]byte, days int64) (bool, error) {
	if h.vacationSent[fingerprint] {
		return false, nil
	}
	h.vacationSent[fingerprint] = true
	return true, nil
}

func (h *stubHost) VacationSendResponse(ctx context.Context, to, from, subject, body string, mime bool) error {
	h.recorded = append(h.recorded, "vacation:"+to)
	return nil
}

func (h *stubHost) GetInclude(ctx context.Context, scriptName string, isGlobal bool) (string, error) {
	p, ok := h.includes[scriptName]
	if !ok {
		return "", consts.ErrIncludeNotFound
	}
	return p, nil
}

func (h *stubHost) ExecuteError(msg string) {
	h.errors = append(h.errors, msg)
}
