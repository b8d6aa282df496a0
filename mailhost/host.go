// Package mailhost is a reference implementation of eval.Host over a
// single RFC 5322 message: github.com/emersion/go-message for
// structure, go-message/mail for MIME part walking, k3a/html2text for
// the plaintext fallback. It is meant for tests and for embedders
// without their own mailbox integration; its vacation persistence is
// an in-memory map, not a production autoresponder database.
package mailhost

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-message"
	emmail "github.com/emersion/go-message/mail"
	"github.com/k3a/html2text"

	"github.com/migadu/sievecore/consts"
	"github.com/migadu/sievecore/eval"
	"github.com/migadu/sievecore/helpers"
)

// Envelope carries the SMTP-level from/to/auth values, which live
// outside the RFC 5322 message bytes (§3 GLOSSARY: "Envelope").
type Envelope struct {
	From string
	To   []string
	Auth string
}

// Host is an in-memory eval.Host over one message. The zero value is
// not usable; build one with New.
type Host struct {
	data     []byte
	entity   *message.Entity
	envelope Envelope

	includeResolve func(scriptName string, isGlobal bool) (string, error)

	mu        sync.Mutex
	vacation  map[[16]byte]time.Time
	Recorded  []string // human-readable effector call log, for assertions in tests
}

// New parses raw as an RFC 5322 message. A soft unknown-charset error
// from go-message is logged and otherwise ignored.
func New(raw []byte, env Envelope, includeResolve func(string, bool) (string, error)) (*Host, error) {
	ent, err := message.Read(bytes.NewReader(raw))
	if err != nil {
		if message.IsUnknownCharset(err) {
			log.Printf("mailhost: unknown charset: %v", err)
		} else {
			return nil, fmt.Errorf("mailhost: parse message: %w", err)
		}
	}
	return &Host{
		data:           raw,
		entity:         ent,
		envelope:       env,
		includeResolve: includeResolve,
		vacation:       make(map[[16]byte]time.Time),
	}, nil
}

func (h *Host) GetSize(ctx context.Context) (int64, error) {
	return int64(len(h.data)), nil
}

func (h *Host) GetHeader(ctx context.Context, name string) ([]string, error) {
	if h.entity == nil {
		return nil, nil
	}
	var out []string
	fields := h.entity.Header.Fields()
	for fields.Next() {
		if strings.EqualFold(fields.Key(), name) {
			// Header bytes arrive from the wire; a sender's malformed
			// charset can leave invalid UTF-8 in a decoded field value,
			// which would break the parser's validateUTF8 invariant
			// downstream in :comparator i;ascii-casemap matching.
			out = append(out, helpers.SanitizeUTF8(fields.Value()))
		}
	}
	return out, nil
}

func (h *Host) GetEnvelope(ctx context.Context, field string) ([]string, error) {
	switch strings.ToLower(field) {
	case "from":
		if h.envelope.From == "" {
			return nil, nil
		}
		return []string{h.envelope.From}, nil
	case "to":
		return h.envelope.To, nil
	case "auth":
		if h.envelope.Auth == "" {
			return nil, nil
		}
		return []string{h.envelope.Auth}, nil
	default:
		return nil, fmt.Errorf("%w: %q is not-valid-for-envelope", consts.ErrHostFailure, field)
	}
}

func (h *Host) GetBody(ctx context.Context, contentTypes []string) ([]eval.BodyPart, error) {
	if h.entity == nil {
		return nil, nil
	}
	mr := emmail.NewReader(h.entity)
	defer mr.Close()

	var parts []eval.BodyPart
	section := 0
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mailhost: walk parts: %w", err)
		}
		section++
		header, ok := part.Header.(*emmail.InlineHeader)
		if !ok {
			continue
		}
		mediaType, _, _ := header.ContentType()
		if !matchesAnyPrefix(mediaType, contentTypes) {
			continue
		}
		b, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, fmt.Errorf("mailhost: read part body: %w", err)
		}
		parts = append(parts, eval.BodyPart{
			Section:     fmt.Sprintf("%d", section),
			ContentType: mediaType,
			Body:        decodeForTest(mediaType, string(b)),
		})
	}
	return parts, nil
}

// matchesAnyPrefix implements §4.1's "filtered to types matching any
// prefix in the requested set (empty string matches raw)".
func matchesAnyPrefix(mediaType string, want []string) bool {
	if len(want) == 0 {
		return true
	}
	for _, w := range want {
		if w == "" || strings.HasPrefix(mediaType, w) {
			return true
		}
	}
	return false
}

func decodeForTest(mediaType, body string) string {
	if strings.HasPrefix(strings.ToLower(mediaType), "text/html") {
		return html2text.HTML2Text(body)
	}
	return body
}

func (h *Host) Redirect(ctx context.Context, addr string, copy bool) error {
	h.record("redirect %s copy=%v", addr, copy)
	return nil
}

func (h *Host) Discard(ctx context.Context) error {
	h.record("discard")
	return nil
}

func (h *Host) Reject(ctx context.Context, msg string) error {
	h.record("reject %q", msg)
	return nil
}

func (h *Host) FileInto(ctx context.Context, mailbox string, copy bool, imapFlags []string) error {
	h.record("fileinto %s copy=%v flags=%v", mailbox, copy, imapFlags)
	return nil
}

func (h *Host) Keep(ctx context.Context, imapFlags []string) error {
	h.record("keep flags=%v", imapFlags)
	return nil
}

func (h *Host) Notify(ctx context.Context, method string, options []string, priority int32, message string) error {
	h.record("notify %s %v prio=%d", method, options, priority)
	return nil
}

func (h *Host) VacationAutorespond(ctx context.Context, fingerprint [16]byte, days int64) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if last, ok := h.vacation[fingerprint]; ok && time.Since(last) < time.Duration(days)*24*time.Hour {
		return false, nil
	}
	h.vacation[fingerprint] = time.Now()
	return true, nil
}

func (h *Host) VacationSendResponse(ctx context.Context, to, from, subject, body string, mime bool) error {
	h.record("vacation to=%s from=%s subject=%q mime=%v", to, from, subject, mime)
	return nil
}

func (h *Host) GetInclude(ctx context.Context, scriptName string, isGlobal bool) (string, error) {
	if h.includeResolve == nil {
		return "", fmt.Errorf("%w: %s", consts.ErrIncludeNotFound, scriptName)
	}
	return h.includeResolve(scriptName, isGlobal)
}

func (h *Host) ExecuteError(msg string) {
	h.record("error: %s", msg)
}

func (h *Host) record(format string, args ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Recorded = append(h.Recorded, fmt.Sprintf(format, args...))
}
