package eval

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Apply is the effect-application pass of §4.4: it walks the action
// list built by Evaluate, invoking each effector through host, then
// walks the notify list, then runs the implicit keep unless some
// action already cancelled it. It returns the human-readable
// actions_string diagnostic artifact (§6) — never an error; failures
// are reported through host.ExecuteError and the walk continues.
func Apply(ctx context.Context, host Host, outcome *Outcome) string {
	var log strings.Builder

	if outcome.RunErr != nil {
		// §7/invariant 6: a run error aborts every queued action; only
		// the implicit keep is still attempted so mail is never lost.
		applyImplicitKeep(ctx, host, &log)
		return log.String()
	}

	cancelKeep := false
	for _, a := range outcome.Actions {
		if err := applyAction(ctx, host, a, &log); err != nil {
			host.ExecuteError(err.Error())
			continue
		}
		if a.CancelKeep {
			cancelKeep = true
		}
	}
	for _, n := range outcome.Notifies {
		if !n.Active {
			continue
		}
		msg := substituteVars(ctx, host, n.Message)
		if err := host.Notify(ctx, n.Method, n.Options, int32(n.Priority), msg); err != nil {
			host.ExecuteError(fmt.Sprintf("notify %s: %v", n.Method, err))
			continue
		}
		fmt.Fprintf(&log, "notify %s\n", n.Method)
	}
	if !cancelKeep {
		applyImplicitKeep(ctx, host, &log)
	}
	return log.String()
}

func applyImplicitKeep(ctx context.Context, host Host, log *strings.Builder) {
	if err := host.Keep(ctx, nil); err != nil {
		host.ExecuteError(fmt.Sprintf("implicit keep: %v", err))
		return
	}
	log.WriteString("keep\n")
}

func applyAction(ctx context.Context, host Host, a Action, log *strings.Builder) error {
	switch a.Kind {
	case ActKeep:
		if err := host.Keep(ctx, a.ImapFlags); err != nil {
			return err
		}
		log.WriteString("keep\n")
	case ActDiscard:
		if err := host.Discard(ctx); err != nil {
			return err
		}
		log.WriteString("discard\n")
	case ActReject:
		if err := host.Reject(ctx, a.Message); err != nil {
			return err
		}
		log.WriteString("reject\n")
	case ActFileInto:
		if err := host.FileInto(ctx, a.Mailbox, a.Copy, a.ImapFlags); err != nil {
			return err
		}
		fmt.Fprintf(log, "fileinto %q\n", a.Mailbox)
	case ActRedirect:
		if err := host.Redirect(ctx, a.Address, a.Copy); err != nil {
			return err
		}
		fmt.Fprintf(log, "redirect %q\n", a.Address)
	case ActAddFlag, ActSetFlag, ActRemoveFlag:
		// Flag-set mutation already happened in the VM; logged here as
		// an observed step, no separate effector (§4.1 lists no
		// standalone flag effector — flags ride on keep/fileinto).
		fmt.Fprintf(log, "flags %v\n", a.ImapFlags)
	case ActMark, ActUnmark:
		log.WriteString("mark\n")
	case ActVacation:
		return applyVacation(ctx, host, a.Vacation, log)
	default:
		return fmt.Errorf("unknown action kind %v", a.Kind)
	}
	return nil
}

func applyVacation(ctx context.Context, host Host, va *VacationAction, log *strings.Builder) error {
	fromHeader := firstHeader(ctx, host, "From")
	to := fromHeader // reply goes back to the original sender
	subjectHeader := firstHeader(ctx, host, "Subject")

	fp := vacationFingerprint(to, va.Handle, va.HasHandle, fromHeader, va.Message)
	shouldSend, err := host.VacationAutorespond(ctx, fp, va.Days)
	if err != nil {
		return err
	}
	if !shouldSend {
		log.WriteString("vacation suppressed\n")
		return nil
	}

	replyFrom := fromHeaderOrVacation(va)
	subject := va.Subject
	if !va.HasSubject {
		subject = vacationSubject(subjectHeader)
	}
	if err := host.VacationSendResponse(ctx, to, replyFrom, subject, va.Message, va.Mime); err != nil {
		return err
	}
	log.WriteString("vacation sent\n")
	return nil
}

func fromHeaderOrVacation(va *VacationAction) string {
	if va.HasFrom {
		return va.From
	}
	return ""
}

func firstHeader(ctx context.Context, host Host, name string) string {
	vals, err := host.GetHeader(ctx, name)
	if err != nil || len(vals) == 0 {
		return ""
	}
	return vals[0]
}

var textPlaceholderRe = regexp.MustCompile(`\$text\[(\d+)\]\$`)

// substituteVars expands the small notify variable language of §4.4:
// $from$, $env-from$, $subject$, and $text[n]$ (the plain-text body,
// optionally truncated to n characters).
func substituteVars(ctx context.Context, host Host, msg string) string {
	msg = strings.ReplaceAll(msg, "$from$", firstHeader(ctx, host, "From"))
	msg = strings.ReplaceAll(msg, "$subject$", firstHeader(ctx, host, "Subject"))
	if strings.Contains(msg, "$env-from$") {
		envFrom := ""
		if vals, err := host.GetEnvelope(ctx, "from"); err == nil && len(vals) > 0 {
			envFrom = vals[0]
		}
		msg = strings.ReplaceAll(msg, "$env-from$", envFrom)
	}
	if textPlaceholderRe.MatchString(msg) {
		text := plainTextBody(ctx, host)
		msg = textPlaceholderRe.ReplaceAllStringFunc(msg, func(m string) string {
			sub := textPlaceholderRe.FindStringSubmatch(m)
			n, err := strconv.Atoi(sub[1])
			if err != nil || n <= 0 || n >= len(text) {
				return text
			}
			return text[:n]
		})
	}
	return msg
}

func plainTextBody(ctx context.Context, host Host) string {
	parts, err := host.GetBody(ctx, []string{""})
	if err != nil || len(parts) == 0 {
		return ""
	}
	return parts[0].Body
}
