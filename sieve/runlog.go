package sieve

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

func newRunID() string { return uuid.NewString() }

// runLog is the interpreter's per-run trace line: a field-style log
// shape ("time=... run=... phase=...: msg") carrying a run id and the
// parse/compile/eval phase, since a script run has no network peer,
// host, or session the way a protocol connection does.
type runLog struct {
	runID string
	phase string
}

func newRunLog(phase string) runLog {
	return runLog{runID: newRunID(), phase: phase}
}

func (r runLog) Logf(format string, args ...any) {
	log.Printf("time=%s run=%s phase=%s: %s",
		time.Now().Format(time.RFC3339), r.runID, r.phase, fmt.Sprintf(format, args...))
}
