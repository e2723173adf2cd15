package scrape

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type Status string

const (
	StatusRunning        Status = "running"
	StatusSuccess        Status = "success"
	StatusPartialFailure Status = "partial_failure"
	StatusFailed         Status = "failed"
)

// Terminal reports whether a status may never change again.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusPartialFailure || s == StatusFailed
}

// Job is one execution of the ingestion pipeline across a set of sources.
type Job struct {
	ID           uuid.UUID
	StartedAt    time.Time
	EndedAt      *time.Time
	Sources      []string
	ItemsSeen    int
	ItemsNew     int
	ItemsUpdated int
	ItemsFailed  int
	Status       Status
	ErrorSummary string
}

func NewJob(sources []string) Job {
	return Job{
		ID:        uuid.New(),
		StartedAt: time.Now().UTC(),
		Sources:   sources,
		Status:    StatusRunning,
	}
}

// Outcome is the final report of one per-source pipeline. FatalErr is set
// when the source failed as a whole (adapter error, timeout, configuration
// error or repeated persistence failures); counters cover whatever the
// source managed to deliver before that.
type Outcome struct {
	Source       string
	ItemsSeen    int
	ItemsNew     int
	ItemsUpdated int
	ItemsFailed  int
	FatalErr     error
}

// maxErrorSummary bounds the stored error text so a run with many failing
// sources cannot grow the job row without limit.
const maxErrorSummary = 2000

// Reduce folds the per-source outcomes into the job's terminal state. It is
// called exactly once, single-threaded, after every pipeline has reported.
//
// Rules: no fatal source errors -> success. At least one fatal error with at
// least one item still ingested -> partial_failure. Fatal errors and nothing
// ingested at all -> failed.
func (j Job) Reduce(outcomes []Outcome) Job {
	now := time.Now().UTC()
	j.EndedAt = &now

	fatal := 0
	var errs []string
	for _, o := range outcomes {
		j.ItemsSeen += o.ItemsSeen
		j.ItemsNew += o.ItemsNew
		j.ItemsUpdated += o.ItemsUpdated
		j.ItemsFailed += o.ItemsFailed
		if o.FatalErr != nil {
			fatal++
			errs = append(errs, fmt.Sprintf("%s: %v", o.Source, o.FatalErr))
		}
	}

	ingested := j.ItemsNew + j.ItemsUpdated

	switch {
	case fatal == 0:
		j.Status = StatusSuccess
	case ingested > 0:
		j.Status = StatusPartialFailure
	default:
		j.Status = StatusFailed
	}

	j.ErrorSummary = truncate(strings.Join(errs, "; "), maxErrorSummary)
	return j
}

// truncate cuts at a rune boundary so the stored summary stays valid UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
