package batch

import (
	"context"
	"errors"
	"time"

	"github.com/chazuruo/tmplconv/internal/convert"
)

// Route is the path an entry took.
type Route string

const (
	// RoutePassthrough: empty or whitespace-only text, copied as-is.
	RoutePassthrough Route = "passthrough"
	// RoutePattern: deterministic rewriter.
	RoutePattern Route = "pattern"
	// RouteGenerative: generator, with the rewriter as fallback.
	RouteGenerative Route = "generative"
)

// Status is the per-entry outcome.
type Status string

const (
	// StatusConverted: a new expression was produced.
	StatusConverted Status = "converted"
	// StatusUnchanged: nothing convertible; output is the (repaired) text.
	StatusUnchanged Status = "unchanged"
	// StatusFallback: the generator failed and the rewriter's output was used.
	StatusFallback Status = "fallback"
	// StatusFailed: conversion panicked; output is the original text.
	StatusFailed Status = "failed"
)

// Outcome describes one converted entry.
type Outcome struct {
	Key      string
	Source   string
	Output   string
	Route    Route
	Status   Status
	Reasons  []convert.Reason
	Unmapped []string
	// Err is the generative failure for fallback entries, the recovered panic
	// for failed entries, or ErrUnmappedPlaceholder.
	Err error
}

// NeedsReview reports whether a human should look at the entry.
func (o Outcome) NeedsReview() bool {
	return o.Status == StatusFallback || o.Status == StatusFailed || len(o.Unmapped) > 0
}

// Report is the result of one batch.
type Report struct {
	// ID identifies the batch in logs.
	ID string
	// Mode is the routing mode used.
	Mode Mode
	// Results maps every input key to its output.
	Results map[string]string
	// Outcomes holds one entry per key, sorted by key.
	Outcomes []Outcome
	// Elapsed is the wall-clock duration of the batch.
	Elapsed time.Duration
}

func newReport(id string, mode Mode, outcomes []Outcome, elapsed time.Duration) *Report {
	results := make(map[string]string, len(outcomes))
	for _, o := range outcomes {
		results[o.Key] = o.Output
	}
	return &Report{ID: id, Mode: mode, Results: results, Outcomes: outcomes, Elapsed: elapsed}
}

// Counts returns the number of entries per status.
func (r *Report) Counts() map[Status]int {
	counts := make(map[Status]int, 4)
	for _, o := range r.Outcomes {
		counts[o.Status]++
	}
	return counts
}

// Review returns the entries that need manual review, in key order.
func (r *Report) Review() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.NeedsReview() {
			out = append(out, o)
		}
	}
	return out
}

// Interrupted counts the entries that fell back because the batch context
// was canceled before their generative call finished.
func (r *Report) Interrupted() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == StatusFallback && errors.Is(o.Err, context.Canceled) {
			n++
		}
	}
	return n
}
