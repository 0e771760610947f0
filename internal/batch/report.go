package batch

import (
	"time"

	"reelname/internal/identification"
)

// Outcome classifies a batch item.
type Outcome string

const (
	OutcomeFound       Outcome = "found"
	OutcomeNotFound    Outcome = "not_found"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeCancelled   Outcome = "cancelled"
)

// ItemResult is the resolution of one item.
type ItemResult struct {
	Item         Item                     `json:"item"`
	Candidate    identification.Candidate `json:"candidate"`
	Match        identification.Match     `json:"match"`
	Outcome      Outcome                  `json:"outcome"`
	ProposedName string                   `json:"proposed_name,omitempty"`
	Error        string                   `json:"error,omitempty"`
	Duration     time.Duration            `json:"duration_ns"`
}

// Report summarizes one batch run. Items keep input order.
type Report struct {
	ID       string       `json:"id"`
	Root     string       `json:"root,omitempty"`
	Started  time.Time    `json:"started"`
	Finished time.Time    `json:"finished"`
	Items    []ItemResult `json:"items"`
}

// Counts tallies outcomes.
type Counts struct {
	Found       int `json:"found"`
	NotFound    int `json:"not_found"`
	Unavailable int `json:"unavailable"`
	Cancelled   int `json:"cancelled"`
}

// Total returns the number of items counted.
func (c Counts) Total() int {
	return c.Found + c.NotFound + c.Unavailable + c.Cancelled
}

// Counts tallies the report's outcomes.
func (r Report) Counts() Counts {
	var c Counts
	for _, item := range r.Items {
		switch item.Outcome {
		case OutcomeFound:
			c.Found++
		case OutcomeNotFound:
			c.NotFound++
		case OutcomeUnavailable:
			c.Unavailable++
		default:
			c.Cancelled++
		}
	}
	return c
}

// Duration is the wall time of the run.
func (r Report) Duration() time.Duration {
	if r.Finished.Before(r.Started) {
		return 0
	}
	return r.Finished.Sub(r.Started)
}
