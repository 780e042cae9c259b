// Package report describes the outcome of a batch run and serializes it.
package report

import (
	"fmt"
	"time"
)

// ItemStatus is the outcome of one question.
type ItemStatus string

const (
	StatusCreated ItemStatus = "created"
	StatusFailed  ItemStatus = "failed"
)

// Item records what happened to one question.
type Item struct {
	Index       int        `json:"index" yaml:"index"`
	Status      ItemStatus `json:"status" yaml:"status"`
	NoteID      int64      `json:"note_id,omitempty" yaml:"note_id,omitempty"`
	Explanation bool       `json:"explanation" yaml:"explanation"`
	Forum       bool       `json:"forum" yaml:"forum"`
	FrontBytes  int        `json:"front_bytes,omitempty" yaml:"front_bytes,omitempty"`
	BackBytes   int        `json:"back_bytes,omitempty" yaml:"back_bytes,omitempty"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
	Duration    Duration   `json:"duration" yaml:"duration"`
}

// Report summarizes a run.
type Report struct {
	Deck         string `json:"deck" yaml:"deck"`
	Mode         string `json:"mode" yaml:"mode"`
	IncludeForum bool   `json:"include_forum" yaml:"include_forum"`

	Total              int `json:"total" yaml:"total"`
	Processed          int `json:"processed" yaml:"processed"`
	Success            int `json:"success" yaml:"success"`
	MissingExplanation int `json:"missing_explanation" yaml:"missing_explanation"`
	MissingForum       int `json:"missing_forum" yaml:"missing_forum"`
	Errors             int `json:"errors" yaml:"errors"`

	// Stopped explains why the run ended before Total questions.
	Stopped string `json:"stopped,omitempty" yaml:"stopped,omitempty"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	Elapsed    Duration  `json:"elapsed" yaml:"elapsed"`

	Items []Item `json:"items,omitempty" yaml:"items,omitempty"`
}

// Add appends an item and updates the counters.
func (r *Report) Add(item Item) {
	r.Processed++
	switch item.Status {
	case StatusCreated:
		r.Success++
	case StatusFailed:
		r.Errors++
	}
	r.Items = append(r.Items, item)
}

// Finish stamps the end time.
func (r *Report) Finish(at time.Time) {
	r.FinishedAt = at
	r.Elapsed = Duration(at.Sub(r.StartedAt))
}

// Summary returns the report without its items.
func (r *Report) Summary() Report {
	s := *r
	s.Items = nil
	return s
}

// Duration is a time.Duration that serializes as "Xmin Ys".
type Duration time.Duration

// String formats d as whole minutes and seconds.
func (d Duration) String() string {
	total := int(time.Duration(d) / time.Second)
	return fmt.Sprintf("%dmin %ds", total/60, total%60)
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
