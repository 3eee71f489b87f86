// Package report records the outcome of scenario runs and publishes it to sinks:
// a JSON writer, and a Redis list for collecting results across runs.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/scenario-fragments/internal/scenario"
)

// Report is the serialisable form of a scenario result.
type Report struct {
	ID        string      `json:"id"`
	Scenario  string      `json:"scenario"`
	Status    string      `json:"status"`
	Success   bool        `json:"success"`
	TimedOut  bool        `json:"timed_out"`
	Ticks     int         `json:"ticks"`
	ElapsedMS int64       `json:"elapsed_ms"`
	WallMS    int64       `json:"wall_ms"`
	Criteria  []Criterion `json:"criteria,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Criterion is the serialisable form of a criterion verdict.
type Criterion struct {
	Name     string  `json:"name"`
	Actor    string  `json:"actor"`
	Outcome  string  `json:"outcome"`
	Actual   float64 `json:"actual"`
	Expected float64 `json:"expected"`
}

// FromResult converts res. runErr, when non-nil, is the error that aborted the
// run, and takes precedence over the tree error.
func FromResult(res *scenario.Result, runErr error) Report {
	r := Report{
		ID:        res.ID.String(),
		Scenario:  res.Scenario,
		Status:    status(res.Status),
		Success:   res.Success,
		TimedOut:  res.TimedOut,
		Ticks:     res.Ticks,
		ElapsedMS: res.Elapsed.Milliseconds(),
		WallMS:    res.Wall.Milliseconds(),
		CreatedAt: time.Now().UTC(),
	}
	for _, c := range res.Criteria {
		r.Criteria = append(r.Criteria, Criterion{
			Name:     c.Name,
			Actor:    c.Actor,
			Outcome:  c.Outcome.String(),
			Actual:   c.Actual,
			Expected: c.Expected,
		})
	}
	switch {
	case runErr != nil:
		r.Error = runErr.Error()
	case res.Err != nil:
		r.Error = res.Err.Error()
	}
	return r
}

func status(s bt.Status) string {
	switch s {
	case bt.Success:
		return "SUCCESS"
	case bt.Failure:
		return "FAILURE"
	default:
		return "RUNNING"
	}
}

// Sink publishes reports.
type Sink interface {
	Write(ctx context.Context, r Report) error
}

// JSONSink writes each report as a JSON document.
type JSONSink struct {
	enc *json.Encoder
}

var _ Sink = (*JSONSink)(nil)

// NewJSONSink writes to w, indented when indent is true.
func NewJSONSink(w io.Writer, indent bool) *JSONSink {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return &JSONSink{enc: enc}
}

func (s *JSONSink) Write(_ context.Context, r Report) error {
	if err := s.enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// Multi writes to every sink, returning the joined errors.
func Multi(sinks ...Sink) Sink { return multiSink(sinks) }

type multiSink []Sink

func (m multiSink) Write(ctx context.Context, r Report) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
