package executor

import (
	"fmt"

	"github.com/edutenorio/FolderTracker/internal/action"
)

// Status is the result of applying one action.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusFailed  Status = "failed"
)

// Outcome is what happened to one path. Err is set unless Status is ok.
type Outcome struct {
	Path   string
	Action action.Action
	Status Status
	Err    error
}

func (o Outcome) String() string {
	if o.Err == nil {
		return fmt.Sprintf("%s: %s: %s", o.Path, o.Action, o.Status)
	}
	return fmt.Sprintf("%s: %s: %s: %v", o.Path, o.Action, o.Status, o.Err)
}

// Report collects one outcome per executed path, in execution order.
type Report []Outcome

func (r Report) filter(s Status) []Outcome {
	var out []Outcome
	for _, o := range r {
		if o.Status == s {
			out = append(out, o)
		}
	}
	return out
}

func (r Report) Warnings() []Outcome { return r.filter(StatusWarning) }
func (r Report) Failures() []Outcome { return r.filter(StatusFailed) }

// OK reports whether nothing failed. Warnings do not count.
func (r Report) OK() bool {
	for _, o := range r {
		if o.Status == StatusFailed {
			return false
		}
	}
	return true
}

// Lookup returns the outcome recorded for path.
func (r Report) Lookup(path string) (Outcome, bool) {
	for _, o := range r {
		if o.Path == path {
			return o, true
		}
	}
	return Outcome{}, false
}
