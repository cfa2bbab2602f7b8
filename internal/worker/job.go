package worker

import (
	"time"
)

// Job asks the worker to run one sync.
type Job struct {
	Reason    string // "schedule", "manual", "reload"
	Timestamp time.Time
}
