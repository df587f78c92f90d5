package uploads

import (
	"time"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// UploadResult is the body returned to the caller for a finished upload
type UploadResult struct {
	Status string `json:"status"`
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// State is a step of the upload pipeline
type State string

const (
	StateReceived  State = "received"
	StateValidated State = "validated"
	StateEnriched  State = "enriched"
	StateStaged    State = "staged"
	StatePublished State = "published"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// Outcome describes how an upload went through the pipeline
type Outcome struct {
	ID       string
	States   []State
	Result   *UploadResult
	Duration time.Duration
}

// Last returns the final state reached
func (o *Outcome) Last() State {
	if len(o.States) == 0 {
		return ""
	}
	return o.States[len(o.States)-1]
}

// Succeeded reports whether the upload reached Done
func (o *Outcome) Succeeded() bool {
	return o.Last() == StateDone
}
