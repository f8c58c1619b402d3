// Package bulk turns an uploaded spreadsheet into a validated batch of
// new user accounts. The pipeline is a state machine per run: a file is
// selected, parsed into candidate records, validated row by row with
// every violation collected, and submitted as one atomic batch only
// when the violation count is zero. Partial batches are never sent.
package bulk

import (
	"fmt"
)

// State is the lifecycle state of one import job. A job instance exists
// per run; a new file selection always starts a fresh job.
type State int

const (
	StateIdle State = iota
	StateFileSelected
	StateParsing
	StateValidating
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFileSelected:
		return "file-selected"
	case StateParsing:
		return "parsing"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// jobTransitions is the legal transition table. Making it data rather
// than control flow keeps the "validation failure never reaches
// submission" rule structural.
var jobTransitions = map[State][]State{
	StateIdle:         {StateFileSelected},
	StateFileSelected: {StateParsing},
	StateParsing:      {StateValidating, StateFailed},
	StateValidating:   {StateSubmitting, StateIdle},
	StateSubmitting:   {StateSucceeded, StateFailed},
}

// job tracks one import attempt through its states.
type job struct {
	state State
	file  string
}

func newJob() *job {
	return &job{state: StateIdle}
}

// advance moves the job to the given state, or reports the illegal
// transition. Every pipeline step goes through here.
func (j *job) advance(to State) error {
	for _, allowed := range jobTransitions[j.state] {
		if allowed == to {
			j.state = to
			return nil
		}
	}

	return fmt.Errorf("bulk: illegal transition %s -> %s", j.state, to)
}
