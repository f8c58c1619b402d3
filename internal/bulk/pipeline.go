package bulk

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"
)

// Stage is a coarse progress milestone. The pipeline reports these
// instead of per-row granularity; the percentages match the progress
// bar of the dashboard this replaces.
type Stage int

const (
	StageSelected Stage = iota
	StageFileRead
	StageRowsDecoded
	StageValidated
	StageSubmitted
)

// Percent returns the progress percentage for the milestone.
func (s Stage) Percent() int {
	switch s {
	case StageSelected:
		return 10
	case StageFileRead:
		return 30
	case StageRowsDecoded:
		return 50
	case StageValidated:
		return 70
	case StageSubmitted:
		return 100
	default:
		return 0
	}
}

func (s Stage) String() string {
	switch s {
	case StageSelected:
		return "selected"
	case StageFileRead:
		return "file read"
	case StageRowsDecoded:
		return "rows decoded"
	case StageValidated:
		return "validated"
	case StageSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Submitter sends a fully validated batch and returns the number of
// accounts created. Defined here, at the consumer; internal/api's
// client satisfies it through a thin adapter.
type Submitter interface {
	Submit(ctx context.Context, users []Candidate) (int, error)
}

// Recorder persists the outcome of a run. Optional; internal/history
// provides the real implementation.
type Recorder interface {
	Record(ctx context.Context, run RunRecord) error
}

// RunRecord is the ledger entry for one pipeline run.
type RunRecord struct {
	File       string
	StartedAt  time.Time
	FinishedAt time.Time
	State      string
	Rows       int
	Violations int
	Created    int
	Error      string
}

// Result is the terminal outcome of one run.
type Result struct {
	State      State
	Rows       int
	Created    int
	Violations []Violation
}

// Pipeline runs import jobs. One Pipeline may run many jobs; each Run
// gets a fresh job instance.
type Pipeline struct {
	submitter Submitter
	recorder  Recorder
	progress  func(Stage)
	logger    *slog.Logger
}

// NewPipeline creates a pipeline. progress and recorder may be nil.
func NewPipeline(submitter Submitter, recorder Recorder, progress func(Stage), logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		submitter: submitter,
		recorder:  recorder,
		progress:  progress,
		logger:    logger,
	}
}

func (p *Pipeline) report(stage Stage) {
	if p.progress != nil {
		p.progress(stage)
	}
}

// Run executes one import job over the spreadsheet at path.
//
// A result with violations and a nil error means the batch was rejected
// client-side: the job is discarded, nothing was submitted, and the
// violations carry one entry per offending row/rule pair in row order.
// A non-nil error means the job failed outright (bad file type, parse
// failure, or server rejection).
func (p *Pipeline) Run(ctx context.Context, path string) (*Result, error) {
	started := time.Now()

	result, err := p.run(ctx, path)

	if p.recorder != nil {
		rec := RunRecord{
			File:       filepath.Base(path),
			StartedAt:  started,
			FinishedAt: time.Now(),
			State:      result.State.String(),
			Rows:       result.Rows,
			Violations: len(result.Violations),
			Created:    result.Created,
		}
		if err != nil {
			rec.Error = err.Error()
		}

		if recErr := p.recorder.Record(ctx, rec); recErr != nil {
			// History is advisory; never fail an import over it.
			p.logger.Warn("failed to record import run",
				slog.String("error", recErr.Error()),
			)
		}
	}

	return result, err
}

func (p *Pipeline) run(ctx context.Context, path string) (*Result, error) {
	j := newJob()

	// Selection: non-spreadsheet files are rejected immediately and the
	// job never leaves Idle.
	if !IsSpreadsheet(path) {
		return &Result{State: StateIdle},
			fmt.Errorf("bulk: %s: only .xlsx or .csv spreadsheets are supported", filepath.Base(path))
	}

	j.file = path
	if err := j.advance(StateFileSelected); err != nil {
		return &Result{State: j.state}, err
	}

	p.report(StageSelected)
	p.logger.Info("import file selected", slog.String("file", filepath.Base(path)))

	if err := j.advance(StateParsing); err != nil {
		return &Result{State: j.state}, err
	}

	p.report(StageFileRead)

	candidates, err := parseFile(path)
	if err != nil {
		_ = j.advance(StateFailed)
		return &Result{State: j.state}, err
	}

	p.report(StageRowsDecoded)
	p.logger.Info("spreadsheet parsed", slog.Int("rows", len(candidates)))

	if err := j.advance(StateValidating); err != nil {
		return &Result{State: j.state, Rows: len(candidates)}, err
	}

	violations := Validate(candidates)

	p.report(StageValidated)

	if len(violations) > 0 {
		// All-or-nothing gate: the job is discarded, nothing is sent.
		_ = j.advance(StateIdle)

		p.logger.Warn("validation failed, batch not submitted",
			slog.Int("rows", len(candidates)),
			slog.Int("violations", len(violations)),
		)

		return &Result{
			State:      j.state,
			Rows:       len(candidates),
			Violations: violations,
		}, nil
	}

	if err := j.advance(StateSubmitting); err != nil {
		return &Result{State: j.state, Rows: len(candidates)}, err
	}

	created, err := p.submitter.Submit(ctx, candidates)
	if err != nil {
		_ = j.advance(StateFailed)

		p.logger.Error("batch submission rejected",
			slog.Int("rows", len(candidates)),
			slog.String("error", err.Error()),
		)

		return &Result{State: j.state, Rows: len(candidates)}, err
	}

	_ = j.advance(StateSucceeded)
	p.report(StageSubmitted)

	p.logger.Info("batch submitted",
		slog.Int("rows", len(candidates)),
		slog.Int("created", created),
	)

	return &Result{
		State:   j.state,
		Rows:    len(candidates),
		Created: created,
	}, nil
}
