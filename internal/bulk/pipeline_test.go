package bulk

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSubmitter records batches and can be made to fail.
type fakeSubmitter struct {
	batches [][]Candidate
	err     error
}

func (f *fakeSubmitter) Submit(_ context.Context, users []Candidate) (int, error) {
	if f.err != nil {
		return 0, f.err
	}

	f.batches = append(f.batches, users)

	return len(users), nil
}

// fakeRecorder captures ledger entries.
type fakeRecorder struct {
	records []RunRecord
}

func (f *fakeRecorder) Record(_ context.Context, run RunRecord) error {
	f.records = append(f.records, run)
	return nil
}

const validCSV = "username,phone,email,password\n" +
	"alice,123456,alice@example.com,secretpass\n" +
	"bob,789012,bob@example.com,anotherpass\n"

func TestRun_CleanBatch_SubmitsOnce(t *testing.T) {
	submitter := &fakeSubmitter{}

	var stages []Stage

	pipeline := NewPipeline(submitter, nil, func(s Stage) {
		stages = append(stages, s)
	}, nil)

	result, err := pipeline.Run(context.Background(), writeCSV(t, validCSV))
	require.NoError(t, err)

	assert.Equal(t, StateSucceeded, result.State)
	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, 2, result.Created)
	assert.Empty(t, result.Violations)

	// Exactly one submission carrying all parsed rows.
	require.Len(t, submitter.batches, 1)
	assert.Len(t, submitter.batches[0], 2)

	assert.Equal(t, []Stage{
		StageSelected, StageFileRead, StageRowsDecoded, StageValidated, StageSubmitted,
	}, stages)
}

func TestRun_Violations_NeverSubmits(t *testing.T) {
	submitter := &fakeSubmitter{}
	pipeline := NewPipeline(submitter, nil, nil, nil)

	csv := "username,phone,email,password\n" +
		"alice,123456,alice@example.com,secretpass\n" +
		"bob,789012,not-an-email,anotherpass\n"

	result, err := pipeline.Run(context.Background(), writeCSV(t, csv))
	require.NoError(t, err)

	// Job discarded: back to idle, zero submission calls.
	assert.Equal(t, StateIdle, result.State)
	assert.Empty(t, submitter.batches)

	require.Len(t, result.Violations, 1)
	assert.Equal(t, 2, result.Violations[0].Row)
	assert.Contains(t, result.Violations[0].Message, "email")
}

func TestRun_NonSpreadsheet_RejectedImmediately(t *testing.T) {
	submitter := &fakeSubmitter{}
	pipeline := NewPipeline(submitter, nil, nil, nil)

	result, err := pipeline.Run(context.Background(), filepath.Join(t.TempDir(), "users.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spreadsheets")

	assert.Equal(t, StateIdle, result.State)
	assert.Empty(t, submitter.batches)
}

func TestRun_ParseFailure(t *testing.T) {
	submitter := &fakeSubmitter{}
	pipeline := NewPipeline(submitter, nil, nil, nil)

	result, err := pipeline.Run(context.Background(), writeCSV(t, ""))
	require.Error(t, err)

	assert.Equal(t, StateFailed, result.State)
	assert.Empty(t, submitter.batches)
}

func TestRun_ServerRejection(t *testing.T) {
	submitter := &fakeSubmitter{err: errors.New("duplicate email")}
	pipeline := NewPipeline(submitter, nil, nil, nil)

	result, err := pipeline.Run(context.Background(), writeCSV(t, validCSV))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate email")

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, 0, result.Created)
}

func TestRun_RecordsOutcome(t *testing.T) {
	recorder := &fakeRecorder{}
	pipeline := NewPipeline(&fakeSubmitter{}, recorder, nil, nil)

	_, err := pipeline.Run(context.Background(), writeCSV(t, validCSV))
	require.NoError(t, err)

	require.Len(t, recorder.records, 1)
	rec := recorder.records[0]

	assert.Equal(t, "users.csv", rec.File)
	assert.Equal(t, StateSucceeded.String(), rec.State)
	assert.Equal(t, 2, rec.Rows)
	assert.Equal(t, 0, rec.Violations)
	assert.Equal(t, 2, rec.Created)
	assert.Empty(t, rec.Error)
	assert.False(t, rec.StartedAt.After(rec.FinishedAt))
}

func TestRun_RecordsFailures(t *testing.T) {
	recorder := &fakeRecorder{}
	pipeline := NewPipeline(&fakeSubmitter{err: errors.New("boom")}, recorder, nil, nil)

	_, err := pipeline.Run(context.Background(), writeCSV(t, validCSV))
	require.Error(t, err)

	require.Len(t, recorder.records, 1)
	assert.Equal(t, StateFailed.String(), recorder.records[0].State)
	assert.Contains(t, recorder.records[0].Error, "boom")
}

func TestJob_IllegalTransitions(t *testing.T) {
	j := newJob()

	// Submitting straight from idle is structurally impossible.
	assert.Error(t, j.advance(StateSubmitting))

	require.NoError(t, j.advance(StateFileSelected))
	require.NoError(t, j.advance(StateParsing))
	require.NoError(t, j.advance(StateValidating))

	// Validation failure goes back to idle, never to submitting after.
	require.NoError(t, j.advance(StateIdle))
	assert.Error(t, j.advance(StateSubmitting))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "succeeded", StateSucceeded.String())
	assert.Equal(t, "state(99)", State(99).String())
}
