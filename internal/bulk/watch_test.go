package bulk

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const watchSettle = 200 * time.Millisecond

type watchResult struct {
	path   string
	result *Result
	err    error
}

// startWatch runs Watch against dir in the background and returns a
// channel of per-run outcomes. The watcher stops when the test ends.
func startWatch(t *testing.T, pipeline *Pipeline, dir string) <-chan watchResult {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	results := make(chan watchResult, 8)
	done := make(chan error, 1)

	go func() {
		done <- pipeline.Watch(ctx, dir, watchSettle, func(path string, result *Result, err error) {
			results <- watchResult{path: path, result: result, err: err}
		})
	}()

	t.Cleanup(func() {
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Error("watcher did not stop on context cancel")
		}
	})

	// Give the watcher a moment to register the directory before the
	// test starts dropping files.
	time.Sleep(50 * time.Millisecond)

	return results
}

func awaitResult(t *testing.T, results <-chan watchResult) watchResult {
	t.Helper()

	select {
	case r := <-results:
		return r
	case <-time.After(3 * time.Second):
		t.Fatal("no import result before timeout")
		return watchResult{}
	}
}

func TestWatch_ImportsDroppedSpreadsheet(t *testing.T) {
	dir := t.TempDir()
	submitter := &fakeSubmitter{}
	pipeline := NewPipeline(submitter, nil, nil, nil)

	results := startWatch(t, pipeline, dir)

	path := filepath.Join(dir, "users.csv")
	require.NoError(t, os.WriteFile(path, []byte(validCSV), 0o600))

	got := awaitResult(t, results)
	require.NoError(t, got.err)
	assert.Equal(t, path, got.path)
	assert.Equal(t, StateSucceeded, got.result.State)
	assert.Equal(t, 2, got.result.Created)

	require.Len(t, submitter.batches, 1)
	assert.Len(t, submitter.batches[0], 2)
}

func TestWatch_ChmodDuringSettleDoesNotCancel(t *testing.T) {
	// File managers and scp chmod right after copying; the mode change
	// must not drop the file out of the settle window.
	dir := t.TempDir()
	submitter := &fakeSubmitter{}
	pipeline := NewPipeline(submitter, nil, nil, nil)

	results := startWatch(t, pipeline, dir)

	path := filepath.Join(dir, "users.csv")
	require.NoError(t, os.WriteFile(path, []byte(validCSV), 0o600))

	time.Sleep(watchSettle / 4)
	require.NoError(t, os.Chmod(path, 0o644))

	got := awaitResult(t, results)
	require.NoError(t, got.err)
	assert.Equal(t, StateSucceeded, got.result.State)
	require.Len(t, submitter.batches, 1)
}

func TestWatch_RemovedBeforeSettleIsSkipped(t *testing.T) {
	dir := t.TempDir()
	submitter := &fakeSubmitter{}
	pipeline := NewPipeline(submitter, nil, nil, nil)

	results := startWatch(t, pipeline, dir)

	doomed := filepath.Join(dir, "doomed.csv")
	require.NoError(t, os.WriteFile(doomed, []byte(validCSV), 0o600))
	require.NoError(t, os.Remove(doomed))

	// A second file proves the watcher is still alive; only it imports.
	kept := filepath.Join(dir, "kept.csv")
	require.NoError(t, os.WriteFile(kept, []byte(validCSV), 0o600))

	got := awaitResult(t, results)
	require.NoError(t, got.err)
	assert.Equal(t, kept, got.path)

	select {
	case extra := <-results:
		t.Errorf("unexpected extra import: %s", extra.path)
	case <-time.After(2 * watchSettle):
	}
}

func TestWatch_IgnoresNonSpreadsheets(t *testing.T) {
	dir := t.TempDir()
	submitter := &fakeSubmitter{}
	pipeline := NewPipeline(submitter, nil, nil, nil)

	results := startWatch(t, pipeline, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o600))

	path := filepath.Join(dir, "users.csv")
	require.NoError(t, os.WriteFile(path, []byte(validCSV), 0o600))

	got := awaitResult(t, results)
	require.NoError(t, got.err)
	assert.Equal(t, path, got.path)

	select {
	case extra := <-results:
		t.Errorf("unexpected result for %s", extra.path)
	case <-time.After(2 * watchSettle):
	}
}

func TestWatch_ReportsRunFailures(t *testing.T) {
	dir := t.TempDir()
	pipeline := NewPipeline(&fakeSubmitter{}, nil, nil, nil)

	results := startWatch(t, pipeline, dir)

	// Header-only spreadsheet: the run fails but the watcher keeps going.
	bad := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(bad, []byte("username,phone,email,password\n"), 0o600))

	got := awaitResult(t, results)
	require.Error(t, got.err)
	assert.Equal(t, bad, got.path)

	good := filepath.Join(dir, "users.csv")
	require.NoError(t, os.WriteFile(good, []byte(validCSV), 0o600))

	got = awaitResult(t, results)
	require.NoError(t, got.err)
	assert.Equal(t, StateSucceeded, got.result.State)
}

func TestWatch_MissingDirectory(t *testing.T) {
	pipeline := NewPipeline(&fakeSubmitter{}, nil, nil, nil)

	err := pipeline.Watch(context.Background(), filepath.Join(t.TempDir(), "nope"),
		watchSettle, nil)
	require.Error(t, err)
}
