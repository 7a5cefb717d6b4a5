package rescheduling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"denovo/pipeline/models/dtos"
	"denovo/pipeline/services/catalog"
	"denovo/pipeline/services/evidence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedRunner struct {
	mu       sync.Mutex
	failures []int
	calls    int
	opts     []evidence.Options
	err      error
}

func (sr *scriptedRunner) Run(ctx context.Context, cat *catalog.Catalog, opts evidence.Options) (*dtos.RunSummary, error) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	sr.opts = append(sr.opts, opts)
	if sr.err != nil {
		return nil, sr.err
	}
	failed := 0
	if sr.calls < len(sr.failures) {
		failed = sr.failures[sr.calls]
	}
	sr.calls++
	return &dtos.RunSummary{Total: 3, Failed: failed, Succeeded: 3 - failed}, nil
}

func testCatalog(t *testing.T) *catalog.Catalog {
	cat, err := catalog.LoadDefault()
	require.NoError(t, err)
	return cat
}

func TestRunStopsWhenNothingFails(t *testing.T) {
	runner := &scriptedRunner{failures: []int{2, 1, 0}}
	rs := NewRescheduleService(runner, testCatalog(t), 0, 20*time.Millisecond, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	summary, err := rs.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 3, runner.calls)
	for _, o := range runner.opts {
		assert.True(t, o.Resume)
	}
}

func TestRunGivesUpAfterMaxRuns(t *testing.T) {
	runner := &scriptedRunner{failures: []int{1, 1, 1, 1, 1}}
	rs := NewRescheduleService(runner, testCatalog(t), 2, 20*time.Millisecond, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	summary, err := rs.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, runner.calls)
	assert.Equal(t, 2, runner.opts[0].Limit)
}

func TestRunReturnsRunnerError(t *testing.T) {
	runner := &scriptedRunner{err: errors.New("disk full")}
	rs := NewRescheduleService(runner, testCatalog(t), 0, 20*time.Millisecond, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := rs.Run(ctx)
	assert.EqualError(t, err, "disk full")
}

func TestRunRejectsZeroInterval(t *testing.T) {
	_, err := NewRescheduleService(&scriptedRunner{}, testCatalog(t), 0, 0, 0).Run(context.Background())
	assert.Error(t, err)
}
