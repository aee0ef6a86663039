package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeWatcher struct {
	job     func(path string)
	stopped bool
}

func (w *fakeWatcher) Start(_ context.Context, job func(path string)) error {
	w.job = job
	return nil
}

func (w *fakeWatcher) Stop(context.Context) error {
	w.stopped = true
	return nil
}

func TestSchedulerSkipsReviewedDocuments(t *testing.T) {
	t.Parallel()

	f := newFixture(safeAnalysis)
	path := writeProposal(t)
	digest, err := FileDigest(path)
	require.NoError(t, err)
	f.repo.seen = map[string]bool{digest: true}

	s := NewScheduler(&fakeWatcher{}, f.pipeline(t), f.repo, Options{}, zaptest.NewLogger(t).Sugar())
	assert.False(t, s.Process(context.Background(), path))
	assert.Empty(t, f.repo.saved)
}

func TestSchedulerRunsNewDocuments(t *testing.T) {
	t.Parallel()

	f := newFixture(safeAnalysis)
	w := &fakeWatcher{}
	s := NewScheduler(w, f.pipeline(t), f.repo, Options{}, zaptest.NewLogger(t).Sugar())

	require.NoError(t, s.Start(context.Background()))
	require.NotNil(t, w.job)

	path := writeProposal(t)
	w.job(path)

	digest, err := FileDigest(path)
	require.NoError(t, err)
	assert.Contains(t, f.repo.saved, digest)

	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, w.stopped)
}

func TestSchedulerIgnoresUnreadablePaths(t *testing.T) {
	t.Parallel()

	f := newFixture(safeAnalysis)
	s := NewScheduler(nil, f.pipeline(t), f.repo, Options{}, nil)
	assert.False(t, s.Process(context.Background(), "/does/not/exist.pdf"))
	assert.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Stop(context.Background()))
}
