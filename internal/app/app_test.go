package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"ComplianceReview/internal/config"
	"ComplianceReview/internal/domain"
	"ComplianceReview/internal/errors"
	"ComplianceReview/internal/ports"
	"ComplianceReview/internal/usecase"
)

func channelNames(chain []ports.NotificationChannel) []string {
	names := make([]string, 0, len(chain))
	for _, ch := range chain {
		names = append(names, ch.Name())
	}
	return names
}

func TestNotificationChainLogSinkLast(t *testing.T) {
	cases := []struct {
		name     string
		channels []string
		want     []string
	}{
		{"log listed first", []string{"log", "graph"}, []string{"graph", "log"}},
		{"log in the middle", []string{"smtp", " LOG ", "telegram"}, []string{"smtp", "telegram", "log"}},
		{"log omitted", []string{" Telegram", "smtp"}, []string{"telegram", "smtp", "log"}},
		{"nothing configured", nil, []string{"log"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Config{Notifications: config.NotificationConfig{Channels: tc.channels}}
			chain, err := notificationChain(cfg, zaptest.NewLogger(t).Sugar())
			require.NoError(t, err)
			assert.Equal(t, tc.want, channelNames(chain))
		})
	}
}

func TestNotificationChainUnknownChannel(t *testing.T) {
	cfg := config.Config{Notifications: config.NotificationConfig{Channels: []string{"pager"}}}
	_, err := notificationChain(cfg, zaptest.NewLogger(t).Sugar())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pager")
}

func newTestApplication(t *testing.T) *Application {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	body := "storage:\n  driver: sqlite3\n  dsn: " + filepath.Join(dir, "audit.db") + "\n" +
		"knowledge:\n  dir: " + filepath.Join(dir, "kb") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))
	t.Setenv("DATABASE_DSN", "")

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	a, err := New(context.Background(), cfg, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestShowByDigestAndPath(t *testing.T) {
	ctx := context.Background()
	a := newTestApplication(t)

	doc := filepath.Join(t.TempDir(), "proposal.txt")
	require.NoError(t, os.WriteFile(doc, []byte("Applicant: Riverside Health Network"), 0o644))
	digest, err := usecase.FileDigest(doc)
	require.NoError(t, err)

	done := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	stored := domain.WorkflowResult{
		SubmissionID: "sub-1",
		SourcePath:   doc,
		State:        domain.StateCompleted,
		CompletedAt:  &done,
	}
	require.NoError(t, a.repository.Save(ctx, digest, stored))

	byDigest, err := a.Show(ctx, digest)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", byDigest.SubmissionID)
	assert.Equal(t, domain.StateCompleted, byDigest.State)

	byPath, err := a.Show(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, byDigest.SubmissionID, byPath.SubmissionID)
	assert.Equal(t, doc, byPath.SourcePath)
}

func TestShowUnknownDigest(t *testing.T) {
	a := newTestApplication(t)

	_, err := a.Show(context.Background(), "0000")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
